// Package store defines the Redis/RediSearch schema shared by the loader
// and the services, and provides the read-side client the services are
// built on. Chromosomes and genes are stored as hashes under
// "chromosome:<name>" and "gene:<name>" keys, with four parallel lists
// per chromosome for indexed retrieval and slicing, and two RediSearch
// indexes over the hashes.
package store

import "fmt"

// SchemaVersion is the schema version this build reads and writes.
const SchemaVersion = "2.0.0"

// CompatibleVersions are the stored schema versions this build can read.
var CompatibleVersions = []string{"2.0.0"}

// AssumedLegacyVersion is attributed to populated databases that predate
// the version key.
const AssumedLegacyVersion = "1.0.0"

// Version keys.
const (
	VersionKey    = "GCV_SCHEMA_VERSION"
	CompatibleKey = "GCV_COMPATIBLE_SCHEMA_VERSIONS"
)

// Index names.
const (
	ChromosomeIndex = "chromosomeIdx"
	GeneIndex       = "geneIdx"
)

// Key prefixes the indexes are defined over.
const (
	ChromosomePrefix = "chromosome:"
	GenePrefix       = "gene:"
)

// ChromosomeKey returns the hash key for a chromosome record.
func ChromosomeKey(name string) string {
	return ChromosomePrefix + name
}

// GeneKey returns the hash key for a gene record.
func GeneKey(name string) string {
	return GenePrefix + name
}

// Keys of the four parallel lists kept per chromosome. The lists have
// identical length equal to the chromosome's gene count and their i-th
// entries describe the chromosome's i-th gene in fmin order.
func GenesKey(chromosome string) string {
	return fmt.Sprintf("%s%s:genes", ChromosomePrefix, chromosome)
}

func FamiliesKey(chromosome string) string {
	return fmt.Sprintf("%s%s:families", ChromosomePrefix, chromosome)
}

func FminsKey(chromosome string) string {
	return fmt.Sprintf("%s%s:fmins", ChromosomePrefix, chromosome)
}

func FmaxsKey(chromosome string) string {
	return fmt.Sprintf("%s%s:fmaxs", ChromosomePrefix, chromosome)
}
