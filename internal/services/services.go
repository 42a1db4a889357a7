// Package services implements the request handlers behind the service
// endpoints: chromosome lookup, chromosome and gene name search, region
// lookup, gene batch fetch, micro-synteny search, pairwise and fan-out
// macro-synteny block computation, and the federating search. Handlers
// are transport-agnostic; the HTTP layer (and any future wire surface)
// adapts them.
package services

import (
	"context"
	"errors"

	"github.com/syntenic/services/internal/store"
)

// ErrInvalidArgument is returned when a request value is out of range or
// otherwise malformed. The transport maps it to a client error.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFound mirrors store.ErrNotFound so callers need not import the
// store package to classify errors.
var ErrNotFound = store.ErrNotFound

// Store is the read-side view of the database the handlers consume. The
// redis-backed *store.Store implements it; tests substitute an
// in-memory fake.
type Store interface {
	// Chromosome fetches a chromosome record; ErrNotFound if absent.
	Chromosome(ctx context.Context, name string) (*store.ChromosomeRecord, error)
	// GeneCount returns a chromosome's gene count.
	GeneCount(ctx context.Context, chromosome string) (int, error)
	// GeneNames returns the [first, last] slice of a chromosome's
	// ordered gene name list; 0, -1 selects the whole list.
	GeneNames(ctx context.Context, chromosome string, first, last int64) ([]string, error)
	// Families returns the [first, last] slice of a chromosome's
	// ordered family list; 0, -1 selects the whole list.
	Families(ctx context.Context, chromosome string, first, last int64) ([]string, error)
	// Fmins returns a chromosome's full ordered fmin list.
	Fmins(ctx context.Context, chromosome string) ([]int64, error)
	// Fmaxs returns a chromosome's full ordered fmax list.
	Fmaxs(ctx context.Context, chromosome string) ([]int64, error)
	// Locations reads the (fmin, fmax) interval at each gene index.
	Locations(ctx context.Context, chromosome string, indices []int) ([]store.Location, error)
	// Genes fetches gene records by name, omitting misses.
	Genes(ctx context.Context, names []string) ([]store.GeneRecord, error)
	// FamilyPositions locates every gene of a family, optionally
	// restricted to the given chromosomes.
	FamilyPositions(ctx context.Context, family string, targets []string) ([]store.GenePosition, error)
	// SearchChromosomeNames fuzzy-matches chromosome names.
	SearchChromosomeNames(ctx context.Context, query string) ([]string, error)
	// SearchGeneNames fuzzy-matches gene names.
	SearchGeneNames(ctx context.Context, query string) ([]string, error)
}
