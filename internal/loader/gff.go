package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// Indexer is the write surface the data sources load through. *Loader
// implements it.
type Indexer interface {
	IndexChromosome(ctx context.Context, name string, length int64, genus, species string) error
	IndexChromosomeGenes(ctx context.Context, chromosome string, genes []Gene) error
}

// DefaultSequenceTypes are the GFF feature types eligible as chromosomes.
var DefaultSequenceTypes = []string{"chromosome", "supercontig"}

// GFFConfig locates and describes a GFF data set. The GFF files may be
// version 2 or version 3, and all three files may be gzipped (by .gz
// suffix). Strain, when given, is carried in the species tag as
// "species:strain".
type GFFConfig struct {
	Genus         string
	Species       string
	Strain        string
	ChromosomeGFF string
	GeneGFF       string
	GFA           string
	SequenceTypes []string
}

func (cfg GFFConfig) speciesTag() string {
	if cfg.Strain == "" {
		return cfg.Species
	}
	return cfg.Species + ":" + cfg.Strain
}

func (cfg GFFConfig) sequenceTypes() []string {
	if len(cfg.SequenceTypes) == 0 {
		return DefaultSequenceTypes
	}
	return cfg.SequenceTypes
}

// LoadGFF loads chromosomes from the chromosome GFF, genes from the gene
// GFF, and family assignments from the GFA file. Genes on chromosomes
// absent from the chromosome GFF are skipped; GFA rows naming unknown
// genes are skipped and the count logged.
func LoadGFF(ctx context.Context, idx Indexer, cfg GFFConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	species := cfg.speciesTag()

	var chromosomes []chromosomeFeature
	err := withOpen(cfg.ChromosomeGFF, func(r io.Reader) error {
		var err error
		chromosomes, err = readChromosomes(r, cfg.sequenceTypes())
		return err
	})
	if err != nil {
		return fmt.Errorf("read chromosome gff %s: %w", cfg.ChromosomeGFF, err)
	}
	names := make(map[string]bool, len(chromosomes))
	for _, c := range chromosomes {
		names[c.name] = true
		if err := idx.IndexChromosome(ctx, c.name, c.length, cfg.Genus, species); err != nil {
			return err
		}
	}
	logger.Info("indexed chromosomes", zap.Int("count", len(chromosomes)))

	var (
		byChromosome map[string][]*Gene
		lookup       map[string]*Gene
	)
	err = withOpen(cfg.GeneGFF, func(r io.Reader) error {
		var err error
		byChromosome, lookup, err = readGenes(r, names)
		return err
	})
	if err != nil {
		return fmt.Errorf("read gene gff %s: %w", cfg.GeneGFF, err)
	}

	var skipped int
	err = withOpen(cfg.GFA, func(r io.Reader) error {
		var err error
		skipped, err = applyFamilies(r, lookup)
		return err
	})
	if err != nil {
		return fmt.Errorf("read gfa %s: %w", cfg.GFA, err)
	}
	if skipped > 0 {
		logger.Warn("skipped family assignments for unknown genes", zap.Int("count", skipped))
	}

	for chromosome, genes := range byChromosome {
		records := make([]Gene, len(genes))
		for i, g := range genes {
			records[i] = *g
		}
		if err := idx.IndexChromosomeGenes(ctx, chromosome, records); err != nil {
			return err
		}
		logger.Info("indexed genes",
			zap.String("chromosome", chromosome),
			zap.Int("count", len(records)))
	}
	return nil
}

type chromosomeFeature struct {
	name   string
	length int64
}

// gffRecord is a feature normalized across GFF versions. start and end
// are one-based inclusive; id is the ID attribute, falling back to Name.
type gffRecord struct {
	seqName string
	feature string
	start   int64
	end     int64
	strand  int
	id      string
}

// readChromosomes extracts one record per feature of an eligible
// sequence type. The chromosome's length is the feature's end position.
func readChromosomes(r io.Reader, sequenceTypes []string) ([]chromosomeFeature, error) {
	eligible := make(map[string]bool, len(sequenceTypes))
	for _, t := range sequenceTypes {
		eligible[t] = true
	}

	var chromosomes []chromosomeFeature
	err := scanFeatures(r, func(rec gffRecord) error {
		if !eligible[rec.feature] {
			return nil
		}
		chromosomes = append(chromosomes, chromosomeFeature{
			name:   rec.seqName,
			length: rec.end,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chromosomes, nil
}

// readGenes extracts the "gene" features that lie on a known chromosome,
// keyed both by chromosome and by gene name for family assignment.
// Coordinates are reported one-based.
func readGenes(r io.Reader, chromosomes map[string]bool) (map[string][]*Gene, map[string]*Gene, error) {
	byChromosome := make(map[string][]*Gene)
	lookup := make(map[string]*Gene)
	err := scanFeatures(r, func(rec gffRecord) error {
		if rec.feature != "gene" || !chromosomes[rec.seqName] || rec.id == "" {
			return nil
		}
		gene := &Gene{
			Name:   rec.id,
			Fmin:   rec.start,
			Fmax:   rec.end,
			Strand: rec.strand,
		}
		byChromosome[rec.seqName] = append(byChromosome[rec.seqName], gene)
		lookup[rec.id] = gene
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return byChromosome, lookup, nil
}

// scanFeatures streams the features of a GFF file, sniffing the version
// from the leading ##gff-version directive. Version 3 files are parsed
// directly; anything else goes through the GFF2 reader.
func scanFeatures(r io.Reader, fn func(gffRecord) error) error {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if isGFF3Header(first) {
		return scanGFF3(br, fn)
	}
	return scanGFF2(io.MultiReader(strings.NewReader(first), br), fn)
}

func isGFF3Header(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 2 && fields[0] == "##gff-version" && strings.HasPrefix(fields[1], "3")
}

func scanGFF2(r io.Reader, fn func(gffRecord) error) error {
	reader := gff.NewReader(r)
	for {
		f, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		feature, ok := f.(*gff.Feature)
		if !ok {
			continue
		}
		id := feature.FeatAttributes.Get("ID")
		if id == "" {
			id = feature.FeatAttributes.Get("Name")
		}
		rec := gffRecord{
			seqName: feature.SeqName,
			feature: feature.Feature,
			// the reader's coordinates are zero-based half-open
			start:  int64(feature.FeatStart + 1),
			end:    int64(feature.FeatEnd),
			strand: int(feature.FeatStrand),
			id:     id,
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func scanGFF3(r io.Reader, fn func(gffRecord) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "##FASTA" {
			return nil
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseGFF3Line(line)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

func parseGFF3Line(line string) (gffRecord, error) {
	fields := strings.SplitN(line, "\t", 9)
	if len(fields) < 9 {
		return gffRecord{}, fmt.Errorf("gff3: %d columns in line %q", len(fields), line)
	}
	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return gffRecord{}, fmt.Errorf("gff3: bad start in line %q: %w", line, err)
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return gffRecord{}, fmt.Errorf("gff3: bad end in line %q: %w", line, err)
	}
	var strand int
	switch fields[6] {
	case "+":
		strand = 1
	case "-":
		strand = -1
	}
	id := gff3Attribute(fields[8], "ID")
	if id == "" {
		id = gff3Attribute(fields[8], "Name")
	}
	return gffRecord{
		seqName: fields[0],
		feature: fields[2],
		start:   start,
		end:     end,
		strand:  strand,
		id:      id,
	}, nil
}

// gff3Attribute extracts one tag=value attribute, percent-decoding the
// value.
func gff3Attribute(attributes, tag string) string {
	for _, field := range strings.Split(attributes, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok || key != tag {
			continue
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			return decoded
		}
		return value
	}
	return ""
}

// applyFamilies assigns families from tab-separated gene, family rows.
// Comment and ScoreMeaning rows are skipped; rows naming unknown genes
// are skipped and counted.
func applyFamilies(r io.Reader, lookup map[string]*Gene) (skipped int, err error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'
	tsv.FieldsPerRecord = -1
	tsv.LazyQuotes = true
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
		if len(row) < 2 || row[0] == "ScoreMeaning" {
			continue
		}
		gene, ok := lookup[row[0]]
		if !ok {
			skipped++
			continue
		}
		gene.Family = row[1]
	}
}

// withOpen opens a possibly gzipped file and applies fn to its contents.
func withOpen(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}
	return fn(r)
}
