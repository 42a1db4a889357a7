package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/syntenic/services/internal/store"
)

// fakeChromosome is the test double's unit of data: a chromosome record
// plus its four parallel sequences, derived from the gene list.
type fakeChromosome struct {
	record store.ChromosomeRecord
	genes  []fakeGene
}

type fakeGene struct {
	name   string
	family string
	fmin   int64
	fmax   int64
	strand int
}

// fakeStore implements Store from in-memory chromosomes.
type fakeStore struct {
	chromosomes map[string]*fakeChromosome
	// errs forces a method to fail, keyed by method name
	errs map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chromosomes: make(map[string]*fakeChromosome),
		errs:        make(map[string]error),
	}
}

// addChromosome registers a chromosome whose genes are spaced 1000 bp
// apart with 500 bp lengths, in index order.
func (f *fakeStore) addChromosome(name, genus, species string, length int64, families []string) {
	c := &fakeChromosome{
		record: store.ChromosomeRecord{Name: name, Length: length, Genus: genus, Species: species},
	}
	for i, family := range families {
		fmin := int64(i)*1000 + 1
		c.genes = append(c.genes, fakeGene{
			name:   fmt.Sprintf("%s-gene-%d", name, i),
			family: family,
			fmin:   fmin,
			fmax:   fmin + 500,
			strand: 1,
		})
	}
	f.chromosomes[name] = c
}

func (f *fakeStore) Chromosome(ctx context.Context, name string) (*store.ChromosomeRecord, error) {
	if err := f.errs["Chromosome"]; err != nil {
		return nil, err
	}
	c, ok := f.chromosomes[name]
	if !ok {
		return nil, fmt.Errorf("chromosome %q: %w", name, store.ErrNotFound)
	}
	record := c.record
	return &record, nil
}

func (f *fakeStore) GeneCount(ctx context.Context, chromosome string) (int, error) {
	c, ok := f.chromosomes[chromosome]
	if !ok {
		return 0, nil
	}
	return len(c.genes), nil
}

func (f *fakeStore) slice(chromosome string, first, last int64) []fakeGene {
	c, ok := f.chromosomes[chromosome]
	if !ok {
		return nil
	}
	n := int64(len(c.genes))
	if last == -1 || last >= n {
		last = n - 1
	}
	if first < 0 || first > last {
		return nil
	}
	return c.genes[first : last+1]
}

func (f *fakeStore) GeneNames(ctx context.Context, chromosome string, first, last int64) ([]string, error) {
	if err := f.errs["GeneNames"]; err != nil {
		return nil, err
	}
	var names []string
	for _, g := range f.slice(chromosome, first, last) {
		names = append(names, g.name)
	}
	return names, nil
}

func (f *fakeStore) Families(ctx context.Context, chromosome string, first, last int64) ([]string, error) {
	var families []string
	for _, g := range f.slice(chromosome, first, last) {
		families = append(families, g.family)
	}
	return families, nil
}

func (f *fakeStore) Fmins(ctx context.Context, chromosome string) ([]int64, error) {
	var fmins []int64
	for _, g := range f.slice(chromosome, 0, -1) {
		fmins = append(fmins, g.fmin)
	}
	return fmins, nil
}

func (f *fakeStore) Fmaxs(ctx context.Context, chromosome string) ([]int64, error) {
	var fmaxs []int64
	for _, g := range f.slice(chromosome, 0, -1) {
		fmaxs = append(fmaxs, g.fmax)
	}
	return fmaxs, nil
}

func (f *fakeStore) Locations(ctx context.Context, chromosome string, indices []int) ([]store.Location, error) {
	c, ok := f.chromosomes[chromosome]
	if !ok {
		return nil, fmt.Errorf("chromosome %q: %w", chromosome, store.ErrNotFound)
	}
	locations := make([]store.Location, len(indices))
	for i, idx := range indices {
		g := c.genes[idx]
		locations[i] = store.Location{Fmin: g.fmin, Fmax: g.fmax}
	}
	return locations, nil
}

func (f *fakeStore) Genes(ctx context.Context, names []string) ([]store.GeneRecord, error) {
	byName := make(map[string]store.GeneRecord)
	for chromosome, c := range f.chromosomes {
		for i, g := range c.genes {
			byName[g.name] = store.GeneRecord{
				Name:       g.name,
				Chromosome: chromosome,
				Family:     g.family,
				Fmin:       g.fmin,
				Fmax:       g.fmax,
				Strand:     g.strand,
				Index:      i,
			}
		}
	}
	var records []store.GeneRecord
	for _, name := range names {
		if r, ok := byName[name]; ok {
			records = append(records, r)
		}
	}
	return records, nil
}

func (f *fakeStore) FamilyPositions(ctx context.Context, family string, targets []string) ([]store.GenePosition, error) {
	if err := f.errs["FamilyPositions"]; err != nil {
		return nil, err
	}
	restricted := make(map[string]bool)
	for _, t := range targets {
		restricted[t] = true
	}
	var positions []store.GenePosition
	for name, c := range f.chromosomes {
		if len(targets) > 0 && !restricted[name] {
			continue
		}
		for i, g := range c.genes {
			if g.family == family {
				positions = append(positions, store.GenePosition{Chromosome: name, Index: i})
			}
		}
	}
	return positions, nil
}

func (f *fakeStore) SearchChromosomeNames(ctx context.Context, query string) ([]string, error) {
	if err := f.errs["SearchChromosomeNames"]; err != nil {
		return nil, err
	}
	var names []string
	for name := range f.chromosomes {
		if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeStore) SearchGeneNames(ctx context.Context, query string) ([]string, error) {
	if err := f.errs["SearchGeneNames"]; err != nil {
		return nil, err
	}
	var names []string
	for _, c := range f.chromosomes {
		for _, g := range c.genes {
			if strings.Contains(strings.ToLower(g.name), strings.ToLower(query)) {
				names = append(names, g.name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
