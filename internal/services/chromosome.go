package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Chromosome is a chromosome with its ordered gene and family lists.
// Genes and Families have equal length; their i-th entries correspond.
type Chromosome struct {
	Length   int64    `json:"length"`
	Genus    string   `json:"genus"`
	Species  string   `json:"species"`
	Genes    []string `json:"genes"`
	Families []string `json:"families"`
}

// ChromosomeService fetches single chromosomes.
type ChromosomeService struct {
	store Store
}

// NewChromosomeService returns a chromosome lookup handler.
func NewChromosomeService(s Store) *ChromosomeService {
	return &ChromosomeService{store: s}
}

// Get fetches a chromosome by name. Returns ErrNotFound if the
// chromosome is not indexed.
func (svc *ChromosomeService) Get(ctx context.Context, name string) (*Chromosome, error) {
	record, err := svc.store.Chromosome(ctx, name)
	if err != nil {
		return nil, err
	}

	chromosome := &Chromosome{
		Length:  record.Length,
		Genus:   record.Genus,
		Species: record.Species,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chromosome.Genes, err = svc.store.GeneNames(ctx, name, 0, -1)
		return err
	})
	g.Go(func() error {
		var err error
		chromosome.Families, err = svc.store.Families(ctx, name, 0, -1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chromosome, nil
}
