package services

import "context"

// ChromosomeSearch fuzzy-matches chromosome names.
type ChromosomeSearch struct {
	store Store
}

// NewChromosomeSearch returns a chromosome name search handler.
func NewChromosomeSearch(s Store) *ChromosomeSearch {
	return &ChromosomeSearch{store: s}
}

// Search returns the names of chromosomes matching the free-text query.
// An empty result is a valid response, never an error.
func (svc *ChromosomeSearch) Search(ctx context.Context, query string) ([]string, error) {
	return svc.store.SearchChromosomeNames(ctx, query)
}

// GeneSearch fuzzy-matches gene names.
type GeneSearch struct {
	store Store
}

// NewGeneSearch returns a gene name search handler.
func NewGeneSearch(s Store) *GeneSearch {
	return &GeneSearch{store: s}
}

// Search returns the names of genes matching the free-text query. An
// empty result is a valid response, never an error.
func (svc *GeneSearch) Search(ctx context.Context, query string) ([]string, error) {
	return svc.store.SearchGeneNames(ctx, query)
}
