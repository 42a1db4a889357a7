package services

import "context"

// Gene is a gene record as returned by the batch fetch. Family is the
// empty string for genes with no family assignment.
type Gene struct {
	Name       string `json:"name"`
	Chromosome string `json:"chromosome"`
	Family     string `json:"family"`
	Fmin       int64  `json:"fmin"`
	Fmax       int64  `json:"fmax"`
	Strand     int    `json:"strand"`
}

// GeneService fetches gene records in batches.
type GeneService struct {
	store Store
}

// NewGeneService returns a gene batch fetch handler.
func NewGeneService(s Store) *GeneService {
	return &GeneService{store: s}
}

// Get returns the records of the named genes. Names with no record are
// silently omitted.
func (svc *GeneService) Get(ctx context.Context, names []string) ([]Gene, error) {
	records, err := svc.store.Genes(ctx, names)
	if err != nil {
		return nil, err
	}
	genes := make([]Gene, len(records))
	for i, r := range records {
		genes[i] = Gene{
			Name:       r.Name,
			Chromosome: r.Chromosome,
			Family:     r.Family,
			Fmin:       r.Fmin,
			Fmax:       r.Fmax,
			Strand:     r.Strand,
		}
	}
	return genes, nil
}
