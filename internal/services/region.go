package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RegionGene identifies the gene at the center of a chromosome interval
// and how many genes the interval overlaps in total.
type RegionGene struct {
	Gene      string `json:"gene"`
	Neighbors int    `json:"neighbors"`
}

// RegionService resolves chromosome intervals to their center gene.
type RegionService struct {
	store Store
}

// NewRegionService returns a region lookup handler.
func NewRegionService(s Store) *RegionService {
	return &RegionService{store: s}
}

// Get finds the genes a [start, stop] interval overlaps and returns the
// middle one along with the overlap count. Returns ErrNotFound if the
// chromosome is not indexed.
func (svc *RegionService) Get(ctx context.Context, chromosome string, start, stop int64) (*RegionGene, error) {
	if _, err := svc.store.Chromosome(ctx, chromosome); err != nil {
		return nil, err
	}

	var fmins, fmaxs []int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fmins, err = svc.store.Fmins(gctx, chromosome)
		return err
	})
	g.Go(func() error {
		var err error
		fmaxs, err = svc.store.Fmaxs(gctx, chromosome)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// both lists are sorted by construction; i is the first gene starting
	// at or after start, j is the first gene ending beyond stop
	i := sort.Search(len(fmins), func(k int) bool { return fmins[k] >= start })
	j := sort.Search(len(fmaxs), func(k int) bool { return fmaxs[k] > stop })

	region := &RegionGene{Neighbors: j - i}
	center := (i + j) / 2
	if center < len(fmins) {
		names, err := svc.store.GeneNames(ctx, chromosome, int64(center), int64(center))
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			region.Gene = names[0]
		}
	}
	return region, nil
}
