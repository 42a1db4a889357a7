package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syntenic/services/internal/synteny"
)

// Track is a run of genes on one chromosome whose families are colinear
// with a micro-synteny query.
type Track struct {
	Name     string   `json:"name"`
	Genus    string   `json:"genus"`
	Species  string   `json:"species"`
	Genes    []string `json:"genes"`
	Families []string `json:"families"`
}

// MicroSyntenySearch finds colinear gene runs across all indexed
// chromosomes.
type MicroSyntenySearch struct {
	store Store
}

// NewMicroSyntenySearch returns a micro-synteny search handler.
func NewMicroSyntenySearch(s Store) *MicroSyntenySearch {
	return &MicroSyntenySearch{store: s}
}

// Search enumerates runs of genes whose families match the query under
// the matched and intermediate thresholds. Both thresholds follow the
// dual convention: >= 1 is an absolute count, in (0, 1) a fraction of
// the query length. Track order is unspecified.
func (svc *MicroSyntenySearch) Search(ctx context.Context, query []string, matched, intermediate float64) ([]Track, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query must be non-empty: %w", ErrInvalidArgument)
	}
	if matched <= 0 || intermediate <= 0 {
		return nil, fmt.Errorf("matched and intermediate must be positive: %w", ErrInvalidArgument)
	}

	matchIndices, err := svc.familyMatchIndices(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		tracks []Track
	)
	g, gctx := errgroup.WithContext(ctx)
	for chromosome, indices := range matchIndices {
		sort.Ints(indices)
		runs := synteny.GapWalk(indices, len(query), matched, intermediate)
		for _, run := range runs {
			g.Go(func() error {
				track, err := svc.runToTrack(gctx, chromosome, run)
				if err != nil {
					return err
				}
				mu.Lock()
				tracks = append(tracks, track)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// familyMatchIndices retrieves the gene indices of every gene belonging
// to one of the query's families, binned by chromosome.
func (svc *MicroSyntenySearch) familyMatchIndices(ctx context.Context, query []string) (map[string][]int, error) {
	families := make(map[string]bool)
	for _, f := range query {
		if f != synteny.Orphan {
			families[f] = true
		}
	}

	matchIndices := make(map[string][]int)
	for family := range families {
		positions, err := svc.store.FamilyPositions(ctx, family, nil)
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			matchIndices[p.Chromosome] = append(matchIndices[p.Chromosome], p.Index)
		}
	}
	return matchIndices, nil
}

func (svc *MicroSyntenySearch) runToTrack(ctx context.Context, chromosome string, run synteny.Run) (Track, error) {
	record, err := svc.store.Chromosome(ctx, chromosome)
	if err != nil {
		return Track{}, err
	}
	track := Track{
		Name:    record.Name,
		Genus:   record.Genus,
		Species: record.Species,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		track.Genes, err = svc.store.GeneNames(gctx, chromosome, int64(run.First), int64(run.Last))
		return err
	})
	g.Go(func() error {
		var err error
		track.Families, err = svc.store.Families(gctx, chromosome, int64(run.First), int64(run.Last))
		return err
	})
	if err := g.Wait(); err != nil {
		return Track{}, err
	}
	return track, nil
}
