package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/syntenic/services/internal/synteny"
)

// defaultFanOutLimit bounds how many pairwise computations a single
// fan-out request runs at once.
const defaultFanOutLimit = 8

// ChromosomeBlocks are the blocks found on one target chromosome,
// enriched with the target's organism.
type ChromosomeBlocks struct {
	Chromosome string  `json:"chromosome"`
	Genus      string  `json:"genus"`
	Species    string  `json:"species"`
	Blocks     []Block `json:"blocks"`
}

// MacroParams are the thresholds of a macro-synteny fan-out. Targets
// optionally restricts the computation to explicit chromosomes.
type MacroParams struct {
	Matched      int
	Intermediate int
	Mask         int
	Targets      []string
	Metrics      []string
	MinGenes     int
	MinLength    int64
}

func (p MacroParams) pairwise() PairwiseParams {
	return PairwiseParams{
		Matched:      p.Matched,
		Intermediate: p.Intermediate,
		Mask:         p.Mask,
		Metrics:      p.Metrics,
		MinGenes:     p.MinGenes,
		MinLength:    p.MinLength,
	}
}

// PairwiseComputer computes the blocks between a query family string and
// one target chromosome. *PairwiseBlocks implements it in process; a
// remote client can stand in without the fan-out noticing.
type PairwiseComputer interface {
	Compute(ctx context.Context, query []string, target string, p PairwiseParams) ([]Block, error)
}

// MacroSyntenyBlocks fans a query out to every candidate target
// chromosome and assembles the surviving results.
type MacroSyntenyBlocks struct {
	store    Store
	pairwise PairwiseComputer
	logger   *zap.Logger
	limit    int64
}

// NewMacroSyntenyBlocks returns a macro-synteny fan-out handler.
func NewMacroSyntenyBlocks(s Store, pairwise PairwiseComputer) *MacroSyntenyBlocks {
	return &MacroSyntenyBlocks{
		store:    s,
		pairwise: pairwise,
		logger:   zap.NewNop(),
		limit:    defaultFanOutLimit,
	}
}

// SetLogger replaces the handler's logger.
func (svc *MacroSyntenyBlocks) SetLogger(l *zap.Logger) {
	svc.logger = l
}

// SetFanOutLimit bounds the number of concurrent pairwise computations.
func (svc *MacroSyntenyBlocks) SetFanOutLimit(n int) {
	if n > 0 {
		svc.limit = int64(n)
	}
}

// Compute selects candidate targets by walking the query's family
// matches, computes pairwise blocks against each candidate
// concurrently, and enriches the survivors with their organism. A
// failed target is logged and omitted; it never fails the fan-out.
// Result order is unspecified.
func (svc *MacroSyntenyBlocks) Compute(ctx context.Context, query []string, p MacroParams) ([]ChromosomeBlocks, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query must be non-empty: %w", ErrInvalidArgument)
	}
	if err := p.pairwise().Validate(); err != nil {
		return nil, err
	}

	candidates, err := svc.candidateTargets(ctx, query, p)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(svc.limit)
	var (
		mu      sync.Mutex
		results []ChromosomeBlocks
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range candidates {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			result, err := svc.computeTarget(gctx, query, target, p)
			if err != nil {
				// isolate the failure: log and omit the target
				svc.logger.Error("pairwise computation failed",
					zap.String("target", target),
					zap.Error(err))
				return nil
			}
			if result != nil {
				mu.Lock()
				results = append(results, *result)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// candidateTargets finds the chromosomes worth a pairwise computation: a
// chromosome qualifies if a greedy walk over its query-family matches
// yields at least one block under the same thresholds. Chromosomes with
// fewer matches than matched are discarded without walking.
func (svc *MacroSyntenyBlocks) candidateTargets(ctx context.Context, query []string, p MacroParams) ([]string, error) {
	families := make(map[string]bool)
	for _, f := range query {
		if f != synteny.Orphan {
			families[f] = true
		}
	}

	matchIndices := make(map[string][]int)
	for family := range families {
		positions, err := svc.store.FamilyPositions(ctx, family, p.Targets)
		if err != nil {
			return nil, err
		}
		for _, pos := range positions {
			matchIndices[pos.Chromosome] = append(matchIndices[pos.Chromosome], pos.Index)
		}
	}

	var candidates []string
	for chromosome, indices := range matchIndices {
		if len(indices) < p.Matched {
			continue
		}
		sort.Ints(indices)
		runs := synteny.GapWalk(indices, len(query), float64(p.Matched), float64(p.Intermediate))
		if len(runs) > 0 {
			candidates = append(candidates, chromosome)
		}
	}
	return candidates, nil
}

func (svc *MacroSyntenyBlocks) computeTarget(ctx context.Context, query []string, target string, p MacroParams) (*ChromosomeBlocks, error) {
	blocks, err := svc.pairwise.Compute(ctx, query, target, p.pairwise())
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	record, err := svc.store.Chromosome(ctx, target)
	if err != nil {
		return nil, err
	}
	return &ChromosomeBlocks{
		Chromosome: target,
		Genus:      record.Genus,
		Species:    record.Species,
		Blocks:     blocks,
	}, nil
}
