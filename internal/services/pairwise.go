package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/syntenic/services/internal/metrics"
	"github.com/syntenic/services/internal/synteny"
)

// Block is a macro-synteny block on one target chromosome. I and J are
// the query start and stop indices, Fmin and Fmax bracket the block on
// the target in base pairs, and Orientation is "+" or "-".
type Block struct {
	I               int       `json:"i"`
	J               int       `json:"j"`
	Fmin            int64     `json:"fmin"`
	Fmax            int64     `json:"fmax"`
	Orientation     string    `json:"orientation"`
	OptionalMetrics []float64 `json:"optionalMetrics,omitempty"`
}

// PairwiseParams are the thresholds of a pairwise block computation.
// Matched and Intermediate are required and positive; Mask < 1 means
// unmasked; MinGenes and MinLength are optional floors on the target's
// gene count and physical length.
type PairwiseParams struct {
	Matched      int
	Intermediate int
	Mask         int
	Metrics      []string
	MinGenes     int
	MinLength    int64
}

// Validate checks the parameter values.
func (p PairwiseParams) Validate() error {
	if p.Matched <= 0 || p.Intermediate <= 0 {
		return fmt.Errorf("matched and intermediate must be positive: %w", ErrInvalidArgument)
	}
	if err := metrics.Validate(p.Metrics); err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidArgument)
	}
	return nil
}

// PairwiseBlocks computes macro-synteny blocks between a query family
// string and one target chromosome.
type PairwiseBlocks struct {
	store Store
}

// NewPairwiseBlocks returns a pairwise block computation handler.
func NewPairwiseBlocks(s Store) *PairwiseBlocks {
	return &PairwiseBlocks{store: s}
}

// Compute chains matched family pairs between the query and the target
// chromosome into maximal forward and reverse blocks. A missing target
// or an unmet floor yields an empty result, not an error. Blocks come
// out in traceback order: forward first, then reverse, each by
// decreasing score.
func (svc *PairwiseBlocks) Compute(ctx context.Context, query []string, target string, p PairwiseParams) ([]Block, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	record, err := svc.store.Chromosome(ctx, target)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	geneCount, err := svc.store.GeneCount(ctx, target)
	if err != nil {
		return nil, err
	}
	// not enough genes to build a single qualifying block
	if geneCount < p.Matched {
		return nil, nil
	}
	if p.MinGenes > 0 && geneCount < p.MinGenes {
		return nil, nil
	}
	if p.MinLength > 0 && record.Length < p.MinLength {
		return nil, nil
	}

	targetFamilies, err := svc.store.Families(ctx, target, 0, -1)
	if err != nil {
		return nil, err
	}

	pairs, masked := synteny.IndexPairs(query, targetFamilies, p.Mask)
	if len(pairs) < p.Matched {
		return nil, nil
	}

	indexBlocks := synteny.Chain(pairs, p.Matched, p.Intermediate)
	if len(indexBlocks) == 0 {
		return nil, nil
	}

	// one pipelined read for every block endpoint location
	endpoints := make([]int, 0, 2*len(indexBlocks))
	for _, b := range indexBlocks {
		endpoints = append(endpoints, b.Begin.T, b.End.T)
	}
	locations, err := svc.store.Locations(ctx, target, endpoints)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, len(indexBlocks))
	for k, b := range indexBlocks {
		begin, end := locations[2*k], locations[2*k+1]
		block := Block{
			Fmin: min(begin.Fmin, begin.Fmax),
			Fmax: max(end.Fmin, end.Fmax),
		}
		if b.Begin.Q < b.End.Q {
			block.I, block.J, block.Orientation = b.Begin.Q, b.End.Q, "+"
		} else {
			block.I, block.J, block.Orientation = b.End.Q, b.Begin.Q, "-"
		}
		if len(p.Metrics) > 0 {
			values, err := blockMetrics(query, targetFamilies, b, block, masked, p.Metrics)
			if err != nil {
				return nil, err
			}
			block.OptionalMetrics = values
		}
		blocks[k] = block
	}
	return blocks, nil
}

// blockMetrics computes the requested metrics over the block's family
// substrings with masked families removed and the target slice reversed
// for reverse blocks.
func blockMetrics(query, target []string, indexBlock synteny.IndexBlock, block Block, masked map[string]bool, requests []string) ([]float64, error) {
	querySlice := filterFamilies(query[block.I:block.J+1], masked)
	targetSlice := filterFamilies(target[indexBlock.Begin.T:indexBlock.End.T+1], masked)
	if block.Orientation == "-" {
		for i, j := 0, len(targetSlice)-1; i < j; i, j = i+1, j-1 {
			targetSlice[i], targetSlice[j] = targetSlice[j], targetSlice[i]
		}
	}

	values := make([]float64, len(requests))
	for i, request := range requests {
		value, err := metrics.Compute(request, querySlice, targetSlice)
		if err != nil {
			return nil, fmt.Errorf("compute metric %q: %w", request, err)
		}
		values[i] = value
	}
	return values, nil
}

func filterFamilies(families []string, masked map[string]bool) []string {
	kept := make([]string, 0, len(families))
	for _, f := range families {
		if !masked[f] {
			kept = append(kept, f)
		}
	}
	return kept
}
