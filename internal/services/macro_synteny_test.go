package services

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func macroFixture() *fakeStore {
	fs := newFakeStore()
	fs.addChromosome("Gm01", "Glycine", "max", 1000000, []string{"A", "B", "C", "D", "E"})
	fs.addChromosome("Pv01", "Phaseolus", "vulgaris", 1000000, []string{"E", "D", "C", "B", "A"})
	// too few query-family matches to ever be a candidate
	fs.addChromosome("Mt01", "Medicago", "truncatula", 1000000, []string{"A", "X", "X", "X", "X"})
	return fs
}

func macroParams(matched, intermediate int) MacroParams {
	return MacroParams{Matched: matched, Intermediate: intermediate}
}

func TestMacroSyntenyBlocks_FanOut(t *testing.T) {
	fs := macroFixture()
	svc := NewMacroSyntenyBlocks(fs, NewPairwiseBlocks(fs))

	results, err := svc.Compute(context.Background(),
		[]string{"A", "B", "C", "D", "E"}, macroParams(3, 2))
	require.NoError(t, err)

	require.Len(t, results, 2)
	sort.Slice(results, func(i, j int) bool { return results[i].Chromosome < results[j].Chromosome })

	assert.Equal(t, "Gm01", results[0].Chromosome)
	assert.Equal(t, "Glycine", results[0].Genus)
	assert.Equal(t, "max", results[0].Species)
	require.Len(t, results[0].Blocks, 1)
	assert.Equal(t, "+", results[0].Blocks[0].Orientation)

	assert.Equal(t, "Pv01", results[1].Chromosome)
	assert.Equal(t, "Phaseolus", results[1].Genus)
	require.Len(t, results[1].Blocks, 1)
	assert.Equal(t, "-", results[1].Blocks[0].Orientation)
}

func TestMacroSyntenyBlocks_TargetRestriction(t *testing.T) {
	fs := macroFixture()
	svc := NewMacroSyntenyBlocks(fs, NewPairwiseBlocks(fs))

	p := macroParams(3, 2)
	p.Targets = []string{"Pv01"}
	results, err := svc.Compute(context.Background(),
		[]string{"A", "B", "C", "D", "E"}, p)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Pv01", results[0].Chromosome)
}

// failingComputer fails for one target and delegates the rest.
type failingComputer struct {
	inner PairwiseComputer
	bad   string
}

func (f *failingComputer) Compute(ctx context.Context, query []string, target string, p PairwiseParams) ([]Block, error) {
	if target == f.bad {
		return nil, fmt.Errorf("target %s unavailable", target)
	}
	return f.inner.Compute(ctx, query, target, p)
}

func TestMacroSyntenyBlocks_FailedTargetIsOmitted(t *testing.T) {
	fs := macroFixture()
	pairwise := &failingComputer{inner: NewPairwiseBlocks(fs), bad: "Gm01"}
	svc := NewMacroSyntenyBlocks(fs, pairwise)

	results, err := svc.Compute(context.Background(),
		[]string{"A", "B", "C", "D", "E"}, macroParams(3, 2))
	require.NoError(t, err, "one failed target must not fail the fan-out")

	require.Len(t, results, 1)
	assert.Equal(t, "Pv01", results[0].Chromosome)
}

func TestMacroSyntenyBlocks_NoCandidates(t *testing.T) {
	fs := macroFixture()
	svc := NewMacroSyntenyBlocks(fs, NewPairwiseBlocks(fs))

	results, err := svc.Compute(context.Background(),
		[]string{"Q", "R", "S"}, macroParams(3, 2))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMacroSyntenyBlocks_InvalidParams(t *testing.T) {
	fs := macroFixture()
	svc := NewMacroSyntenyBlocks(fs, NewPairwiseBlocks(fs))
	ctx := context.Background()

	_, err := svc.Compute(ctx, nil, macroParams(3, 2))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Compute(ctx, []string{"A"}, macroParams(0, 2))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
