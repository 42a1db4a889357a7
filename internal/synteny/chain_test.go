package synteny

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fams(s ...string) []string { return s }

func chainFamilies(t *testing.T, query, target []string, matched, intermediate, mask int) []IndexBlock {
	t.Helper()
	pairs, _ := IndexPairs(query, target, mask)
	return Chain(pairs, matched, intermediate)
}

func TestChain_IdenticalChromosomes(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "B", "C", "D"),
		fams("A", "B", "C", "D"),
		4, 5, 0)

	require.Len(t, blocks, 1)
	assert.Equal(t, Pair{T: 0, Q: 0}, blocks[0].Begin)
	assert.Equal(t, Pair{T: 3, Q: 3}, blocks[0].End)
	// forward orientation: query indices increase
	assert.Less(t, blocks[0].Begin.Q, blocks[0].End.Q)
}

func TestChain_ReversedChromosome(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "B", "C", "D"),
		fams("D", "C", "B", "A"),
		4, 5, 0)

	require.Len(t, blocks, 1)
	// reverse orientation: target increases, query decreases
	assert.Equal(t, Pair{T: 0, Q: 3}, blocks[0].Begin)
	assert.Equal(t, Pair{T: 3, Q: 0}, blocks[0].End)
}

func TestChain_InterveningGenesWithinGap(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "B", "C", "D"),
		fams("A", "X", "B", "X", "C", "X", "D"),
		4, 2, 0)

	require.Len(t, blocks, 1)
	assert.Equal(t, Pair{T: 0, Q: 0}, blocks[0].Begin)
	assert.Equal(t, Pair{T: 6, Q: 3}, blocks[0].End)
}

func TestChain_GapTooLarge(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "B", "C", "D"),
		fams("A", "X", "X", "X", "B", "C", "D"),
		4, 2, 0)

	assert.Empty(t, blocks)
}

func TestChain_MaskSuppressesRepeatedFamily(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "A", "B", "C"),
		fams("A", "A", "B", "C"),
		3, 2, 1)

	assert.Empty(t, blocks)
}

func TestChain_MatchedBelowThreshold(t *testing.T) {
	blocks := chainFamilies(t,
		fams("A", "B"),
		fams("A", "B"),
		3, 5, 0)

	assert.Empty(t, blocks)
}

func TestChain_OrientationExclusive(t *testing.T) {
	// a palindromic-ish target produces forward and reverse candidates,
	// but no single block may appear in both orientations
	query := fams("A", "B", "C", "B", "A")
	target := fams("A", "B", "C", "B", "A")
	pairs, _ := IndexPairs(query, target, 0)
	blocks := Chain(pairs, 3, 3)

	seen := make(map[IndexBlock]int)
	for _, b := range blocks {
		seen[b]++
	}
	for b, count := range seen {
		assert.Equal(t, 1, count, "block %v emitted more than once", b)
	}
}

func TestChain_DestructiveTracebackSuppressesSuffixes(t *testing.T) {
	// two copies of the query run on the target; the second, shorter
	// overlap shares a suffix with the first and must not re-emit it
	blocks := chainFamilies(t,
		fams("A", "B", "C", "D", "E"),
		fams("A", "B", "C", "D", "E"),
		2, 5, 0)

	require.Len(t, blocks, 1)
	assert.Equal(t, Pair{T: 0, Q: 0}, blocks[0].Begin)
	assert.Equal(t, Pair{T: 4, Q: 4}, blocks[0].End)
}

func TestChain_DiagonalTieBreak(t *testing.T) {
	// successive copies of the same family: the forward recurrence prefers
	// the diagonal predecessor on score ties so the trivial block stays
	// anchored at consecutive copies
	query := fams("A", "A", "A")
	target := fams("A", "A", "A")
	pairs, _ := IndexPairs(query, target, 0)
	blocks := Chain(pairs, 3, 1)

	require.NotEmpty(t, blocks)
	diag := false
	for _, b := range blocks {
		if b.Begin == (Pair{T: 0, Q: 0}) && b.End == (Pair{T: 2, Q: 2}) {
			diag = true
		}
	}
	assert.True(t, diag, "expected the diagonal block among %v", blocks)
}

func TestChain_ForwardBeforeReverse(t *testing.T) {
	query := fams("A", "B", "C", "X", "C", "B", "A")
	target := fams("A", "B", "C")
	pairs, _ := IndexPairs(query, target, 0)
	blocks := Chain(pairs, 3, 3)

	require.Len(t, blocks, 2)
	assert.Less(t, blocks[0].Begin.Q, blocks[0].End.Q, "first block should be forward")
	assert.Greater(t, blocks[1].Begin.Q, blocks[1].End.Q, "second block should be reverse")
}

func TestChain_Deterministic(t *testing.T) {
	query := fams("A", "B", "A", "C", "B", "D", "C", "E")
	target := fams("C", "A", "B", "D", "A", "C", "E", "B")
	pairs, _ := IndexPairs(query, target, 0)

	first := Chain(pairs, 2, 3)
	for range 10 {
		p, _ := IndexPairs(query, target, 0)
		assert.Equal(t, first, Chain(p, 2, 3))
	}
}

func TestChain_GapBoundOnChains(t *testing.T) {
	// reconstructing chains isn't exposed, but endpoint spans bound the
	// per-step gaps: a block spanning further than (matched-1)*intermediate
	// in either coordinate would need an over-gap step
	query := fams("A", "B", "C", "D")
	target := fams("A", "B", "C", "D")
	pairs, _ := IndexPairs(query, target, 0)
	intermediate := 2
	matched := 2
	for _, b := range Chain(pairs, matched, intermediate) {
		score := b.End.T - b.Begin.T + 1
		assert.LessOrEqual(t, b.End.T-b.Begin.T, (score-1)*intermediate)
	}
}

func TestIndexPairs_Ordering(t *testing.T) {
	pairs, _ := IndexPairs(fams("A", "B", "A"), fams("B", "A", "A"), 0)
	require.Equal(t, []Pair{
		{T: 0, Q: 1},
		{T: 1, Q: 0},
		{T: 1, Q: 2},
		{T: 2, Q: 0},
		{T: 2, Q: 2},
	}, pairs)
}

func TestIndexPairs_OrphansNeverMatch(t *testing.T) {
	pairs, masked := IndexPairs(fams("", "A"), fams("", "A", ""), 0)
	assert.Equal(t, []Pair{{T: 1, Q: 1}}, pairs)
	assert.True(t, masked[Orphan])
}

func TestIndexPairs_QueryMaskRecorded(t *testing.T) {
	pairs, masked := IndexPairs(fams("A", "A", "B"), fams("A", "B"), 1)
	assert.Equal(t, []Pair{{T: 1, Q: 2}}, pairs)
	assert.True(t, masked["A"])
	assert.False(t, masked["B"])
}

func TestIndexPairs_TargetMaskDropsPairs(t *testing.T) {
	pairs, masked := IndexPairs(fams("A", "B"), fams("A", "A", "B"), 1)
	assert.Equal(t, []Pair{{T: 2, Q: 1}}, pairs)
	// target-side multiplicity drops pairs but is not recorded as masked
	assert.False(t, masked["A"])
}
