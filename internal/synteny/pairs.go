// Package synteny implements the collinearity algorithms shared by the
// micro-synteny and macro-synteny services: matched-pair generation with
// family masking, a DAGchainer-style chaining recurrence, and the greedy
// gap walk used to group matches into runs.
package synteny

// Orphan is the reserved family identifier meaning "no family assigned".
// Orphan genes never match anything, including each other.
const Orphan = ""

// Pair couples a target chromosome gene index (T) with a query gene
// index (Q) whose genes belong to the same family.
type Pair struct {
	T int
	Q int
}

// IndexPairs computes a Pair for every (target, query) index combination
// whose genes share a family, subject to the mask: a family occurring more
// than mask times on either chromosome contributes no pairs. A mask < 1
// means unmasked. The returned pairs are ordered lexicographically by
// target index then query index. The second return value is the set of
// families masked on the query side (the orphan family is always a
// member), which callers use to filter family slices before computing
// metrics.
func IndexPairs(query, target []string, mask int) ([]Pair, map[string]bool) {
	unlimited := mask < 1

	// map query families to the indices they occur at
	queryIndices := make(map[string][]int)
	masked := map[string]bool{Orphan: true}
	for i, f := range query {
		if f == Orphan {
			continue
		}
		queryIndices[f] = append(queryIndices[f], i)
		if !unlimited && len(queryIndices[f]) > mask {
			masked[f] = true
		}
	}
	for f := range masked {
		delete(queryIndices, f)
	}

	targetCounts := make(map[string]int)
	for _, f := range target {
		targetCounts[f]++
	}

	var pairs []Pair
	for i, f := range target {
		if !unlimited && targetCounts[f] > mask {
			continue
		}
		for _, n := range queryIndices[f] {
			pairs = append(pairs, Pair{T: i, Q: n})
		}
	}

	return pairs, masked
}
