package synteny

import "sort"

// IndexBlock is a maximal chain of matched pairs. Begin and End are the
// first and last pairs on the chain; for forward blocks the query indices
// increase from Begin to End, for reverse blocks they decrease. Target
// indices always increase.
type IndexBlock struct {
	Begin Pair
	End   Pair
}

// chainState holds one orientation's recurrence state, indexed by pair
// position. pred is -1 for pairs with no predecessor; traceback consumes
// links by resetting them to -1.
type chainState struct {
	score []int
	pred  []int
	// path ends in recurrence order; traceback sorts them by score
	ends []int
}

func newChainState(n int) *chainState {
	s := &chainState{
		score: make([]int, n),
		pred:  make([]int, n),
		ends:  make([]int, 0, n),
	}
	for i := range s.pred {
		s.pred[i] = -1
	}
	return s
}

// Chain treats the ordered pair list as a DAG and computes maximal
// forward- and reverse-oriented chains using a recurrence similar to that
// of DAGchainer. Pairs on a chain must be within intermediate of each
// other in both target and query coordinates, and a chain must contain at
// least matched pairs to be emitted. Forward blocks are emitted first,
// then reverse; within each orientation blocks come out in decreasing
// score order.
func Chain(pairs []Pair, matched, intermediate int) []IndexBlock {
	n := len(pairs)
	fwd := newChainState(n)
	rev := newChainState(n)

	for k, p1 := range pairs {
		fwd.score[k] = 1
		rev.score[k] = 1
		// iterate preceding pairs from closest to furthest; pairs are in
		// lexicographic order so p1.T - p2.T is non-negative
		for j := k - 1; j >= 0; j-- {
			p2 := pairs[j]
			d1 := p1.T - p2.T
			if p2.Q < p1.Q {
				d2 := p1.Q - p2.Q
				if d1 <= intermediate && d2 <= intermediate {
					s := fwd.score[j] + 1
					// the diagonal tie-break keeps trivial blocks anchored at
					// successive copies of the same family
					if s > fwd.score[k] || (s == fwd.score[k] && p2.T == p2.Q) {
						fwd.score[k] = s
						fwd.pred[k] = j
					}
				}
			} else if p2.Q > p1.Q {
				d2 := p2.Q - p1.Q
				if d1 <= intermediate && d2 <= intermediate {
					s := rev.score[j] + 1
					if s > rev.score[k] {
						rev.score[k] = s
						rev.pred[k] = j
					}
				}
			}
			// every remaining pair is at least this far away in the target
			if d1 > intermediate {
				break
			}
		}
		fwd.ends = append(fwd.ends, k)
		rev.ends = append(rev.ends, k)
	}

	blocks := traceback(pairs, fwd, matched)
	return append(blocks, traceback(pairs, rev, matched)...)
}

// traceback greedily walks predecessor chains from the highest-scoring
// path ends, consuming each link as it goes so that suffixes of an
// already-emitted block cannot re-emit it.
func traceback(pairs []Pair, st *chainState, matched int) []IndexBlock {
	ends := st.ends
	// highest score first; ties broken by descending pair order
	sort.Slice(ends, func(a, b int) bool {
		if st.score[ends[a]] != st.score[ends[b]] {
			return st.score[ends[a]] > st.score[ends[b]]
		}
		pa, pb := pairs[ends[a]], pairs[ends[b]]
		if pa.T != pb.T {
			return pa.T > pb.T
		}
		return pa.Q > pb.Q
	})

	var blocks []IndexBlock
	for _, end := range ends {
		// singletons and consumed ends have no link left to follow
		if st.pred[end] == -1 {
			continue
		}
		if st.score[end] < matched {
			// ends are score-sorted; nothing after this can qualify
			break
		}
		begin := end
		for st.pred[begin] != -1 {
			next := st.pred[begin]
			st.pred[begin] = -1
			begin = next
		}
		if st.score[end]-st.score[begin]+1 >= matched {
			blocks = append(blocks, IndexBlock{Begin: pairs[begin], End: pairs[end]})
		}
	}
	return blocks
}
