package synteny

// Run is a run of match indices on one chromosome produced by GapWalk.
// First and Last are the gene indices of the run's endpoints and Matches
// is how many matches the run contains.
type Run struct {
	First   int
	Last    int
	Matches int
}

// GapWalk greedily groups sorted match indices into runs. matched and
// intermediate follow the dual convention: a value >= 1 is an absolute
// count, a value in (0, 1) is a fraction of queryLen. A run is extended
// while the gap to the next match stays within intermediate (an absolute
// intermediate of g allows at most g-1 intervening genes) and is kept
// only if its size satisfies matched. The indices must be sorted
// ascending.
func GapWalk(indices []int, queryLen int, matched, intermediate float64) []Run {
	if len(indices) == 0 {
		return nil
	}

	gapOK := func(gap int) bool {
		if intermediate < 1 {
			return float64(gap)/float64(queryLen) <= intermediate
		}
		return float64(gap) <= intermediate-1
	}
	sizeOK := func(size int) bool {
		if matched < 1 {
			return float64(size)/float64(queryLen) >= matched
		}
		return float64(size) >= matched
	}

	var runs []Run
	run := Run{First: indices[0], Last: indices[0], Matches: 1}
	for _, i := range indices[1:] {
		if gapOK(i - run.Last) {
			run.Last = i
			run.Matches++
			continue
		}
		if sizeOK(run.Matches) {
			runs = append(runs, run)
		}
		run = Run{First: i, Last: i, Matches: 1}
	}
	if sizeOK(run.Matches) {
		runs = append(runs, run)
	}
	return runs
}
