package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// jaccardMetric computes the Jaccard distance 1 - |A∩B|/|A∪B| over the
// n-grams of the two family sequences. Parameters, in order: n (default
// 1), reversals (default false; a gram and its reverse share an id),
// multiset (default false; counting semantics instead of set semantics).
func jaccardMetric(a, b []string, args []string) (float64, error) {
	n := 1
	reversals := false
	multiset := false

	if len(args) > 3 {
		return 0, fmt.Errorf("jaccard takes at most 3 parameters, got %d", len(args))
	}
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return 0, fmt.Errorf("jaccard n must be a positive integer, got %q", args[0])
		}
		n = v
	}
	if len(args) > 1 {
		v, err := strconv.ParseBool(args[1])
		if err != nil {
			return 0, fmt.Errorf("jaccard reversals must be a boolean, got %q", args[1])
		}
		reversals = v
	}
	if len(args) > 2 {
		v, err := strconv.ParseBool(args[2])
		if err != nil {
			return 0, fmt.Errorf("jaccard multiset must be a boolean, got %q", args[2])
		}
		multiset = v
	}

	return jaccard(a, b, n, reversals, multiset), nil
}

func jaccard(a, b []string, n int, reversals, multiset bool) float64 {
	if n > len(a) || n > len(b) {
		return 1
	}

	na := nGrams(a, n)
	nb := nGrams(b, n)

	// assign each distinct gram an id; with reversals a gram and its
	// reverse collapse to one id
	ids := make(map[string]int)
	next := 0
	gramID := func(g []string) int {
		key := strings.Join(g, "\x00")
		if id, ok := ids[key]; ok {
			return id
		}
		if reversals {
			rkey := strings.Join(reversed(g), "\x00")
			if id, ok := ids[rkey]; ok {
				ids[key] = id
				return id
			}
		}
		ids[key] = next
		next++
		return ids[key]
	}

	ca := make(map[int]int)
	for _, g := range na {
		ca[gramID(g)]++
	}
	cb := make(map[int]int)
	for _, g := range nb {
		cb[gramID(g)]++
	}

	var intersection, union int
	if multiset {
		for id, count := range ca {
			intersection += min(count, cb[id])
			union += max(count, cb[id])
		}
		for id, count := range cb {
			if _, ok := ca[id]; !ok {
				union += count
			}
		}
	} else {
		for id := range ca {
			if _, ok := cb[id]; ok {
				intersection++
			}
		}
		union = len(ca) + len(cb) - intersection
	}

	return 1 - float64(intersection)/float64(union)
}

func nGrams(s []string, n int) [][]string {
	grams := make([][]string, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		grams = append(grams, s[i:i+n])
	}
	return grams
}

func reversed(g []string) []string {
	r := make([]string, len(g))
	for i, v := range g {
		r[len(g)-1-i] = v
	}
	return r
}
