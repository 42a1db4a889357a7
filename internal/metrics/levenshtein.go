package metrics

import "fmt"

func levenshteinMetric(a, b []string, args []string) (float64, error) {
	if len(args) != 0 {
		return 0, fmt.Errorf("levenshtein takes no parameters, got %d", len(args))
	}
	return float64(levenshtein(a, b)), nil
}

// levenshtein computes the classical edit distance between two family
// sequences using the two-row dynamic program.
func levenshtein(a, b []string) int {
	if equal(a, b) {
		return 0
	}
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	if lb > la {
		a, b = b, a
		la, lb = lb, la
	}

	cost := make([]int, lb+1)
	for j := range cost {
		cost[j] = j
	}
	for i := 1; i <= la; i++ {
		prev := cost[0] // cost[i-1][j-1]
		cost[0] = i
		for j := 1; j <= lb; j++ {
			subst := prev
			if a[i-1] != b[j-1] {
				subst++
			}
			prev = cost[j]
			cost[j] = min(prev+1, cost[j-1]+1, subst)
		}
	}
	return cost[lb]
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
