package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"identical", []string{"A", "B", "C"}, []string{"A", "B", "C"}, 0},
		{"empty a", nil, []string{"A", "B"}, 2},
		{"empty b", []string{"A", "B"}, nil, 2},
		{"substitution", []string{"A", "B", "C"}, []string{"A", "X", "C"}, 1},
		{"insertion", []string{"A", "C"}, []string{"A", "B", "C"}, 1},
		{"disjoint", []string{"A", "B"}, []string{"X", "Y"}, 2},
		{"asymmetric lengths", []string{"A"}, []string{"X", "Y", "Z", "A"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, levenshtein(tt.b, tt.a))
		})
	}
}

func TestJaccard_Unigrams(t *testing.T) {
	a := []string{"A", "B", "C"}
	b := []string{"B", "C", "D"}
	// |{B,C}| / |{A,B,C,D}| = 2/4
	assert.InDelta(t, 0.5, jaccard(a, b, 1, false, false), 1e-9)
}

func TestJaccard_Identical(t *testing.T) {
	a := []string{"A", "B", "C"}
	assert.InDelta(t, 0, jaccard(a, a, 1, false, false), 1e-9)
}

func TestJaccard_ShortInput(t *testing.T) {
	assert.InDelta(t, 1, jaccard([]string{"A"}, []string{"A", "B"}, 2, false, false), 1e-9)
}

func TestJaccard_Bigrams(t *testing.T) {
	a := []string{"A", "B", "C"} // grams AB, BC
	b := []string{"B", "C", "D"} // grams BC, CD
	// |{BC}| / |{AB,BC,CD}| = 1/3
	assert.InDelta(t, 1-1.0/3, jaccard(a, b, 2, false, false), 1e-9)
}

func TestJaccard_Reversals(t *testing.T) {
	a := []string{"A", "B"} // gram AB
	b := []string{"B", "A"} // gram BA, same id as AB under reversals
	assert.InDelta(t, 1, jaccard(a, b, 2, false, false), 1e-9)
	assert.InDelta(t, 0, jaccard(a, b, 2, true, false), 1e-9)
}

func TestJaccard_Multiset(t *testing.T) {
	a := []string{"A", "A", "B"}
	b := []string{"A", "B", "B"}
	// set semantics: {A,B} on both sides
	assert.InDelta(t, 0, jaccard(a, b, 1, false, false), 1e-9)
	// counting semantics: intersection 2 (one A, one B), union 4
	assert.InDelta(t, 0.5, jaccard(a, b, 1, false, true), 1e-9)
}

func TestParse(t *testing.T) {
	name, args := Parse("jaccard:2:true")
	assert.Equal(t, "jaccard", name)
	assert.Equal(t, []string{"2", "true"}, args)

	name, args = Parse("levenshtein")
	assert.Equal(t, "levenshtein", name)
	assert.Empty(t, args)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]string{"levenshtein", "jaccard", "jaccard:2", "jaccard:1:true:true"}))
	assert.Error(t, Validate([]string{"soundex"}))
	assert.Error(t, Validate([]string{"jaccard:zero"}))
	assert.Error(t, Validate([]string{"jaccard:1:maybe"}))
	assert.Error(t, Validate([]string{"levenshtein:1"}))
}

func TestCompute(t *testing.T) {
	got, err := Compute("levenshtein", []string{"A", "B"}, []string{"A", "C"})
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-9)

	_, err = Compute("nope", nil, nil)
	assert.Error(t, err)
}
