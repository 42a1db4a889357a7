package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchFixture() *fakeStore {
	fs := newFakeStore()
	fs.addChromosome("Chr01", "Glycine", "max", 10000000, []string{"a", "b", "c"})
	return fs
}

func newSearch(fs *fakeStore) *SearchService {
	return NewSearchService(NewGeneSearch(fs), NewChromosomeSearch(fs), NewRegionService(fs))
}

func TestSearchService_RegionQuery(t *testing.T) {
	svc := newSearch(searchFixture())

	result, err := svc.Search(context.Background(), "Chr01:1001-2501")
	require.NoError(t, err)

	assert.Empty(t, result.Genes)
	require.Len(t, result.Regions, 1)
	assert.Equal(t, SearchRegion{Chromosome: "Chr01", Start: 1001, Stop: 2501}, result.Regions[0])
}

func TestSearchService_RegionQueryDotDot(t *testing.T) {
	svc := newSearch(searchFixture())

	result, err := svc.Search(context.Background(), "Chr01:1001..2501")
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	assert.Equal(t, int64(1001), result.Regions[0].Start)
}

func TestSearchService_RegionUnknownChromosome(t *testing.T) {
	svc := newSearch(searchFixture())

	result, err := svc.Search(context.Background(), "nope:1-100")
	require.NoError(t, err)
	assert.Empty(t, result.Regions)
	assert.Empty(t, result.Genes)
}

func TestSearchService_NameQuery(t *testing.T) {
	svc := newSearch(searchFixture())

	result, err := svc.Search(context.Background(), "chr01")
	require.NoError(t, err)

	assert.Equal(t, []string{"Chr01-gene-0", "Chr01-gene-1", "Chr01-gene-2"}, result.Genes)
	require.Len(t, result.Regions, 1)
	// a chromosome-name match names the whole chromosome, no interval
	assert.Equal(t, SearchRegion{Chromosome: "Chr01"}, result.Regions[0])
}

func TestSearchService_InvertedRegionFallsBackToNames(t *testing.T) {
	svc := newSearch(searchFixture())

	// start > stop does not count as a region query
	result, err := svc.Search(context.Background(), "Chr01:500-100")
	require.NoError(t, err)
	assert.Empty(t, result.Regions)
	assert.Empty(t, result.Genes)
}

func TestSearchService_FailedDispatchIsOmitted(t *testing.T) {
	fs := searchFixture()
	fs.errs["SearchGeneNames"] = errors.New("index offline")
	svc := newSearch(fs)

	result, err := svc.Search(context.Background(), "chr01")
	require.NoError(t, err, "a failed dispatch must not fail the search")

	assert.Empty(t, result.Genes)
	require.Len(t, result.Regions, 1)
	assert.Equal(t, "Chr01", result.Regions[0].Chromosome)
}

func TestParseRegionQuery(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"Chr01:1-100", true},
		{"Chr01:1..100", true},
		{"scaffold_12.1:5-5", true},
		{"Chr01:100-1", false},
		{"Chr01:1-", false},
		{"Chr01", false},
		{"Chr01:a-b", false},
		{"", false},
	}
	for _, tt := range tests {
		_, _, _, ok := parseRegionQuery(tt.query)
		assert.Equal(t, tt.ok, ok, tt.query)
	}
}
