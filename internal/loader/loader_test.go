package loader

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syntenic/services/internal/store"
)

func newTestLoader(t *testing.T) (*Loader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	l := &Loader{
		rdb:     rdb,
		opts:    Options{LoadType: LoadTypeAppend, ChunkSize: 2, NoSave: true},
		logger:  zap.NewNop(),
		pending: make(map[string]chromosomeRecord),
	}
	return l, mr
}

func TestIndexChromosomeGenes(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLoader(t)

	require.NoError(t, l.IndexChromosome(ctx, "Chr01", 50000, "Glycine", "max"))
	// deliberately unsorted: indices follow fmin order, not input order
	genes := []Gene{
		{Name: "g2", Fmin: 3000, Fmax: 4000, Strand: -1, Family: "fam2"},
		{Name: "g1", Fmin: 1000, Fmax: 2000, Strand: 1, Family: "fam1"},
		{Name: "g3", Fmin: 5000, Fmax: 6000, Strand: 0, Family: ""},
	}
	require.NoError(t, l.IndexChromosomeGenes(ctx, "Chr01", genes))

	assert.Equal(t, "50000", mr.HGet(store.ChromosomeKey("Chr01"), "length"))
	assert.Equal(t, "Glycine", mr.HGet(store.ChromosomeKey("Chr01"), "genus"))

	names, err := mr.List(store.GenesKey("Chr01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3"}, names)
	families, err := mr.List(store.FamiliesKey("Chr01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fam1", "fam2", ""}, families)
	fmins, err := mr.List(store.FminsKey("Chr01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1000", "3000", "5000"}, fmins)

	assert.Equal(t, "0", mr.HGet(store.GeneKey("g1"), "index"))
	assert.Equal(t, "2", mr.HGet(store.GeneKey("g3"), "index"))
	assert.Equal(t, "Chr01", mr.HGet(store.GeneKey("g2"), "chromosome"))
	assert.Equal(t, "-1", mr.HGet(store.GeneKey("g2"), "strand"))
}

func TestIndexChromosome_CommitsWithGeneLists(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLoader(t)

	require.NoError(t, l.IndexChromosome(ctx, "Chr01", 50000, "Glycine", "max"))
	assert.False(t, mr.Exists(store.ChromosomeKey("Chr01")),
		"a chromosome must not be visible before its gene lists")

	genes := []Gene{{Name: "g1", Fmin: 1000, Fmax: 2000, Strand: 1}}
	require.NoError(t, l.IndexChromosomeGenes(ctx, "Chr01", genes))
	assert.True(t, mr.Exists(store.ChromosomeKey("Chr01")))
	assert.True(t, mr.Exists(store.GenesKey("Chr01")))
}

func TestIndexChromosome_GenelessCommitsAtClose(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLoader(t)

	require.NoError(t, l.IndexChromosome(ctx, "Chr00", 1234, "Glycine", "max"))
	require.NoError(t, l.IndexChromosomeGenes(ctx, "Chr00", nil))
	assert.False(t, mr.Exists(store.ChromosomeKey("Chr00")))

	require.NoError(t, l.Close(ctx))
	assert.Equal(t, "Chr00", mr.HGet(store.ChromosomeKey("Chr00"), "name"))
	assert.Equal(t, "1234", mr.HGet(store.ChromosomeKey("Chr00"), "length"))
}
