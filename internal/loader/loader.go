// Package loader populates the Redis/RediSearch database the services
// read from. It manages the two search indexes, writes gene records in
// pipelined chunks, and commits each chromosome's record and its four
// parallel lists in a single pipeline so readers never observe an
// indexed chromosome without its sequences.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/syntenic/services/internal/store"
)

// LoadType selects how the loader treats preexisting data.
type LoadType string

const (
	// LoadTypeNew fails if the indexes or chromosome keys already exist.
	LoadTypeNew LoadType = "new"
	// LoadTypeReload drops the indexes and all loaded keys first.
	LoadTypeReload LoadType = "reload"
	// LoadTypeAppend adds to the existing database; the stored schema
	// version must match.
	LoadTypeAppend LoadType = "append"
)

// ParseLoadType validates a load type string.
func ParseLoadType(s string) (LoadType, error) {
	switch t := LoadType(s); t {
	case LoadTypeNew, LoadTypeReload, LoadTypeAppend:
		return t, nil
	}
	return "", fmt.Errorf("invalid load type %q", s)
}

// ErrExists is returned when preexisting data is incompatible with the
// requested load type.
var ErrExists = errors.New("already exists")

// DefaultChunkSize is the pipelined write batch size.
const DefaultChunkSize = 100

// Options configures a load run.
type Options struct {
	LoadType  LoadType
	ChunkSize int
	// NoSave skips the final snapshot to disk.
	NoSave bool
}

// Gene is a gene record to be indexed. Family is the empty string for
// genes with no family assignment.
type Gene struct {
	Name   string
	Fmin   int64
	Fmax   int64
	Strand int
	Family string
}

// chromosomeRecord is a buffered chromosome hash awaiting commit.
type chromosomeRecord struct {
	name    string
	length  int64
	genus   string
	species string
}

// Loader is the write-side client over the store schema. It is not safe
// for concurrent use; the loader is the sole writer.
type Loader struct {
	rdb    *redis.Client
	opts   Options
	logger *zap.Logger
	// pending holds chromosome records until their gene lists are
	// written, so a chromosome never becomes searchable without its
	// sequences
	pending map[string]chromosomeRecord
}

// Open connects to Redis, verifies the schema version against the load
// type, and prepares the indexes. The connection is pinged first so
// authentication and network errors surface before any data is read.
func Open(ctx context.Context, conn store.Options, opts Options, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if _, err := ParseLoadType(string(opts.LoadType)); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conn.Addr(),
		Password: conn.Password,
		DB:       conn.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	l := &Loader{rdb: rdb, opts: opts, logger: logger, pending: make(map[string]chromosomeRecord)}
	if opts.LoadType == LoadTypeAppend {
		if err := l.checkAppendVersion(ctx); err != nil {
			rdb.Close()
			return nil, err
		}
	}
	if err := l.setupIndexes(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	return l, nil
}

// checkAppendVersion refuses to append to a database whose stored schema
// version this loader does not write.
func (l *Loader) checkAppendVersion(ctx context.Context) error {
	version, err := store.NewWithClient(l.rdb).StoredSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != "" && version != store.SchemaVersion {
		return fmt.Errorf("existing database has schema version %s but this loader writes version %s: %w",
			version, store.SchemaVersion, store.ErrSchemaVersion)
	}
	return nil
}

func (l *Loader) setupIndexes(ctx context.Context) error {
	chromosomeSchema := []*redis.FieldSchema{
		// text for fuzzy search; exact recovery goes through the key
		{FieldName: "name", FieldType: redis.SearchFieldTypeText},
		{FieldName: "length", FieldType: redis.SearchFieldTypeNumeric},
		// tags for the foreign keys, matched exactly
		{FieldName: "genus", FieldType: redis.SearchFieldTypeTag},
		{FieldName: "species", FieldType: redis.SearchFieldTypeTag},
	}
	if err := l.makeIndex(ctx, store.ChromosomeIndex, store.ChromosomePrefix, chromosomeSchema); err != nil {
		return err
	}
	if err := l.checkChromosomeKeys(ctx); err != nil {
		return err
	}

	geneSchema := []*redis.FieldSchema{
		{FieldName: "chromosome", FieldType: redis.SearchFieldTypeTag},
		{FieldName: "name", FieldType: redis.SearchFieldTypeText},
		{FieldName: "fmin", FieldType: redis.SearchFieldTypeNumeric},
		{FieldName: "fmax", FieldType: redis.SearchFieldTypeNumeric},
		{FieldName: "family", FieldType: redis.SearchFieldTypeTag},
		{FieldName: "strand", FieldType: redis.SearchFieldTypeNumeric},
		{FieldName: "index", FieldType: redis.SearchFieldTypeNumeric, Sortable: true},
	}
	if err := l.makeIndex(ctx, store.GeneIndex, store.GenePrefix, geneSchema); err != nil {
		return err
	}

	// stamp the schema version the data is being written under
	pipe := l.rdb.Pipeline()
	pipe.Set(ctx, store.VersionKey, store.SchemaVersion, 0)
	pipe.Del(ctx, store.CompatibleKey)
	compatible := make([]interface{}, len(store.CompatibleVersions))
	for i, v := range store.CompatibleVersions {
		compatible[i] = v
	}
	pipe.SAdd(ctx, store.CompatibleKey, compatible...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// makeIndex creates a search index, applying the load-type policy to a
// preexisting one.
func (l *Loader) makeIndex(ctx context.Context, name, prefix string, schema []*redis.FieldSchema) error {
	exists := l.rdb.FTInfo(ctx, name).Err() == nil
	if exists {
		switch l.opts.LoadType {
		case LoadTypeNew:
			return fmt.Errorf("index %q: %w", name, ErrExists)
		case LoadTypeReload:
			l.logger.Info("dropping index", zap.String("index", name))
			if err := l.rdb.FTDropIndexWithArgs(ctx, name, &redis.FTDropIndexOptions{DeleteDocs: true}).Err(); err != nil {
				return fmt.Errorf("drop index %q: %w", name, err)
			}
			exists = false
		case LoadTypeAppend:
			l.logger.Info("appending to index", zap.String("index", name))
		}
	}
	if !exists {
		l.logger.Info("creating index", zap.String("index", name))
		options := &redis.FTCreateOptions{OnHash: true, Prefix: []interface{}{prefix}}
		if err := l.rdb.FTCreate(ctx, name, options, schema...).Err(); err != nil {
			return fmt.Errorf("create index %q: %w", name, err)
		}
	}
	return nil
}

// checkChromosomeKeys applies the load-type policy to loose keys left by
// a previous load that dropping the indexes does not remove.
func (l *Loader) checkChromosomeKeys(ctx context.Context) error {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := l.rdb.Scan(ctx, cursor, store.ChromosomePrefix+"*", int64(l.opts.ChunkSize)).Result()
		if err != nil {
			return fmt.Errorf("scan chromosome keys: %w", err)
		}
		keys = append(keys, batch...)
		if cursor = next; cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}
	switch l.opts.LoadType {
	case LoadTypeNew:
		return fmt.Errorf("chromosome keys: %w", ErrExists)
	case LoadTypeReload:
		l.logger.Info("dropping chromosome keys", zap.Int("count", len(keys)))
		// delete one key per pipelined command in case there's a lot of them
		pipe := l.rdb.Pipeline()
		for _, key := range keys {
			pipe.Del(ctx, key)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("drop chromosome keys: %w", err)
		}
	}
	return nil
}

// IndexChromosome records one chromosome. The record is committed in
// the same pipeline as the chromosome's gene lists, or at Close for
// chromosomes that never receive genes.
func (l *Loader) IndexChromosome(ctx context.Context, name string, length int64, genus, species string) error {
	l.pending[name] = chromosomeRecord{
		name:    name,
		length:  length,
		genus:   genus,
		species: species,
	}
	return nil
}

func hsetChromosome(ctx context.Context, pipe redis.Pipeliner, rec chromosomeRecord) {
	pipe.HSet(ctx, store.ChromosomeKey(rec.name),
		"name", rec.name,
		"length", rec.length,
		"genus", rec.genus,
		"species", rec.species,
	)
}

// IndexChromosomeGenes writes a chromosome's gene records and its four
// parallel lists. The genes are sorted by fmin and assigned sequential
// indices; the hash writes go out in chunks and the chromosome record
// and list pushes go out in one final pipeline so the chromosome
// appears atomically with its sequences.
func (l *Loader) IndexChromosomeGenes(ctx context.Context, chromosome string, genes []Gene) error {
	if len(genes) == 0 {
		return nil
	}
	sort.SliceStable(genes, func(i, j int) bool { return genes[i].Fmin < genes[j].Fmin })

	for first := 0; first < len(genes); first += l.opts.ChunkSize {
		last := min(first+l.opts.ChunkSize, len(genes))
		pipe := l.rdb.Pipeline()
		for i, gene := range genes[first:last] {
			pipe.HSet(ctx, store.GeneKey(gene.Name),
				"chromosome", chromosome,
				"name", gene.Name,
				"fmin", gene.Fmin,
				"fmax", gene.Fmax,
				"strand", gene.Strand,
				"family", gene.Family,
				"index", first+i,
			)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("index genes of %q: %w", chromosome, err)
		}
	}

	names := make([]interface{}, len(genes))
	families := make([]interface{}, len(genes))
	fmins := make([]interface{}, len(genes))
	fmaxs := make([]interface{}, len(genes))
	for i, gene := range genes {
		names[i] = gene.Name
		families[i] = gene.Family
		fmins[i] = gene.Fmin
		fmaxs[i] = gene.Fmax
	}
	pipe := l.rdb.Pipeline()
	if rec, ok := l.pending[chromosome]; ok {
		hsetChromosome(ctx, pipe, rec)
		delete(l.pending, chromosome)
	}
	pipe.RPush(ctx, store.GenesKey(chromosome), names...)
	pipe.RPush(ctx, store.FamiliesKey(chromosome), families...)
	pipe.RPush(ctx, store.FminsKey(chromosome), fmins...)
	pipe.RPush(ctx, store.FmaxsKey(chromosome), fmaxs...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push gene lists of %q: %w", chromosome, err)
	}
	return nil
}

// flushChromosomes commits records for chromosomes that never received
// genes.
func (l *Loader) flushChromosomes(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	pipe := l.rdb.Pipeline()
	for _, rec := range l.pending {
		hsetChromosome(ctx, pipe, rec)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index chromosomes: %w", err)
	}
	l.pending = make(map[string]chromosomeRecord)
	return nil
}

// Close commits any gene-less chromosome records, snapshots the
// database to disk unless NoSave is set, and closes the connection.
func (l *Loader) Close(ctx context.Context) error {
	defer l.rdb.Close()
	if err := l.flushChromosomes(ctx); err != nil {
		return err
	}
	if !l.opts.NoSave {
		if err := l.rdb.Save(ctx).Err(); err != nil {
			return fmt.Errorf("save database: %w", err)
		}
	}
	return nil
}
