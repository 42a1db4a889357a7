package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a referenced entity is absent.
var ErrNotFound = errors.New("not found")

// Options configures the Redis connection.
type Options struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// Addr returns the host:port address to dial.
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// Store is the read-side client over the schema in this package. It is
// safe for concurrent use; all methods honor context cancellation.
type Store struct {
	rdb *redis.Client
}

// Open connects to Redis and pings it to surface connection errors
// before any request work starts.
func Open(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// NewWithClient wraps an existing client. The caller retains ownership.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// ChromosomeRecord is a chromosome hash record.
type ChromosomeRecord struct {
	Name    string
	Length  int64
	Genus   string
	Species string
}

// GeneRecord is a gene hash record.
type GeneRecord struct {
	Name       string
	Chromosome string
	Family     string
	Fmin       int64
	Fmax       int64
	Strand     int
	Index      int
}

// GenePosition locates a gene by chromosome name and position in that
// chromosome's gene order.
type GenePosition struct {
	Chromosome string
	Index      int
}

// Location is a physical (fmin, fmax) interval in base pairs.
type Location struct {
	Fmin int64
	Fmax int64
}

// Chromosome fetches a chromosome record. Returns ErrNotFound if no such
// chromosome is indexed.
func (s *Store) Chromosome(ctx context.Context, name string) (*ChromosomeRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, ChromosomeKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("load chromosome %q: %w", name, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("chromosome %q: %w", name, ErrNotFound)
	}
	length, err := strconv.ParseInt(fields["length"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("chromosome %q has malformed length %q: %w", name, fields["length"], err)
	}
	return &ChromosomeRecord{
		Name:    fields["name"],
		Length:  length,
		Genus:   fields["genus"],
		Species: fields["species"],
	}, nil
}

// GeneCount returns how many genes a chromosome has.
func (s *Store) GeneCount(ctx context.Context, chromosome string) (int, error) {
	n, err := s.rdb.LLen(ctx, GenesKey(chromosome)).Result()
	if err != nil {
		return 0, fmt.Errorf("count genes of %q: %w", chromosome, err)
	}
	return int(n), nil
}

// GeneNames returns the slice [first, last] of a chromosome's ordered
// gene name list. Pass 0, -1 for the whole list.
func (s *Store) GeneNames(ctx context.Context, chromosome string, first, last int64) ([]string, error) {
	names, err := s.rdb.LRange(ctx, GenesKey(chromosome), first, last).Result()
	if err != nil {
		return nil, fmt.Errorf("read genes of %q: %w", chromosome, err)
	}
	return names, nil
}

// Families returns the slice [first, last] of a chromosome's ordered
// family list. Pass 0, -1 for the whole list.
func (s *Store) Families(ctx context.Context, chromosome string, first, last int64) ([]string, error) {
	families, err := s.rdb.LRange(ctx, FamiliesKey(chromosome), first, last).Result()
	if err != nil {
		return nil, fmt.Errorf("read families of %q: %w", chromosome, err)
	}
	return families, nil
}

// Fmins returns a chromosome's full ordered fmin list.
func (s *Store) Fmins(ctx context.Context, chromosome string) ([]int64, error) {
	return s.intList(ctx, FminsKey(chromosome))
}

// Fmaxs returns a chromosome's full ordered fmax list.
func (s *Store) Fmaxs(ctx context.Context, chromosome string) ([]int64, error) {
	return s.intList(ctx, FmaxsKey(chromosome))
}

func (s *Store) intList(ctx context.Context, key string) ([]int64, error) {
	values, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	ints := make([]int64, len(values))
	for i, v := range values {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed entry %q in %q: %w", v, key, err)
		}
		ints[i] = n
	}
	return ints, nil
}

// Locations reads the (fmin, fmax) interval at each of the given gene
// indices of a chromosome, pipelining the positional reads.
func (s *Store) Locations(ctx context.Context, chromosome string, indices []int) ([]Location, error) {
	pipe := s.rdb.Pipeline()
	fmins := make([]*redis.StringCmd, len(indices))
	fmaxs := make([]*redis.StringCmd, len(indices))
	for i, idx := range indices {
		fmins[i] = pipe.LIndex(ctx, FminsKey(chromosome), int64(idx))
		fmaxs[i] = pipe.LIndex(ctx, FmaxsKey(chromosome), int64(idx))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read locations of %q: %w", chromosome, err)
	}
	locations := make([]Location, len(indices))
	for i := range indices {
		fmin, err := fmins[i].Int64()
		if err != nil {
			return nil, fmt.Errorf("read fmin %d of %q: %w", indices[i], chromosome, err)
		}
		fmax, err := fmaxs[i].Int64()
		if err != nil {
			return nil, fmt.Errorf("read fmax %d of %q: %w", indices[i], chromosome, err)
		}
		locations[i] = Location{Fmin: fmin, Fmax: fmax}
	}
	return locations, nil
}

// Genes fetches the gene records for the given names, pipelining the
// hash reads. Names with no record are silently omitted.
func (s *Store) Genes(ctx context.Context, names []string) ([]GeneRecord, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, GeneKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read genes: %w", err)
	}
	genes := make([]GeneRecord, 0, len(names))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("read genes: %w", err)
		}
		if len(fields) == 0 {
			continue
		}
		gene, err := geneFromFields(fields)
		if err != nil {
			return nil, err
		}
		genes = append(genes, gene)
	}
	return genes, nil
}

func geneFromFields(fields map[string]string) (GeneRecord, error) {
	gene := GeneRecord{
		Name:       fields["name"],
		Chromosome: fields["chromosome"],
		Family:     fields["family"],
	}
	var err error
	if gene.Fmin, err = strconv.ParseInt(fields["fmin"], 10, 64); err != nil {
		return gene, fmt.Errorf("gene %q has malformed fmin %q: %w", gene.Name, fields["fmin"], err)
	}
	if gene.Fmax, err = strconv.ParseInt(fields["fmax"], 10, 64); err != nil {
		return gene, fmt.Errorf("gene %q has malformed fmax %q: %w", gene.Name, fields["fmax"], err)
	}
	strand, err := strconv.Atoi(fields["strand"])
	if err != nil {
		return gene, fmt.Errorf("gene %q has malformed strand %q: %w", gene.Name, fields["strand"], err)
	}
	gene.Strand = strand
	if idx, ok := fields["index"]; ok {
		if gene.Index, err = strconv.Atoi(idx); err != nil {
			return gene, fmt.Errorf("gene %q has malformed index %q: %w", gene.Name, idx, err)
		}
	}
	return gene, nil
}
