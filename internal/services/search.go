package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// regionQuery matches "<chromosome>:<start>-<stop>" and
// "<chromosome>:<start>..<stop>". Chromosome names may carry the
// punctuation commonly found in assembly names.
var regionQuery = regexp.MustCompile(`^([A-Za-z0-9._-]+):(\d+)(?:-|\.\.)(\d+)$`)

// SearchRegion is an interval on a chromosome. Start and Stop are both
// zero when the match names a whole chromosome.
type SearchRegion struct {
	Chromosome string `json:"chromosome"`
	Start      int64  `json:"start"`
	Stop       int64  `json:"stop"`
}

// SearchResult carries whichever result kinds the query produced.
type SearchResult struct {
	Genes   []string       `json:"genes,omitempty"`
	Regions []SearchRegion `json:"regions,omitempty"`
}

// nameSearcher is the name-search surface the federator consumes.
type nameSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// regionGetter is the region-lookup surface the federator consumes.
type regionGetter interface {
	Get(ctx context.Context, chromosome string, start, stop int64) (*RegionGene, error)
}

// SearchService parses a free-form query into a typed dispatch across
// the gene search, chromosome search, and region lookup services.
type SearchService struct {
	genes       nameSearcher
	chromosomes nameSearcher
	regions     regionGetter
	logger      *zap.Logger
}

// NewSearchService returns a federating search handler.
func NewSearchService(genes *GeneSearch, chromosomes *ChromosomeSearch, regions *RegionService) *SearchService {
	return &SearchService{
		genes:       genes,
		chromosomes: chromosomes,
		regions:     regions,
		logger:      zap.NewNop(),
	}
}

// SetLogger replaces the handler's logger.
func (svc *SearchService) SetLogger(l *zap.Logger) {
	svc.logger = l
}

// Search dispatches the query. A region-shaped query goes to the region
// lookup; anything else fans out to the gene and chromosome name
// searches concurrently. A failed dispatch is logged and contributes
// nothing; the merged result carries only non-empty keys.
func (svc *SearchService) Search(ctx context.Context, query string) (SearchResult, error) {
	if chromosome, start, stop, ok := parseRegionQuery(query); ok {
		return svc.searchRegion(ctx, chromosome, start, stop), nil
	}
	return svc.searchNames(ctx, query), nil
}

func (svc *SearchService) searchRegion(ctx context.Context, chromosome string, start, stop int64) SearchResult {
	_, err := svc.regions.Get(ctx, chromosome, start, stop)
	if errors.Is(err, ErrNotFound) {
		return SearchResult{}
	}
	if err != nil {
		svc.logger.Error("region lookup failed",
			zap.String("chromosome", chromosome),
			zap.Error(err))
		return SearchResult{}
	}
	return SearchResult{
		Regions: []SearchRegion{{Chromosome: chromosome, Start: start, Stop: stop}},
	}
}

func (svc *SearchService) searchNames(ctx context.Context, query string) SearchResult {
	var (
		wg     sync.WaitGroup
		result SearchResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		genes, err := svc.genes.Search(ctx, query)
		if err != nil {
			svc.logger.Error("gene search failed", zap.String("query", query), zap.Error(err))
			return
		}
		result.Genes = genes
	}()
	go func() {
		defer wg.Done()
		chromosomes, err := svc.chromosomes.Search(ctx, query)
		if err != nil {
			svc.logger.Error("chromosome search failed", zap.String("query", query), zap.Error(err))
			return
		}
		// a chromosome-name match identifies the whole chromosome
		regions := make([]SearchRegion, len(chromosomes))
		for i, name := range chromosomes {
			regions[i] = SearchRegion{Chromosome: name}
		}
		result.Regions = regions
	}()
	wg.Wait()
	return result
}

// parseRegionQuery recognizes the region query shape; start must not
// exceed stop for the shape to count.
func parseRegionQuery(query string) (chromosome string, start, stop int64, ok bool) {
	m := regionQuery.FindStringSubmatch(query)
	if m == nil {
		return "", 0, 0, false
	}
	start, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	stop, err = strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	if start > stop {
		return "", 0, 0, false
	}
	return m[1], start, stop, true
}
