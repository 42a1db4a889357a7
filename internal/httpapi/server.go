// Package httpapi exposes the synteny services over HTTP/JSON. Lookups
// are GETs with query string parameters; computations are POSTs with
// JSON bodies. Errors come back as {"status": "failed", "reason": ...}
// with 400, 404, or 500; internal error text never reaches the client.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/syntenic/services/internal/services"
)

// ChromosomeGetter serves whole-chromosome lookups.
type ChromosomeGetter interface {
	Get(ctx context.Context, name string) (*services.Chromosome, error)
}

// NameSearcher serves free-text name searches.
type NameSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// RegionGetter serves interval-to-gene region lookups.
type RegionGetter interface {
	Get(ctx context.Context, chromosome string, start, stop int64) (*services.RegionGene, error)
}

// GeneGetter serves gene batch fetches.
type GeneGetter interface {
	Get(ctx context.Context, names []string) ([]services.Gene, error)
}

// MicroSearcher serves micro-synteny track searches.
type MicroSearcher interface {
	Search(ctx context.Context, query []string, matched, intermediate float64) ([]services.Track, error)
}

// PairwiseComputer serves pairwise macro-synteny block computations.
type PairwiseComputer interface {
	Compute(ctx context.Context, query []string, target string, p services.PairwiseParams) ([]services.Block, error)
}

// MacroComputer serves macro-synteny fan-outs.
type MacroComputer interface {
	Compute(ctx context.Context, query []string, p services.MacroParams) ([]services.ChromosomeBlocks, error)
}

// Federator serves free-form search queries.
type Federator interface {
	Search(ctx context.Context, query string) (services.SearchResult, error)
}

// Services bundles the handlers a Server routes to.
type Services struct {
	Chromosomes      ChromosomeGetter
	ChromosomeSearch NameSearcher
	Regions          RegionGetter
	Genes            GeneGetter
	GeneSearch       NameSearcher
	Micro            MicroSearcher
	Pairwise         PairwiseComputer
	Macro            MacroComputer
	Search           Federator
}

// Server routes HTTP requests to the synteny services.
type Server struct {
	services Services
	logger   *zap.Logger
}

// NewServer returns a Server over the given services.
func NewServer(s Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{services: s, logger: logger}
}

// Router builds the endpoint routing table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/chromosome", s.handleChromosome).Methods(http.MethodGet)
	r.HandleFunc("/chromosome-search", s.handleChromosomeSearch).Methods(http.MethodGet)
	r.HandleFunc("/chromosome-region", s.handleChromosomeRegion).Methods(http.MethodGet)
	r.HandleFunc("/gene-search", s.handleGeneSearch).Methods(http.MethodGet)
	r.HandleFunc("/genes", s.handleGenes).Methods(http.MethodPost)
	r.HandleFunc("/micro-synteny-search", s.handleMicroSyntenySearch).Methods(http.MethodPost)
	r.HandleFunc("/macro-synteny-blocks", s.handleMacroSyntenyBlocks).Methods(http.MethodPost)
	r.HandleFunc("/pairwise-macro-synteny-blocks", s.handlePairwiseBlocks).Methods(http.MethodPost)
	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	return r
}
