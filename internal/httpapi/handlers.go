package httpapi

import (
	"net/http"
	"strconv"

	"github.com/syntenic/services/internal/services"
)

func (s *Server) handleChromosome(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("chromosome")
	if name == "" {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return
	}
	chromosome, err := s.services.Chromosomes.Get(r.Context(), name)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"chromosome": chromosome})
}

func (s *Server) handleChromosomeSearch(w http.ResponseWriter, r *http.Request) {
	names, err := s.services.ChromosomeSearch.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"chromosomes": emptyable(names)})
}

func (s *Server) handleChromosomeRegion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chromosome := q.Get("chromosome")
	start, startErr := strconv.ParseInt(q.Get("start"), 10, 64)
	stop, stopErr := strconv.ParseInt(q.Get("stop"), 10, 64)
	if chromosome == "" || startErr != nil || stopErr != nil || start < 0 || start > stop {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return
	}
	region, err := s.services.Regions.Get(r.Context(), chromosome, start, stop)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"region": region})
}

func (s *Server) handleGeneSearch(w http.ResponseWriter, r *http.Request) {
	names, err := s.services.GeneSearch.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"genes": emptyable(names)})
}

func (s *Server) handleGenes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Genes []string `json:"genes"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	genes, err := s.services.Genes.Get(r.Context(), req.Genes)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"genes": emptyable(genes)})
}

func (s *Server) handleMicroSyntenySearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query        []string `json:"query"`
		Matched      float64  `json:"matched"`
		Intermediate float64  `json:"intermediate"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	tracks, err := s.services.Micro.Search(r.Context(), req.Query, req.Matched, req.Intermediate)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"tracks": emptyable(tracks)})
}

// blockParams are the parameters shared by the pairwise and fan-out
// computations, under the original wire names.
type blockParams struct {
	Chromosome       []string `json:"chromosome"`
	Matched          int      `json:"matched"`
	Intermediate     int      `json:"intermediate"`
	Mask             *int     `json:"mask"`
	OptionalMetrics  []string `json:"optionalMetrics"`
	ChromosomeGenes  int      `json:"chromosome_genes"`
	ChromosomeLength int64    `json:"chromosome_length"`
}

func (p blockParams) pairwise() (services.PairwiseParams, bool) {
	params := services.PairwiseParams{
		Matched:      p.Matched,
		Intermediate: p.Intermediate,
		Metrics:      p.OptionalMetrics,
		MinGenes:     p.ChromosomeGenes,
		MinLength:    p.ChromosomeLength,
	}
	if p.Mask != nil {
		if *p.Mask <= 0 {
			return params, false
		}
		params.Mask = *p.Mask
	}
	return params, true
}

func (s *Server) handlePairwiseBlocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		blockParams
		Target string `json:"target"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	params, ok := req.pairwise()
	if !ok || req.Target == "" {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return
	}
	blocks, err := s.services.Pairwise.Compute(r.Context(), req.Chromosome, req.Target, params)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"blocks": emptyable(blocks)})
}

func (s *Server) handleMacroSyntenyBlocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		blockParams
		Targets []string `json:"targets"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	pairwise, ok := req.pairwise()
	if !ok {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return
	}
	params := services.MacroParams{
		Matched:      pairwise.Matched,
		Intermediate: pairwise.Intermediate,
		Mask:         pairwise.Mask,
		Targets:      req.Targets,
		Metrics:      pairwise.Metrics,
		MinGenes:     pairwise.MinGenes,
		MinLength:    pairwise.MinLength,
	}
	blocks, err := s.services.Macro.Compute(r.Context(), req.Chromosome, params)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, map[string]any{"blocks": emptyable(blocks)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return
	}
	result, err := s.services.Search.Search(r.Context(), req.Query)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.respond(w, result)
}

// emptyable keeps empty collections encoding as [] instead of null.
func emptyable[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
