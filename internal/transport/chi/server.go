package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	dombatch "github.com/kailas-cloud/memsearch/internal/domain/batch"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	"github.com/kailas-cloud/memsearch/internal/logger"
	healthuc "github.com/kailas-cloud/memsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

// maxBodyBytes bounds request bodies (an import of 100 max-length facts fits).
const maxBodyBytes = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the memsearch HTTP API.
type Server struct {
	facts         FactService
	search        SearchService
	prompts       PromptService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	facts FactService,
	search SearchService,
	prompts PromptService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		facts:   facts,
		search:  search,
		prompts: prompts,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrFactNotFound, http.StatusNotFound, CodeFactNotFound),
		sentinelHandler(domain.ErrPromptNotFound, http.StatusNotFound, CodePromptNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// AddFact handles POST /v1/owners/{owner}/facts.
func (s *Server) AddFact(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	var req AddFactRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	f, err := s.facts.Add(ctx, owner, req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	w.Header().Set("Location", fmt.Sprintf("/v1/owners/%s/facts/%s", owner, f.ID()))
	writeJSON(w, http.StatusCreated, factToResponse(f))
}

// ImportFacts handles POST /v1/owners/{owner}/facts/import.
func (s *Server) ImportFacts(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	var req ImportFactsRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.facts.Import(ctx, owner, req.Texts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, importToResponse(results))
}

// GetFact handles GET /v1/owners/{owner}/facts/{id}.
func (s *Server) GetFact(w http.ResponseWriter, r *http.Request) {
	f, err := s.facts.Get(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factToResponse(f))
}

// SearchFacts handles GET /v1/owners/{owner}/facts/search.
func (s *Server) SearchFacts(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	limit, offset := 0, 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	if params.Offset != nil {
		offset = *params.Offset
	}
	expand := params.Expand != nil && *params.Expand

	q, err := query.New(params.Q, chi.URLParam(r, "owner"), params.Threshold, limit, offset, expand)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.search.Search(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchToResponse(out))
}

// PutPrompt handles PUT /v1/prompts/{feature}.
func (s *Server) PutPrompt(w http.ResponseWriter, r *http.Request) {
	var req PutPromptRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := s.prompts.Set(r.Context(), chi.URLParam(r, "feature"), req.Prompt); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPrompt handles GET /v1/prompts/{feature}.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.prompts.Get(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptToResponse(p))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", q, &p.Q); err != nil {
		return SearchParams{}, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		return SearchParams{}, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &p.Offset); err != nil {
		return SearchParams{}, fmt.Errorf("invalid format for parameter offset: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "threshold", q, &p.Threshold); err != nil {
		return SearchParams{}, fmt.Errorf("invalid format for parameter threshold: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "expand", q, &p.Expand); err != nil {
		return SearchParams{}, fmt.Errorf("invalid format for parameter expand: %w", err)
	}
	return p, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage == nil || usage.CacheHits+usage.CacheMisses == 0 {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	w.Header().Set("X-Embedding-Cache-Hits", strconv.Itoa(usage.CacheHits))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client message without exposing internals.
// Validation errors carry their own detail.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrFactNotFound,
		domain.ErrPromptNotFound,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func factToResponse(f domfact.Fact) FactResponse {
	return FactResponse{ID: f.ID(), Owner: f.Owner(), Text: f.Text(), CreatedAt: f.CreatedAt()}
}

func importToResponse(results []dombatch.Result) ImportFactsResponse {
	resp := ImportFactsResponse{Items: make([]ImportItem, len(results))}
	for i, r := range results {
		item := ImportItem{Index: r.Index(), Status: string(r.Status())}
		if r.Status() == dombatch.StatusOK {
			id := r.ID()
			item.ID = &id
			resp.Succeeded++
		} else {
			msg := safeDomainMessage(r.Err())
			item.Error = &msg
			resp.Failed++
		}
		resp.Items[i] = item
	}
	return resp
}

func searchToResponse(out searchuc.Outcome) SearchResponse {
	hits := out.Page.Items()
	items := make([]SearchResultItem, len(hits))
	for i := range hits {
		h := &hits[i]
		items[i] = SearchResultItem{
			ID:        h.ID(),
			Owner:     h.Owner(),
			Text:      h.Text(),
			Score:     h.Score(),
			CreatedAt: h.CreatedAt(),
		}
	}

	resp := SearchResponse{
		Items:     items,
		Query:     out.EffectiveQuery,
		Expanded:  out.Expanded,
		Threshold: out.Threshold,
	}
	if next, ok := out.Page.NextCursor(); ok {
		resp.NextCursor = &next
	}
	return resp
}

func promptToResponse(p domprompt.Prompt) PromptResponse {
	return PromptResponse{Feature: p.Feature(), Prompt: p.Text(), UpdatedAt: p.UpdatedAt()}
}
