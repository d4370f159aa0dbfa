package chi

import "time"

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeFactNotFound           ErrorCode = "fact_not_found"
	CodePromptNotFound         ErrorCode = "prompt_not_found"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// AddFactRequest is the body of POST /v1/owners/{owner}/facts.
type AddFactRequest struct {
	Text string `json:"text"`
}

// ImportFactsRequest is the body of POST /v1/owners/{owner}/facts/import.
type ImportFactsRequest struct {
	Texts []string `json:"texts"`
}

// FactResponse is a stored fact.
type FactResponse struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportItem is the outcome of one imported text.
type ImportItem struct {
	Index  int     `json:"index"`
	ID     *string `json:"id,omitempty"`
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

// ImportFactsResponse reports per-item import outcomes in request order.
type ImportFactsResponse struct {
	Items     []ImportItem `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// SearchParams are the query parameters of GET /v1/owners/{owner}/facts/search.
type SearchParams struct {
	Q         string   `json:"q"`
	Limit     *int     `json:"limit,omitempty"`
	Offset    *int     `json:"offset,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Expand    *bool    `json:"expand,omitempty"`
}

// SearchResultItem is one ranked fact.
type SearchResultItem struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResponse is one page of ranked facts.
type SearchResponse struct {
	Items      []SearchResultItem `json:"items"`
	NextCursor *int               `json:"next_cursor,omitempty"`
	Query      string             `json:"query"`
	Expanded   bool               `json:"expanded"`
	Threshold  float64            `json:"threshold"`
}

// PutPromptRequest is the body of PUT /v1/prompts/{feature}.
type PutPromptRequest struct {
	Prompt string `json:"prompt"`
}

// PromptResponse is the current prompt of a feature.
type PromptResponse struct {
	Feature   string    `json:"feature"`
	Prompt    string    `json:"prompt"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthResponse aggregates component checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
