// Package mcp exposes fact search and ingestion as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/memsearch/internal/usecase/search"
)

// ServerName is the MCP server name.
const ServerName = "memsearch"

// Tool names.
const (
	ToolSearchFacts = "search_facts"
	ToolAddFact     = "add_fact"
)

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, q query.Query) (searchuc.Outcome, error)
}

// FactAdder stores a new fact.
type FactAdder interface {
	Add(ctx context.Context, owner, text string) (domfact.Fact, error)
}

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp          *server.MCPServer
	search       Searcher
	facts        FactAdder
	defaultOwner string
	logger       *zap.Logger
}

// NewServer registers the memsearch tools. defaultOwner is used when a call omits owner.
func NewServer(version string, search Searcher, facts FactAdder, defaultOwner string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:          server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		search:       search,
		facts:        facts,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
	s.mcp.AddTool(searchFactsTool(), s.handleSearchFacts)
	s.mcp.AddTool(addFactTool(), s.handleAddFact)
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}

func searchFactsTool() mcp.Tool {
	return mcp.NewTool(ToolSearchFacts,
		mcp.WithDescription("Search remembered facts by meaning. Results are ranked by similarity and paginated."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
		mcp.WithString("owner", mcp.Description("Owner whose facts are searched; defaults to the server owner")),
		mcp.WithNumber("limit", mcp.Description("Page size (1-100, default 20)")),
		mcp.WithNumber("offset", mcp.Description("Ranked results to skip; use next_cursor from the previous page")),
		mcp.WithNumber("threshold", mcp.Description("Minimum similarity in [0,1]")),
		mcp.WithBoolean("expand", mcp.Description("Expand the query with related terms before searching")),
	)
}

func addFactTool() mcp.Tool {
	return mcp.NewTool(ToolAddFact,
		mcp.WithDescription("Remember a fact so it can be found by search_facts."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Fact text")),
		mcp.WithString("owner", mcp.Description("Owner of the fact; defaults to the server owner")),
	)
}

type searchItem struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type searchResponse struct {
	Items      []searchItem `json:"items"`
	NextCursor *int         `json:"next_cursor,omitempty"`
	Query      string       `json:"query"`
	Expanded   bool         `json:"expanded"`
	Threshold  float64      `json:"threshold"`
}

// intArg reads an optional integer argument. JSON numbers arrive as float64;
// fractional values are rejected rather than truncated.
func intArg(req mcp.CallToolRequest, name string) (int, error) {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidQuery, name)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidQuery, name)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidQuery, name)
	}
}

func (s *Server) handleSearchFacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var threshold *float64
	if _, ok := req.GetArguments()["threshold"]; ok {
		v := req.GetFloat("threshold", 0)
		threshold = &v
	}

	limit, err := intArg(req, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset, err := intArg(req, "offset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q, err := query.New(
		text,
		req.GetString("owner", s.defaultOwner),
		threshold,
		limit,
		offset,
		req.GetBool("expand", false),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.search.Search(ctx, q)
	if err != nil {
		return s.toolError("search failed", err), nil
	}

	hits := out.Page.Items()
	resp := searchResponse{
		Items:     make([]searchItem, len(hits)),
		Query:     out.EffectiveQuery,
		Expanded:  out.Expanded,
		Threshold: out.Threshold,
	}
	for i := range hits {
		resp.Items[i] = searchItem{ID: hits[i].ID(), Text: hits[i].Text(), Score: hits[i].Score()}
	}
	if next, ok := out.Page.NextCursor(); ok {
		resp.NextCursor = &next
	}
	return jsonResult(resp)
}

func (s *Server) handleAddFact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f, err := s.facts.Add(ctx, req.GetString("owner", s.defaultOwner), text)
	if err != nil {
		return s.toolError("add fact failed", err), nil
	}
	return jsonResult(map[string]string{"id": f.ID(), "owner": f.Owner()})
}

// toolError reports validation errors verbatim and hides everything else.
func (s *Server) toolError(msg string, err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrEmbeddingProviderError) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
	}
	s.logger.Error("MCP tool failed", zap.String("op", msg), zap.Error(err))
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
