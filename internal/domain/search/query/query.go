package query

import (
	"fmt"
	"strings"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum allowed raw query length in bytes.
	MaxTextLength = 4096
	DefaultLimit  = 20
	MaxLimit      = 100
	MaxOffset     = 10000
)

// Query is a validated search request over one owner's facts.
type Query struct {
	raw       string
	expanded  string
	owner     string
	threshold *float64
	limit     int
	offset    int
	expand    bool
}

// New validates and normalizes search parameters.
// Limit defaults to 20 and is clamped to MaxLimit. A nil threshold lets the
// pipeline pick its per-mode default.
func New(raw, owner string, threshold *float64, limit, offset int, expand bool) (Query, error) {
	if strings.TrimSpace(raw) == "" {
		return Query{}, fmt.Errorf("query is required")
	}
	if len(raw) > MaxTextLength {
		return Query{}, fmt.Errorf("query too long (max %d bytes)", MaxTextLength)
	}
	if strings.TrimSpace(owner) == "" {
		return Query{}, fmt.Errorf("owner is required")
	}
	if threshold != nil && !(*threshold >= 0 && *threshold <= 1) {
		return Query{}, fmt.Errorf("threshold must be between 0 and 1")
	}
	if offset < 0 {
		return Query{}, fmt.Errorf("offset must be non-negative")
	}
	if offset > MaxOffset {
		return Query{}, fmt.Errorf("offset too large (max %d)", MaxOffset)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Query{
		raw:       raw,
		owner:     owner,
		threshold: threshold,
		limit:     limit,
		offset:    offset,
		expand:    expand,
	}, nil
}

// WithExpanded returns a copy carrying the expanded query text.
func (q Query) WithExpanded(text string) Query {
	q.expanded = text
	return q
}

// Raw returns the caller's original text.
func (q Query) Raw() string { return q.raw }

// Expanded returns the expanded text, empty if expansion did not run.
func (q Query) Expanded() string { return q.expanded }

// Effective returns the text to embed: expanded if present, raw otherwise.
func (q Query) Effective() string {
	if q.expanded != "" {
		return q.expanded
	}
	return q.raw
}

// Owner returns the owner scope.
func (q Query) Owner() string { return q.owner }

// Threshold returns the explicit similarity threshold and whether it was set.
func (q Query) Threshold() (float64, bool) {
	if q.threshold == nil {
		return 0, false
	}
	return *q.threshold, true
}

// Limit returns the page size.
func (q Query) Limit() int { return q.limit }

// Offset returns the number of ranked results to skip.
func (q Query) Offset() int { return q.offset }

// Expand reports whether query expansion was requested.
func (q Query) Expand() bool { return q.expand }
