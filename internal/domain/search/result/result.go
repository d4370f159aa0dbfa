package result

import "time"

// Result is a single ranked fact hit.
type Result struct {
	id        string
	owner     string
	text      string
	score     float64
	createdAt time.Time
}

// New creates a search result.
func New(id, owner, text string, score float64, createdAt time.Time) Result {
	return Result{id: id, owner: owner, text: text, score: score, createdAt: createdAt}
}

// ID returns the fact identifier.
func (r *Result) ID() string { return r.id }

// Owner returns the owner scope.
func (r *Result) Owner() string { return r.owner }

// Text returns the fact text.
func (r *Result) Text() string { return r.text }

// Score returns the similarity score in [0,1].
func (r *Result) Score() float64 { return r.score }

// CreatedAt returns when the fact was stored.
func (r *Result) CreatedAt() time.Time { return r.createdAt }
