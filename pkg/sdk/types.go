package memsearch

import "time"

// Fact is a stored piece of owner memory.
type Fact struct {
	ID        string
	Owner     string
	Text      string
	CreatedAt time.Time
}

// Hit is one ranked search result.
type Hit struct {
	ID        string
	Owner     string
	Text      string
	Score     float64
	CreatedAt time.Time
}

// SearchPage is one window of ranked hits.
// NextOffset is set only when the page is full; pass it as Offset to continue.
type SearchPage struct {
	Hits       []Hit
	NextOffset *int
	Query      string  // text that was embedded (raw or expanded)
	Expanded   bool    // whether expansion was requested and available
	Threshold  float64 // similarity cut-off that was applied
}

// ImportResult reports the outcome for one imported text, by input position.
type ImportResult struct {
	Index int
	ID    string
	Err   error
}
