package db

// TagMatch restricts a search to documents whose TAG field equals Value.
type TagMatch struct {
	Field string
	Value string
}

// RangeQuery is the input for a vector range search: every document whose
// cosine distance to Vector is at most Radius, closest first.
type RangeQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	Radius       float64
	Tags         []TagMatch
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score is the similarity 1 - distance, clamped to [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
