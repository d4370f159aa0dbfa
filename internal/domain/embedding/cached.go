// Package embedding holds the cached text to vector mapping.
package embedding

import (
	"slices"
	"time"
)

// Feature tags the purpose an embedding was produced for.
type Feature string

// Known feature tags.
const (
	FeatureSearchQuery Feature = "search_query"
	FeatureFact        Feature = "fact"
)

// Valid reports whether f is a known feature tag.
func (f Feature) Valid() bool {
	return f == FeatureSearchQuery || f == FeatureFact
}

// Cached is one stored text to vector mapping. Never mutated after creation.
type Cached struct {
	id        string
	text      string
	vector    []float32
	features  []Feature
	createdAt time.Time
	updatedAt time.Time
}

// New creates a cached embedding stamped with the current time.
// Feature tags are deduplicated and sorted.
func New(id, text string, vector []float32, features []Feature) Cached {
	now := time.Now().UTC()
	return Cached{
		id:        id,
		text:      text,
		vector:    vector,
		features:  normalizeFeatures(features),
		createdAt: now,
		updatedAt: now,
	}
}

// Reconstruct restores a cached embedding from storage.
func Reconstruct(id, text string, vector []float32, features []Feature, createdAt, updatedAt time.Time) Cached {
	return Cached{
		id:        id,
		text:      text,
		vector:    vector,
		features:  normalizeFeatures(features),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func normalizeFeatures(in []Feature) []Feature {
	out := make([]Feature, 0, len(in))
	for _, f := range in {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// ID returns the row identifier.
func (c Cached) ID() string { return c.id }

// Text returns the exact text the vector was computed from.
func (c Cached) Text() string { return c.text }

// Vector returns the embedding.
func (c Cached) Vector() []float32 { return c.vector }

// Features returns the feature tags.
func (c Cached) Features() []Feature { return c.features }

// HasFeature reports whether the row carries tag f.
func (c Cached) HasFeature(f Feature) bool { return slices.Contains(c.features, f) }

// CreatedAt returns creation time.
func (c Cached) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns last update time.
func (c Cached) UpdatedAt() time.Time { return c.updatedAt }
