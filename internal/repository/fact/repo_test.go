package fact

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/memsearch/internal/db"
	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
)

func TestRepo_EnsureIndex_Creates(t *testing.T) {
	var created *db.IndexDefinition
	ms := &mockStore{
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}
	r := New(ms, 3, HNSWConfig{M: 16, EFConstruct: 200})

	if err := r.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}
	if created.Name != "memsearch:facts:idx" || created.Prefixes[0] != "memsearch:fact:" {
		t.Errorf("unexpected index %+v", created)
	}
	last := created.Fields[len(created.Fields)-1]
	if last.Type != db.IndexFieldVector || last.VectorDim != 3 || last.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field %+v", last)
	}
}

func TestRepo_EnsureIndex_Exists(t *testing.T) {
	ms := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return true, nil },
		createIndexFn: func(context.Context, *db.IndexDefinition) error {
			t.Fatal("CreateIndex must not be called")
			return nil
		},
	}
	if err := New(ms, 3, HNSWConfig{}).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepo_EnsureIndex_RaceIsOK(t *testing.T) {
	ms := &mockStore{
		createIndexFn: func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	if err := New(ms, 3, HNSWConfig{}).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepo_AddThenGet(t *testing.T) {
	hashes := map[string]map[string]string{}
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			hashes[key] = fields
			return nil
		},
		hgetAllFn: func(_ context.Context, key string) (map[string]string, error) {
			if h, ok := hashes[key]; ok {
				return h, nil
			}
			return map[string]string{}, nil
		},
	}
	r := New(ms, 2, HNSWConfig{})
	ctx := context.Background()

	f, err := domfact.New("f1", "user-1", "likes oolong", []float32{0.5, -0.5})
	if err != nil {
		t.Fatalf("new fact: %v", err)
	}
	if err := r.Add(ctx, f); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := hashes["memsearch:fact:f1"]; !ok {
		t.Fatalf("expected hash under memsearch:fact:f1, got %v", hashes)
	}

	got, err := r.Get(ctx, "user-1", "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text() != "likes oolong" || got.Vector()[1] != -0.5 {
		t.Errorf("unexpected fact %+v", got)
	}

	// another owner cannot read it
	if _, err := r.Get(ctx, "user-2", "f1"); !errors.Is(err, domain.ErrFactNotFound) {
		t.Errorf("expected ErrFactNotFound for foreign owner, got %v", err)
	}
	if _, err := r.Get(ctx, "user-1", "nope"); !errors.Is(err, domain.ErrFactNotFound) {
		t.Errorf("expected ErrFactNotFound, got %v", err)
	}
}

func TestRepo_Candidates(t *testing.T) {
	var q *db.RangeQuery
	ms := &mockStore{
		searchRangeFn: func(_ context.Context, rq *db.RangeQuery) (*db.SearchResult, error) {
			q = rq
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{
				Key:   "memsearch:fact:f9",
				Score: 0.8,
				Fields: map[string]string{
					"owner": "user-1", "text": "tea", "created_at": "1700000000000",
				},
			}}}, nil
		},
	}
	r := New(ms, 2, HNSWConfig{})

	got, err := r.Candidates(context.Background(), "user-1", []float32{1, 0}, 0.4, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Radius < 0.599 || q.Radius > 0.601 {
		t.Errorf("radius = %f, want 0.6", q.Radius)
	}
	if q.Limit != 50 || q.Tags[0].Value != "user-1" {
		t.Errorf("unexpected query %+v", q)
	}
	if len(got) != 1 || got[0].ID() != "f9" || got[0].Score() != 0.8 {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if got[0].CreatedAt().UnixMilli() != 1700000000000 {
		t.Errorf("created_at = %v", got[0].CreatedAt())
	}
}

func TestRepo_Candidates_EmptyOwner(t *testing.T) {
	ms := &mockStore{
		searchRangeFn: func(context.Context, *db.RangeQuery) (*db.SearchResult, error) {
			t.Fatal("SearchRange must not be called")
			return nil, nil
		},
	}
	got, err := New(ms, 2, HNSWConfig{}).Candidates(context.Background(), "", []float32{1}, 0.4, 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
}

func TestRadiusFor(t *testing.T) {
	tests := []struct {
		threshold, want float64
	}{
		{0, 2},
		{0.4, 0.6},
		{1, 0},
	}
	for _, tt := range tests {
		if got := radiusFor(tt.threshold); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("radiusFor(%v) = %v, want %v", tt.threshold, got, tt.want)
		}
	}
}
