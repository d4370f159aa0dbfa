package db

import (
	"errors"
	"testing"
)

func TestIndexBuilder_Facts(t *testing.T) {
	idx, err := NewIndex("memsearch:facts:idx").
		Prefix("memsearch:fact:").
		Tag("owner").
		Text("text").
		Numeric("created_at").
		Vector("vector", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "memsearch:fact:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	if f := idx.Fields[0]; f.Type != IndexFieldTag || !f.TagCaseSensitive {
		t.Errorf("field[0] = %+v, want case-sensitive TAG", f)
	}
	v := idx.Fields[3]
	if v.Type != IndexFieldVector || v.VectorDim != 1536 || v.VectorDistance != DistanceCosine {
		t.Errorf("field[3] = %+v, want COSINE vector of dim 1536", v)
	}
	if v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("HNSW params = %d/%d, want 16/200", v.VectorM, v.VectorEFConstruct)
	}
}

func TestIndexBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("owner")},
		{"invalid name", NewIndex("bad name!").Tag("owner")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Tag("owner").Text("owner")},
		{"zero dim", NewIndex("idx").Vector("vector", 0, DistanceCosine, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"memsearch:facts:idx", true},
		{"a-b_c", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
	}
	for _, tt := range tests {
		if got := IsValidIdentifier(tt.s); got != tt.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: OpHSet, Err: inner}
	if err.Error() != "HSET: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to unwrap inner error")
	}
}
