package prompt

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/memsearch/internal/domain"
)

func TestNew(t *testing.T) {
	p, err := New("memory_search", "Suggest related terms.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Feature() != "memory_search" || p.Text() != "Suggest related terms." {
		t.Errorf("unexpected prompt %+v", p)
	}

	if _, err := New("Bad Feature", "x"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for bad feature, got %v", err)
	}
	if _, err := New("memory_search", " \n"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for blank text, got %v", err)
	}
}
