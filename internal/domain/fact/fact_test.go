package fact

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/memsearch/internal/domain"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		owner   string
		text    string
		wantErr bool
	}{
		{"valid", "f1", "user-1", "likes green tea", false},
		{"empty id", "", "user-1", "x", true},
		{"empty owner", "f1", " ", "x", true},
		{"empty text", "f1", "user-1", "  ", true},
		{"too long", "f1", "user-1", strings.Repeat("a", MaxTextLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.id, tt.owner, tt.text, []float32{1})
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidQuery) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Owner() != tt.owner || f.Text() != tt.text {
				t.Errorf("unexpected fact %+v", f)
			}
			if f.CreatedAt().IsZero() {
				t.Error("expected created_at to be set")
			}
		})
	}
}
