package fact

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain"
)

// MaxTextLength bounds the stored fact text in bytes.
const MaxTextLength = 16384

// Fact is a piece of remembered text owned by one user.
type Fact struct {
	id        string
	owner     string
	text      string
	vector    []float32
	createdAt time.Time
}

// New validates and creates a fact.
func New(id, owner, text string, vector []float32) (Fact, error) {
	if id == "" {
		return Fact{}, fmt.Errorf("%w: fact id is required", domain.ErrInvalidQuery)
	}
	if strings.TrimSpace(owner) == "" {
		return Fact{}, fmt.Errorf("%w: owner is required", domain.ErrInvalidQuery)
	}
	if err := ValidateText(text); err != nil {
		return Fact{}, err
	}
	return Fact{
		id:        id,
		owner:     owner,
		text:      text,
		vector:    vector,
		createdAt: time.Now().UTC(),
	}, nil
}

// ValidateText checks fact text before it is embedded.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: fact text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return fmt.Errorf("%w: fact text exceeds %d bytes", domain.ErrInvalidQuery, MaxTextLength)
	}
	return nil
}

// Reconstruct restores a fact from storage (no validation).
func Reconstruct(id, owner, text string, vector []float32, createdAt time.Time) Fact {
	return Fact{id: id, owner: owner, text: text, vector: vector, createdAt: createdAt}
}

// ID returns the fact identifier.
func (f Fact) ID() string { return f.id }

// Owner returns the owner scope.
func (f Fact) Owner() string { return f.owner }

// Text returns the fact text.
func (f Fact) Text() string { return f.text }

// Vector returns the fact embedding.
func (f Fact) Vector() []float32 { return f.vector }

// CreatedAt returns creation time.
func (f Fact) CreatedAt() time.Time { return f.createdAt }
