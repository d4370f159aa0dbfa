package embcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/domain/embedding"
)

// badgerRow is the JSON value stored per key. float32 survives a JSON round trip exactly.
type badgerRow struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Features  []string  `json:"features"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BadgerRepo stores cached embeddings in an embedded BadgerDB.
type BadgerRepo struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path. An empty path opens an in-memory store.
func OpenBadger(path string) (*BadgerRepo, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerRepo{db: db}, nil
}

// Close releases the database.
func (r *BadgerRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}

// Ping reports whether the database is still open.
func (r *BadgerRepo) Ping(context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

// Get returns the cached embedding for the exact text or domain.ErrNotFound.
func (r *BadgerRepo) Get(_ context.Context, text string) (embedding.Cached, error) {
	var c embedding.Cached
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = readRow(txn, text)
		return err
	})
	if err != nil {
		return embedding.Cached{}, err
	}
	return c, nil
}

// GetMany looks up all texts in one read transaction.
func (r *BadgerRepo) GetMany(_ context.Context, texts []string) (map[string]embedding.Cached, error) {
	out := make(map[string]embedding.Cached, len(texts))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, t := range dedupe(texts) {
			c, err := readRow(txn, t)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[t] = c
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put inserts the embedding unless a row for text already exists.
// A transaction conflict means a concurrent writer won; its row is returned.
func (r *BadgerRepo) Put(
	ctx context.Context, text string, vector []float32, features []embedding.Feature,
) (embedding.Cached, error) {
	c := embedding.New(uuid.NewString(), text, vector, features)

	var stored embedding.Cached
	err := r.db.Update(func(txn *badger.Txn) error {
		existing, err := readRow(txn, text)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		val, err := json.Marshal(toBadgerRow(c))
		if err != nil {
			return fmt.Errorf("marshal cached embedding: %w", err)
		}
		stored = c
		return txn.Set([]byte(cacheKey(text)), val)
	})
	if errors.Is(err, badger.ErrConflict) {
		return r.Get(ctx, text)
	}
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("put cached embedding: %w", err)
	}
	return stored, nil
}

func readRow(txn *badger.Txn, text string) (embedding.Cached, error) {
	item, err := txn.Get([]byte(cacheKey(text)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return embedding.Cached{}, domain.ErrNotFound
	}
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("get cached embedding: %w", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return embedding.Cached{}, fmt.Errorf("read cached embedding: %w", err)
	}
	var row badgerRow
	if err := json.Unmarshal(val, &row); err != nil {
		return embedding.Cached{}, fmt.Errorf("decode cached embedding: %w", err)
	}
	if row.Text != text {
		return embedding.Cached{}, domain.ErrNotFound
	}

	features := make([]embedding.Feature, len(row.Features))
	for i, f := range row.Features {
		features[i] = embedding.Feature(f)
	}
	return embedding.Reconstruct(row.ID, row.Text, row.Vector, features, row.CreatedAt, row.UpdatedAt), nil
}

func toBadgerRow(c embedding.Cached) badgerRow {
	features := make([]string, len(c.Features()))
	for i, f := range c.Features() {
		features[i] = string(f)
	}
	return badgerRow{
		ID:        c.ID(),
		Text:      c.Text(),
		Vector:    c.Vector(),
		Features:  features,
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}
