package fact

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain"
	domfact "github.com/kailas-cloud/memsearch/internal/domain/fact"
)

// Redis layout for facts.
var (
	keyPrefix = domain.KeyPrefix + "fact:"
	IndexName = domain.KeyPrefix + "facts:idx"
)

// Hash field names.
const (
	fieldOwner     = "owner"
	fieldText      = "text"
	fieldVector    = "vector"
	fieldCreatedAt = "created_at"
)

func factKey(id string) string { return keyPrefix + id }

func idFromKey(key string) string { return strings.TrimPrefix(key, keyPrefix) }

func factToHash(f domfact.Fact) map[string]string {
	return map[string]string{
		fieldOwner:     f.Owner(),
		fieldText:      f.Text(),
		fieldVector:    vectorToBytes(f.Vector()),
		fieldCreatedAt: strconv.FormatInt(f.CreatedAt().UnixMilli(), 10),
	}
}

func factFromHash(id string, m map[string]string) (domfact.Fact, error) {
	createdAt, err := parseMillis(m[fieldCreatedAt])
	if err != nil {
		return domfact.Fact{}, fmt.Errorf("invalid created_at: %w", err)
	}
	vec, err := bytesToVector(m[fieldVector])
	if err != nil {
		return domfact.Fact{}, err
	}
	return domfact.Reconstruct(id, m[fieldOwner], m[fieldText], vec, createdAt), nil
}

func parseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck // wrapped by caller
	}
	return time.UnixMilli(ms).UTC(), nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("invalid fact vector: len=%d (not multiple of 4)", len(s))
	}
	vec := make([]float32, len(s)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return vec, nil
}

// radiusFor converts a similarity threshold into a cosine distance radius.
// Threshold 0 disables filtering, so the radius covers the full [0,2] distance range.
func radiusFor(threshold float64) float64 {
	if threshold <= 0 {
		return 2
	}
	return 1 - threshold
}
