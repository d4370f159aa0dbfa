package embcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/memsearch/internal/domain"
	"github.com/kailas-cloud/memsearch/internal/domain/embedding"
)

var keyPrefix = domain.KeyPrefix + "emb:"

// cacheKey derives the storage key from the exact text. No normalization.
func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + hex.EncodeToString(h[:])
}

func cachedToHash(c embedding.Cached) map[string]string {
	return map[string]string{
		"id":         c.ID(),
		"text":       c.Text(),
		"vector":     string(vectorToBytes(c.Vector())),
		"features":   joinFeatures(c.Features()),
		"created_at": strconv.FormatInt(c.CreatedAt().UnixMilli(), 10),
		"updated_at": strconv.FormatInt(c.UpdatedAt().UnixMilli(), 10),
	}
}

// cachedFromHash hydrates a row. ok is false for an empty hash or a row whose
// stored text differs from want (digest collision).
func cachedFromHash(m map[string]string, want string) (embedding.Cached, bool, error) {
	if len(m) == 0 || m["text"] != want {
		return embedding.Cached{}, false, nil
	}

	vec, err := bytesToVector([]byte(m["vector"]))
	if err != nil {
		return embedding.Cached{}, false, err
	}
	createdAt, err := parseMillis(m["created_at"])
	if err != nil {
		return embedding.Cached{}, false, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := parseMillis(m["updated_at"])
	if err != nil {
		return embedding.Cached{}, false, fmt.Errorf("invalid updated_at: %w", err)
	}

	return embedding.Reconstruct(m["id"], m["text"], vec, splitFeatures(m["features"]), createdAt, updatedAt), true, nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck // wrapped by caller
	}
	return time.UnixMilli(ms).UTC(), nil
}

func joinFeatures(fs []embedding.Feature) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFeatures(s string) []embedding.Feature {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]embedding.Feature, len(parts))
	for i, p := range parts {
		out[i] = embedding.Feature(p)
	}
	return out
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
