package memsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverRedis = "redis"
	driverLocal = "local"
)

type clientConfig struct {
	driver   string
	addrs    []string
	password string
	dataDir  string

	embedder Embedder
	expander Expander

	vectorDimensions  int
	hnswM             int
	hnswEFConstruct   int
	threshold         float64
	expandedThreshold float64
	maxCandidates     int
	importPoolSize    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores facts and the embedding cache in Redis 8 / Redis Stack.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithLocal keeps facts in chromem-go and the embedding cache in BadgerDB
// under dataDir. An empty dataDir keeps everything in memory.
func WithLocal(dataDir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverLocal
		c.dataDir = dataDir
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithExpander enables query expansion for searches that ask for it.
func WithExpander(e Expander) Option {
	return optionFunc(func(c *clientConfig) {
		c.expander = e
	})
}

// WithVectorDimensions sets the embedding dimensionality. Defaults to 1536.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (Redis only).
// Zero values leave the server defaults in place.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithThresholds sets the default similarity cut-offs for plain and expanded
// searches. Defaults: 0.4 and 0.3.
func WithThresholds(plain, expanded float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = plain
		c.expandedThreshold = expanded
	})
}

// WithImportPoolSize bounds concurrent embeddings during Import. Default: 4.
func WithImportPoolSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.importPoolSize = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
