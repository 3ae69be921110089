package signalsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	postgresDSN string

	embedder     Embedder
	openAI       *openAIConfig
	instructions instructions

	reranker     Reranker
	rerankURL    string
	rerankModel  string
	rerankAPIKey string
	noRerank     bool

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	baseURL string
	apiKey  string
	model   string
}

type instructions struct {
	document string
	query    string
}

// WithRedis sets the Redis instance holding the search index. Required.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces every Redis key. Default: "signalsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithPostgres sets the signal store DSN. Required.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.postgresDSN = dsn
	})
}

// WithEmbedder sets a custom embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses an OpenAI-compatible embeddings endpoint. Vectors are cached in Redis.
func WithOpenAI(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{baseURL: baseURL, apiKey: apiKey, model: model}
	})
}

// WithInstructions sets the prefixes prepended to document and query text before
// embedding. They must match those of any other process writing the same index.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.instructions = instructions{document: document, query: query}
	})
}

// WithReranker sets a custom reranker. The client applies its rate limit and breaker
// only to rerankers it builds itself.
func WithReranker(r Reranker) Option {
	return optionFunc(func(c *clientConfig) {
		c.reranker = r
	})
}

// WithRerankServer uses an HTTP cross-encoder server instead of the local token-overlap reranker.
func WithRerankServer(url, model, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerankURL = url
		c.rerankModel = model
		c.rerankAPIKey = apiKey
	})
}

// WithoutRerank disables reranking; results keep fusion order.
func WithoutRerank() Option {
	return optionFunc(func(c *clientConfig) {
		c.noRerank = true
	})
}

// WithVectorDimensions sets the embedding dimension of the index.
// Defaults to 384 (all-MiniLM-L6-v2).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithLogger enables structured logging for SDK operations and the engine.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
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
