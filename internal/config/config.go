// Package config loads the YAML configuration shared by every binary.
package config

// Config holds the signalsearch configuration shared by the API server, the indexer and the CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	NATS      NATSConfig      `yaml:"nats"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. With no keys at all the API is open.
// When IndexAPIKeys is set, only those keys may call the /signals routes.
type AuthConfig struct {
	APIKeys      []string `yaml:"api_keys"`
	IndexAPIKeys []string `yaml:"index_api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RedisConfig holds the Redis Query Engine connection and index settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	IndexName        string   `yaml:"index_name"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// PostgresConfig holds the signal store connection settings.
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
	EnsureSchema    bool   `yaml:"ensure_schema"`
}

// NATSConfig holds index event settings.
type NATSConfig struct {
	URL            string `yaml:"url"`
	CreatedSubject string `yaml:"created_subject"`
	DeletedSubject string `yaml:"deleted_subject"`
	QueueGroup     string `yaml:"queue_group"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Cache               bool   `yaml:"cache"`
}

// RerankerConfig holds reranker provider settings.
type RerankerConfig struct {
	Kind       string        `yaml:"kind"` // http, local, none (default: local)
	URL        string        `yaml:"url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	TimeoutSec int           `yaml:"timeout_sec"`
	RateRPS    float64       `yaml:"rate_rps"` // 0 = unlimited
	RateBurst  int           `yaml:"rate_burst"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the reranker.
type BreakerConfig struct {
	Enabled        bool    `yaml:"enabled"`
	MinRequests    uint32  `yaml:"min_requests"`
	FailureRatio   float64 `yaml:"failure_ratio"`
	OpenTimeoutSec int     `yaml:"open_timeout_sec"`
}

// SearchConfig holds pipeline tuning.
type SearchConfig struct {
	RetrievalTimeoutMs int  `yaml:"retrieval_timeout_ms"`
	WhitespaceWorkers  int  `yaml:"whitespace_workers"`
	ReindexWorkers     int  `yaml:"reindex_workers"`
	DeterministicTies  bool `yaml:"deterministic_ties"`
	AnalyticsTTLDays   int  `yaml:"analytics_ttl_days"`
}
