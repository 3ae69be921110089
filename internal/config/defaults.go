package config

// orDefault sets *field to def when it holds the zero value or, for numbers, a negative one.
func orDefault[T int | float64 | string](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
		return
	}
	switch v := any(*field).(type) {
	case int:
		if v < 0 {
			*field = def
		}
	case float64:
		if v < 0 {
			*field = def
		}
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	orDefault(&c.HTTP.Port, 8080)
	orDefault(&c.HTTP.ReadTimeoutSec, 10)
	orDefault(&c.HTTP.WriteTimeoutSec, 30)
	orDefault(&c.HTTP.ShutdownSec, 10)

	orDefault(&c.Redis.ReadinessTimeout, 10)
	orDefault(&c.Redis.KeyPrefix, "signalsearch:")
	orDefault(&c.Redis.IndexName, c.Redis.KeyPrefix+"signals:idx")
	orDefault(&c.Redis.HNSWM, 16)
	orDefault(&c.Redis.HNSWEFConstruct, 200)

	orDefault(&c.Postgres.MaxOpenConns, 10)
	orDefault(&c.Postgres.MaxIdleConns, c.Postgres.MaxOpenConns)
	orDefault(&c.Postgres.ConnMaxLifetime, 1800)

	orDefault(&c.NATS.CreatedSubject, "signals.created")
	orDefault(&c.NATS.DeletedSubject, "signals.deleted")
	orDefault(&c.NATS.QueueGroup, "indexers")

	orDefault(&c.Embedding.Provider, "openai")
	orDefault(&c.Embedding.Dimensions, 384)

	orDefault(&c.Reranker.Kind, "local")
	orDefault(&c.Reranker.TimeoutSec, 10)
	orDefault(&c.Reranker.RateBurst, 1)

	orDefault(&c.Search.RetrievalTimeoutMs, 5000)
	orDefault(&c.Search.WhitespaceWorkers, 6)
	orDefault(&c.Search.ReindexWorkers, 8)
	orDefault(&c.Search.AnalyticsTTLDays, 30)
}
