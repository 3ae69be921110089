package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p := c.HTTP.Port; p <= 0 || p > 65535 {
		fail("http.port must be between 1 and 65535, got %d", p)
	}
	if len(c.Redis.Addrs) == 0 {
		fail("redis.addrs is required")
	}
	if c.Postgres.DSN == "" {
		fail("postgres.dsn is required")
	}

	switch c.Reranker.Kind {
	case "local", "none":
	case "http":
		if _, err := url.ParseRequestURI(c.Reranker.URL); err != nil {
			fail("reranker.url must be a valid URL when kind is %q, got %q", "http", c.Reranker.URL)
		}
	default:
		fail("reranker.kind must be one of http, local, none, got %q", c.Reranker.Kind)
	}
	if c.Reranker.RateRPS < 0 {
		fail("reranker.rate_rps must not be negative, got %g", c.Reranker.RateRPS)
	}
	if r := c.Reranker.Breaker.FailureRatio; r < 0 || r > 1 {
		fail("reranker.breaker.failure_ratio must be between 0 and 1, got %g", r)
	}

	return errors.Join(errs...)
}
