package health

import "context"

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks provider availability.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Gate reports whether a lazily initialized provider has loaded.
type Gate interface {
	Name() string
	IsReady() bool
}
