package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrIndexing is the root of every indexing failure.
	ErrIndexing = errors.New("indexing failed")
	// ErrRetrieval signals one retrieval method was unreachable.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrRerankUnavailable signals the reranker provider is absent, not ready or failing.
	ErrRerankUnavailable = errors.New("rerank unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrProviderNotReady signals a lazily initialized provider has not loaded yet.
	ErrProviderNotReady = errors.New("provider not ready")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// Indexing operations reported by IndexError.
const (
	IndexOpValidate = "validate"
	IndexOpEmbed    = "embed"
	IndexOpUpsert   = "upsert"
	IndexOpRemove   = "remove"
)

// IndexError is returned by the indexer. It matches both ErrIndexing and its cause.
type IndexError struct {
	Op       string
	SignalID string
	Err      error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index signal %s: %s: %v", e.SignalID, e.Op, e.Err)
}

func (e *IndexError) Unwrap() []error { return []error{ErrIndexing, e.Err} }

// Pipeline stages named in degradation logs and metrics.
const (
	StageLexical = "lexical"
	StageVector  = "vector"
	StageRerank  = "rerank"
	StageEnrich  = "enrich"
)

// StageError records a degraded pipeline stage. It matches ErrRetrieval for retrieval stages.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() []error {
	if e.Stage == StageLexical || e.Stage == StageVector {
		return []error{ErrRetrieval, e.Err}
	}
	return []error{e.Err}
}

// InvalidRequestf formats a validation error that matches ErrInvalidRequest.
func InvalidRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
