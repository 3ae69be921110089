package signalsearch

import "github.com/kailas-cloud/signalsearch/internal/domain"

// Errors returned by the client. Match them with errors.Is.
var (
	// ErrNotFound: the signal is not in Postgres, or not in the index.
	ErrNotFound = domain.ErrNotFound
	// ErrInvalidRequest: the request failed validation. The message names the field.
	ErrInvalidRequest = domain.ErrInvalidRequest
	// ErrIndexing: the index write failed after the embedding succeeded.
	ErrIndexing = domain.ErrIndexing
	// ErrRateLimited: a provider refused the call.
	ErrRateLimited = domain.ErrRateLimited
	// ErrEmbeddingProviderError: the embedding call failed while indexing.
	// Searches degrade to BM25 instead.
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	// ErrProviderNotReady: a provider has not finished loading.
	ErrProviderNotReady = domain.ErrProviderNotReady
	// ErrRerankUnavailable is never returned by Search; it shows up in logs when
	// reranking was skipped.
	ErrRerankUnavailable = domain.ErrRerankUnavailable
)
