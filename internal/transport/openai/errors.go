package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/signalsearch/internal/domain"
)

// classify maps a client error onto the domain sentinels. Everything wraps
// domain.ErrEmbeddingProviderError; HTTP 429 also wraps domain.ErrRateLimited.
func classify(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return httpError(reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return httpError(apiErr.HTTPStatusCode, apiErr.Message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("embedding request: %w: %w", err, domain.ErrEmbeddingProviderError)
	}
	return fmt.Errorf("embedding request failed: %w", domain.ErrEmbeddingProviderError)
}

func httpError(code int, detail string) error {
	err := fmt.Errorf("embedding API error %d: %s: %w", code, detail, domain.ErrEmbeddingProviderError)
	if code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}

// extractDetail reads the "detail" member some compatible servers return instead of "error".
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	return parsed.Detail
}
