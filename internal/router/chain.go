package router

import (
	"context"
	"errors"
	"time"

	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/providers"
)

// retriable reports whether err should be retried at the same provider
// before advancing the fallback chain, per spec.md §7: transient
// network / upstream-5xx / rate-limit are retriable; everything else
// (credentials, malformed response) is not.
func retriable(err error) bool {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retriable()
	}
	// Network errors and anything else not classified as a hard API
	// error are treated as transient, matching the taxonomy's default.
	return true
}

// ModelFallback pairs a model with its ordered list of fallback models
// at the SAME provider, tried before the chain steps to the next
// fallback provider.
type ModelFallback struct {
	Model     string
	Fallbacks []string
}

// Chain drives the fallback sequence over an ordered list of providers,
// per spec.md §4.5. Backoff between retries and between provider
// switches is unchanged; the retry count is per-provider, not global.
type Chain struct {
	Providers      []providers.Provider
	Retries        int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	ModelFallbacks map[string][]string
}

// Run attempts req against start (the resolved provider index and
// model), retrying up to Retries times on a retriable failure, then
// stepping through req's model-fallback list at the same provider, then
// advancing to each subsequent provider in Providers in turn. It returns
// the first successful response or the last classified error. A
// non-retriable failure aborts the ENTIRE chain immediately, per §4.5.
func (c *Chain) Run(ctx context.Context, req providers.ChatRequest, start ResolvedRoute) (*providers.ChatResponse, error) {
	models := append([]string{start.Model}, c.ModelFallbacks[start.Model]...)

	var lastErr error
	for providerOffset := 0; providerOffset+start.ProviderIndex < len(c.Providers); providerOffset++ {
		providerIndex := start.ProviderIndex + providerOffset
		provider := c.Providers[providerIndex]

		modelList := models
		if providerOffset > 0 {
			// Subsequent fallback providers resolve their own default
			// model rather than reusing the first provider's model name.
			modelList = []string{""}
		}

		for _, model := range modelList {
			attemptReq := req
			attemptReq.Model = model

			resp, err := c.attemptWithRetry(ctx, provider, attemptReq)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if !retriable(err) {
				return nil, err
			}
			logger.WarnCF("router", "provider attempt exhausted, advancing fallback chain", logger.Fields{
				"provider": provider.Name(),
				"model":    model,
				"error":    err.Error(),
			})
		}
	}

	return nil, lastErr
}

// attemptWithRetry retries a single provider+model combination up to
// c.Retries times on retriable failure, waiting c.BackoffBase-derived
// backoff between attempts.
func (c *Chain) attemptWithRetry(ctx context.Context, provider providers.Provider, req providers.ChatRequest) (*providers.ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		resp, err := provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retriable(err) {
			return nil, err
		}
		if attempt == c.Retries {
			break
		}
		wait := ComputeBackoff(attempt+1, c.BackoffBase, c.BackoffCap)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}
