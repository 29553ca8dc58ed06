// Package router resolves hint tokens to concrete (provider, model) pairs
// and drives the fallback chain across providers on retriable failure,
// per spec.md §4.5: an ordered provider chain with per-provider retry
// counts and hint indirection.
package router

import (
	"strings"

	"github.com/nullclaw/nullclaw/internal/logger"
)

const hintPrefix = "hint:"

// Route is one configured hint mapping: hint name -> provider name + model.
type Route struct {
	Hint         string
	ProviderName string
	Model        string
}

// ResolvedRoute is the outcome of resolving a model token: an index into
// the caller's provider list and the model name to send.
type ResolvedRoute struct {
	ProviderIndex int
	Model         string
}

// Router builds the hint map at construction and resolves model tokens
// against it. It never mutates after NewRouter returns.
type Router struct {
	hints map[string]ResolvedRoute
}

// NewRouter builds hint -> (provider-index, model) by looking up each
// route's provider name in providerNames. Routes naming an unknown
// provider are discarded silently, per invariant 1 in spec.md §3.
func NewRouter(routes []Route, providerNames []string) *Router {
	index := make(map[string]int, len(providerNames))
	for i, name := range providerNames {
		index[name] = i
	}

	hints := make(map[string]ResolvedRoute, len(routes))
	for _, r := range routes {
		i, ok := index[r.ProviderName]
		if !ok {
			logger.WarnCF("router", "discarding route with unknown provider", map[string]interface{}{
				"hint":     r.Hint,
				"provider": r.ProviderName,
			})
			continue
		}
		hints[r.Hint] = ResolvedRoute{ProviderIndex: i, Model: r.Model}
	}

	return &Router{hints: hints}
}

// Resolve implements §4.5's resolution rule and testable property P7: a
// token not starting with "hint:" resolves to (0, token) unchanged. A
// "hint:<name>" token resolves via the hint map on hit; on miss it
// degrades silently to (0, token) with the prefix left intact — a miss
// is not an error.
func (r *Router) Resolve(token string) ResolvedRoute {
	suffix, ok := strings.CutPrefix(token, hintPrefix)
	if !ok {
		return ResolvedRoute{ProviderIndex: 0, Model: token}
	}
	if route, ok := r.hints[suffix]; ok {
		return route
	}
	return ResolvedRoute{ProviderIndex: 0, Model: token}
}
