// Package llm implements the multi-provider LLM Router (spec.md §4.8):
// tag-preferred-then-priority routing across registered providers, each
// attempt wrapped in its own resilience chain, with fallback to the next
// provider on failure.
package llm

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yungbote/chatcortex/internal/pkg/httpx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Result is what the router hands back to callers: content plus usage and
// which provider served the request (surfaced only for debug reporting per
// spec.md §4.8).
type Result struct {
	Content      string
	Usage        Usage
	ProviderName string
}

// Provider is one registered backend.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (Result, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (Result, error)
}

// Registration describes one provider's routing metadata.
type Registration struct {
	Provider Provider
	Type     string
	Priority int
	Tags     []string
}

var ErrNoProvider = errors.New("llm: no registered provider could serve the request")

// Router holds registered providers and dispatches by preferred-tag then
// priority, retrying the next provider on failure.
type Router struct {
	regs []Registration
	log  *logger.Logger
}

func NewRouter(log *logger.Logger) *Router {
	return &Router{log: log.With("component", "llm.Router")}
}

func (r *Router) Register(reg Registration) {
	r.regs = append(r.regs, reg)
}

// order returns registrations for a request, tag-matching ones first
// (each group sorted by descending priority).
func (r *Router) order(preferredTag string) []Registration {
	var tagged, untagged []Registration
	for _, reg := range r.regs {
		if preferredTag != "" && hasTag(reg.Tags, preferredTag) {
			tagged = append(tagged, reg)
		} else {
			untagged = append(untagged, reg)
		}
	}
	sort.SliceStable(tagged, func(i, j int) bool { return tagged[i].Priority > tagged[j].Priority })
	sort.SliceStable(untagged, func(i, j int) bool { return untagged[i].Priority > untagged[j].Priority })
	return append(tagged, untagged...)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GenerateText routes a free-text completion request.
func (r *Router) GenerateText(ctx context.Context, preferredTag, systemPrompt, userPrompt string) (Result, error) {
	return r.dispatch(ctx, preferredTag, func(p Provider, cctx context.Context) (Result, error) {
		return p.GenerateText(cctx, systemPrompt, userPrompt)
	})
}

// GenerateJSON routes a strictly-JSON completion request (fact extraction,
// profile generation).
func (r *Router) GenerateJSON(ctx context.Context, preferredTag, systemPrompt, userPrompt string) (Result, error) {
	return r.dispatch(ctx, preferredTag, func(p Provider, cctx context.Context) (Result, error) {
		return p.GenerateJSON(cctx, systemPrompt, userPrompt)
	})
}

func (r *Router) dispatch(ctx context.Context, preferredTag string, call func(Provider, context.Context) (Result, error)) (Result, error) {
	order := r.order(preferredTag)
	if len(order) == 0 {
		return Result{}, ErrNoProvider
	}

	var lastErr error
	for _, reg := range order {
		res, err := r.callWithResilience(ctx, reg.Provider, call)
		if err == nil {
			return res, nil
		}
		r.log.Warn("provider failed, advancing to next", "provider", reg.Provider.Name(), "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoProvider
	}
	return Result{}, lastErr
}

// callWithResilience applies a per-attempt timeout and jittered retry, the
// same shape as the embedding client's chain but without the shared
// concurrency limiter (LLM providers are typically rate-limited per-key,
// not globally serialized).
func (r *Router) callWithResilience(ctx context.Context, p Provider, call func(Provider, context.Context) (Result, error)) (Result, error) {
	const maxAttempts = 3
	const attemptTimeout = 60 * time.Second
	const baseDelay = time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		res, err := call(p, attemptCtx)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if !httpx.IsRetryableError(err) {
			return Result{}, err
		}
		if attempt == maxAttempts {
			break
		}
		delay := httpx.JitterSleep(baseDelay * time.Duration(1<<uint(attempt-1)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{}, lastErr
}
