package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maypok86/otter"
	"github.com/rs/zerolog"

	"github.com/chris/shopbot/internal/metrics"
)

// DefaultFallback is substituted whenever a category cannot be matched.
const DefaultFallback = "smartphones"

const categoriesKey = "categories"

type CategorySource interface {
	Categories(ctx context.Context) ([]string, error)
}

// Resolver maps a user-supplied category onto a live catalog category.
type Resolver struct {
	source   CategorySource
	fallback string
	cache    *otter.Cache[string, []string] // nil: fetch on every call
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

type ResolverOption func(*Resolver)

func WithFallback(category string) ResolverOption {
	return func(r *Resolver) {
		if category != "" {
			r.fallback = category
		}
	}
}

func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a resolver over source. A positive cacheTTL keeps the
// fetched category list for that long; zero fetches it on every resolution.
func NewResolver(source CategorySource, cacheTTL time.Duration, opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{source: source, fallback: DefaultFallback, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	if cacheTTL > 0 {
		cache, err := otter.MustBuilder[string, []string](16).
			WithTTL(cacheTTL).
			Build()
		if err != nil {
			return nil, fmt.Errorf("building category cache: %w", err)
		}
		r.cache = &cache
	}
	return r, nil
}

func (r *Resolver) Fallback() string {
	return r.fallback
}

// Resolve returns the catalog category equal to userCategory ignoring case,
// else the first one (in catalog order) that contains userCategory or is
// contained by it, ignoring case. Empty input
// returns the fallback without touching the catalog; a failed fetch is
// treated as an empty list.
func (r *Resolver) Resolve(ctx context.Context, userCategory string) string {
	if userCategory == "" {
		r.metrics.Resolution("empty")
		return r.fallback
	}

	candidates, err := r.categories(ctx)
	outcome := "fallback"
	if err != nil {
		r.log.Warn().Err(err).Msg("fetching categories failed, using fallback")
		outcome = "fetch_error"
	}

	for _, candidate := range candidates {
		if candidate != "" && strings.EqualFold(candidate, userCategory) {
			r.log.Debug().Str("category", userCategory).Str("resolved", candidate).Msg("category matched")
			r.metrics.Resolution("matched")
			return candidate
		}
	}

	want := strings.ToLower(userCategory)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		have := strings.ToLower(candidate)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			r.log.Debug().Str("category", userCategory).Str("resolved", candidate).Msg("category matched")
			r.metrics.Resolution("matched")
			return candidate
		}
	}

	r.log.Debug().Str("category", userCategory).Str("resolved", r.fallback).Msg("category fell back")
	r.metrics.Resolution(outcome)
	return r.fallback
}

// Invalidate drops the cached category list, if any.
func (r *Resolver) Invalidate() {
	if r.cache != nil {
		r.cache.Delete(categoriesKey)
	}
}

// categories never caches a failed fetch.
func (r *Resolver) categories(ctx context.Context) ([]string, error) {
	if r.cache != nil {
		if list, ok := r.cache.Get(categoriesKey); ok {
			return list, nil
		}
	}
	list, err := r.source.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(categoriesKey, list)
	}
	return list, nil
}
