// Package agent resolves the effective model configuration for one
// (version, implementation) pair from the config store, with caller-supplied
// defaults for anything unconfigured.
package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/upliftlab/affirmd/internal/kvstore"
)

// Resolver reads per-version model settings from the config store. Every
// accessor treats an absent key as a normal outcome, never an error.
type Resolver struct {
	store kvstore.Store
}

// NewResolver builds a resolver over the given store.
func NewResolver(store kvstore.Store) *Resolver {
	return &Resolver{store: store}
}

// ModelName returns the stored model name for the pair, ok=false when none is
// configured.
func (r *Resolver) ModelName(ctx context.Context, version, implementation string) (string, bool) {
	text, ok, err := r.store.Text(ctx, kvstore.EncodeKey(version, kvstore.KeyModelName, implementation))
	if err != nil || !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// Temperature returns the stored temperature for the pair, or fallback when
// the key is absent or does not parse as a float. There is no global default
// temperature; each experiment carries its own.
func (r *Resolver) Temperature(ctx context.Context, version, implementation string, fallback float64) float64 {
	text, ok, err := r.store.Text(ctx, kvstore.EncodeKey(version, kvstore.KeyTemperature, implementation))
	if err != nil || !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return fallback
	}
	return v
}

// SystemPrompt returns the stored system prompt for the pair, ok=false when
// none is configured.
func (r *Resolver) SystemPrompt(ctx context.Context, version, implementation string) (string, bool) {
	text, ok, err := r.store.Text(ctx, kvstore.EncodeKey(version, kvstore.KeySystemPrompt, implementation))
	if err != nil || !ok {
		return "", false
	}
	return text, true
}
