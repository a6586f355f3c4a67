// Package prompt renders stored prompt templates against request-scoped
// variables, falling back to hardcoded defaults when the config store has no
// entry for a lookup.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/upliftlab/affirmd/internal/kvstore"
)

// ErrTemplateNotFound is returned when no template text is stored for a
// lookup. Callers either propagate it (hard dependency on the store) or catch
// it and build a hardcoded prompt (soft dependency); both patterns are valid.
var ErrTemplateNotFound = errors.New("template not found")

// Lookup identifies one stored template plus the variables to substitute.
type Lookup struct {
	Key            string
	Version        string
	Implementation string
	Variables      map[string]any
}

// Rendered is the output of one render: the substituted text plus the
// variable bag that was resolved into it.
type Rendered struct {
	Output    string
	Variables map[string]any
}

// Renderer fetches template text from the store and substitutes variables.
type Renderer struct {
	store  kvstore.Store
	engine Engine
}

// NewRenderer builds a renderer over the given store. A nil engine selects
// the default text/template engine.
func NewRenderer(store kvstore.Store, engine Engine) *Renderer {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	return &Renderer{store: store, engine: engine}
}

// Render fetches the template stored under
// <version>.<key>.<implementation> and substitutes the lookup's variables.
func (r *Renderer) Render(ctx context.Context, lookup Lookup) (Rendered, error) {
	fullKey := kvstore.EncodeKey(lookup.Version, lookup.Key, lookup.Implementation)

	text, ok, err := r.store.Text(ctx, fullKey)
	if err != nil {
		return Rendered{}, fmt.Errorf("fetch template %s: %w", fullKey, err)
	}
	if !ok {
		return Rendered{}, fmt.Errorf("key %s: %w", fullKey, ErrTemplateNotFound)
	}

	output, err := r.engine.Render(text, lookup.Variables)
	if err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", fullKey, err)
	}
	return Rendered{Output: output, Variables: lookup.Variables}, nil
}

// ResolveTemplate is the shared try-store-then-fall-back helper. It renders
// the lookup and, when the store has no template for it, substitutes the
// hardcoded fallback instead. Store I/O failures and genuine template errors
// still propagate.
func ResolveTemplate(ctx context.Context, r *Renderer, lookup Lookup, fallback func() string) (string, error) {
	rendered, err := r.Render(ctx, lookup)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return fallback(), nil
		}
		return "", err
	}
	return rendered.Output, nil
}
