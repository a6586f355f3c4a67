package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upliftlab/affirmd/internal/kvstore"
)

func newStoreWithTemplate(t *testing.T, key, text string) kvstore.Store {
	t.Helper()
	store, err := kvstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if key != "" {
		_, err = store.CreateEntry(context.Background(), key, kvstore.TextValue(text))
		require.NoError(t, err)
	}
	return store
}

func TestRenderFromStore(t *testing.T) {
	store := newStoreWithTemplate(t, "af-01.prompt.default", "Affirm {{.themes}} now.")
	r := NewRenderer(store, nil)

	rendered, err := r.Render(context.Background(), Lookup{
		Key:            "prompt",
		Version:        "af-01",
		Implementation: "default",
		Variables:      map[string]any{"themes": "courage"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Affirm courage now.", rendered.Output)
	assert.Equal(t, "courage", rendered.Variables["themes"])
}

func TestRenderTemplateNotFound(t *testing.T) {
	store := newStoreWithTemplate(t, "", "")
	r := NewRenderer(store, nil)

	_, err := r.Render(context.Background(), Lookup{
		Key:            "prompt",
		Version:        "af-01",
		Implementation: "default",
	})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestResolveTemplateUsesStore(t *testing.T) {
	store := newStoreWithTemplate(t, "af-01.prompt.default", "stored template")
	r := NewRenderer(store, nil)

	out, err := ResolveTemplate(context.Background(), r, Lookup{
		Key:            "prompt",
		Version:        "af-01",
		Implementation: "default",
	}, func() string { return "fallback" })
	require.NoError(t, err)
	assert.Equal(t, "stored template", out)
}

func TestResolveTemplateFallsBack(t *testing.T) {
	store := newStoreWithTemplate(t, "", "")
	r := NewRenderer(store, nil)

	out, err := ResolveTemplate(context.Background(), r, Lookup{
		Key:            "prompt",
		Version:        "af-01",
		Implementation: "experimental",
	}, func() string { return "fallback" })
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}

func TestFallbackUserPromptRendersTemplate(t *testing.T) {
	out := FallbackUserPrompt(DefaultTextTemplate, []string{"calm", "focus"}, "big week ahead")
	assert.Contains(t, out, "- calm\n- focus")
	assert.Contains(t, out, "big week ahead")
	assert.Contains(t, out, "paragraph")
	assert.NotContains(t, out, "JSON array")
}

func TestFallbackUserPromptBrokenTemplate(t *testing.T) {
	out := FallbackUserPrompt("{{.themes", []string{"calm", "focus"}, "big week ahead")
	assert.Contains(t, out, "calm, focus")
	assert.Contains(t, out, "big week ahead")
}
