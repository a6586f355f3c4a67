package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.Render("Focus on {{.theme}} with a {{.tone}} tone.", map[string]any{
		"theme": "patience",
		"tone":  "gentle",
	})
	require.NoError(t, err)
	assert.Equal(t, "Focus on patience with a gentle tone.", out)
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.Render("before {{.missing}} after", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "before  after", out)
}

func TestRenderJoinsLists(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.Render("{{.themes}}", map[string]any{
		"themes": []string{"calm", "focus"},
	})
	require.NoError(t, err)
	assert.Equal(t, "- calm\n- focus", out)
}

func TestRenderSerializesScalars(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.Render("{{.count}} {{.ratio}} {{.on}}", map[string]any{
		"count": 3,
		"ratio": 0.5,
		"on":    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "3 0.5 true", out)
}

func TestRenderStructuredValuesAsJSON(t *testing.T) {
	engine := NewTemplateEngine()

	out, err := engine.Render("{{.extra}}", map[string]any{
		"extra": map[string]string{"mood": "bright"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mood":"bright"}`, out)
}

func TestRenderBadTemplateErrors(t *testing.T) {
	engine := NewTemplateEngine()

	_, err := engine.Render("{{.unclosed", nil)
	assert.Error(t, err)
}
