package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Engine renders stored template text against a variable bag. The renderer
// takes it as a dependency so the placeholder syntax can be swapped without
// touching call sites.
type Engine interface {
	Render(text string, vars map[string]any) (string, error)
}

// TemplateEngine is the default Engine, backed by text/template. Placeholders
// use the {{.name}} form. Missing variables render as the empty string, never
// as an error.
type TemplateEngine struct{}

// NewTemplateEngine returns the default template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Render executes the template against a normalized copy of vars. Every value
// is flattened to a string first, so a missing key yields the string zero
// value under missingkey=zero.
func (e *TemplateEngine) Render(text string, vars map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	flattened := make(map[string]string, len(vars))
	for name, v := range vars {
		flattened[name] = stringify(v)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, flattened); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// stringify flattens a variable to template-ready text: strings pass through,
// lists join as bulleted lines, scalars print plainly, and anything
// structured is JSON-encoded for debugging echoes.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return joinList(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			items = append(items, stringify(it))
		}
		return joinList(items)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func joinList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(it)
	}
	return b.String()
}
