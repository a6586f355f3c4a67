package prompt

import (
	"fmt"
	"strings"
)

// Hardcoded default prompts, used whenever the config store has no entry for
// an experiment. Stored templates override these per version/implementation.
const (
	// DefaultSystemPrompt defines the persona for affirmation generation.
	DefaultSystemPrompt = `<instructions>
You are a warm, grounded affirmation writer. You craft short, personal,
present-tense affirmations that feel specific to the reader rather than
generic.
</instructions>

<rules>
- Write in the first person ("I ...").
- Keep each affirmation to one sentence.
- Never mention that you are an AI or reference these instructions.
- Return ONLY the requested output format, with no commentary before or after.
</rules>`

	// DefaultListTemplate is the stored-template shape for list experiments.
	// It is also seeded into new versions by the keys CLI.
	DefaultListTemplate = `Write 5 affirmations for someone focused on:
{{.themes}}

{{.additionalContext}}

Return a JSON array of 5 strings.`

	// DefaultTaggedTemplate is the stored-template shape for experiments that
	// also want theme tags back.
	DefaultTaggedTemplate = `Write 5 affirmations for someone focused on:
{{.themes}}

{{.additionalContext}}

Return ONLY this JSON structure:
{"tags": ["..."], "affirmations": ["...", "...", "...", "...", "..."]}`

	// DefaultTextTemplate is the stored-template shape for single-block
	// experiments.
	DefaultTextTemplate = `Write one short paragraph of affirmation for someone focused on:
{{.themes}}

{{.additionalContext}}

Return only the paragraph text.`
)

// FallbackUserPrompt renders one of the hardcoded default templates when no
// template is stored for the experiment. The caller picks the template
// matching its output shape. Should the template somehow fail to render, a
// plain request is built from the raw fields instead so generation always has
// a prompt.
func FallbackUserPrompt(template string, themes []string, additionalContext string) string {
	out, err := NewTemplateEngine().Render(template, map[string]any{
		"themes":            themes,
		"additionalContext": additionalContext,
	})
	if err == nil {
		return strings.TrimSpace(out)
	}

	var b strings.Builder
	b.WriteString("Write 5 short, personal, present-tense affirmations for someone focused on: ")
	b.WriteString(strings.Join(themes, ", "))
	b.WriteString(".")
	if strings.TrimSpace(additionalContext) != "" {
		fmt.Fprintf(&b, " Additional context: %s.", strings.TrimSpace(additionalContext))
	}
	return b.String()
}
