// Package parse coerces raw model output into structured results. LLM output
// is not contractually structured, so each entry point walks an ordered
// ladder of strategies, from strict JSON down to a fixed default set, and
// never returns an empty result.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// TaggedResult pairs an affirmation list with its tag list.
type TaggedResult struct {
	Tags         []string `json:"tags"`
	Affirmations []string `json:"affirmations"`
}

// defaultAffirmations is the last-resort output when no strategy recovers
// anything. An irrelevant affirmation beats an empty screen.
var defaultAffirmations = []string{
	"I am capable of handling whatever today brings.",
	"I grow a little stronger every single day.",
	"I deserve patience and kindness, including from myself.",
}

var (
	// Quoted string literals inside a matched array span.
	quotedStringRegex = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	// Field-scoped array matches; [^\]]* also catches truncated arrays that
	// never close.
	tagsFieldRegex         = regexp.MustCompile(`"tags"\s*:\s*\[([^\]]*)`)
	affirmationsFieldRegex = regexp.MustCompile(`"affirmations"\s*:\s*\[([^\]]*)`)

	// Leading list markers: "1.", "2)", "3:", "-", "*", "•".
	listLineRegex = regexp.MustCompile(`^\s*(?:\d+\s*[.):]|\d+\s+|[-*•])\s*(.+?)\s*$`)

	// A whole line wrapped in quotes, with optional trailing comma.
	quotedLineRegex = regexp.MustCompile(`^\s*"(.+)"\s*,?\s*$`)
)

// List extracts a flat affirmation list. Strategies, first success wins:
// strict JSON (bare array or {"affirmations": [...]}), field-scoped regex
// recovery, numbered/bulleted line parsing, default set.
func List(raw string) []string {
	if arr, ok := jsonList(raw); ok {
		return arr
	}
	if arr := fieldStrings(affirmationsFieldRegex, raw); len(arr) > 0 {
		return arr
	}
	if arr := listLines(raw); len(arr) > 0 {
		return arr
	}
	return defaultAffirmations
}

// Tagged extracts an affirmation list plus tags. Tags may come back empty;
// affirmations never do.
func Tagged(raw string) TaggedResult {
	if res, ok := jsonTagged(raw); ok {
		return res
	}

	res := TaggedResult{
		Tags:         fieldStrings(tagsFieldRegex, raw),
		Affirmations: fieldStrings(affirmationsFieldRegex, raw),
	}
	if len(res.Affirmations) == 0 {
		res.Affirmations = listLines(raw)
	}
	if len(res.Affirmations) == 0 {
		res.Affirmations = defaultAffirmations
	}
	return res
}

// Text extracts a single text block. A JSON-encoded string or a {"text": ...}
// object is unwrapped; anything else comes back trimmed as-is, except for a
// blank response which falls back to the first default affirmation.
func Text(raw string) string {
	cleaned := cleanResponse(raw)

	var asString string
	if err := json.Unmarshal([]byte(cleaned), &asString); err == nil && strings.TrimSpace(asString) != "" {
		return strings.TrimSpace(asString)
	}

	var asObject struct {
		Text string `json:"text"`
	}
	if body, ok := jsonSlice(cleaned); ok {
		if err := json.Unmarshal([]byte(body), &asObject); err == nil && strings.TrimSpace(asObject.Text) != "" {
			return strings.TrimSpace(asObject.Text)
		}
	}

	if cleaned == "" {
		return defaultAffirmations[0]
	}
	return cleaned
}

// jsonList attempts strict JSON extraction of a string list, accepting either
// a bare array or an object carrying an affirmations array.
func jsonList(raw string) ([]string, bool) {
	body, ok := jsonSlice(cleanResponse(raw))
	if !ok {
		return nil, false
	}

	if arr, ok := decodeStrings(body); ok {
		return arr, true
	}

	var wrapper struct {
		Affirmations []string `json:"affirmations"`
	}
	if ok := decodeInto(body, &wrapper); ok && len(wrapper.Affirmations) > 0 {
		return wrapper.Affirmations, true
	}
	return nil, false
}

// jsonTagged attempts strict JSON extraction of a tags+affirmations object.
// Both fields must be present as arrays for the strict pass to win.
func jsonTagged(raw string) (TaggedResult, bool) {
	body, ok := jsonSlice(cleanResponse(raw))
	if !ok {
		return TaggedResult{}, false
	}

	var res struct {
		Tags         *[]string `json:"tags"`
		Affirmations *[]string `json:"affirmations"`
	}
	if ok := decodeInto(body, &res); !ok || res.Tags == nil || res.Affirmations == nil {
		return TaggedResult{}, false
	}
	if len(*res.Affirmations) == 0 {
		return TaggedResult{}, false
	}
	return TaggedResult{Tags: *res.Tags, Affirmations: *res.Affirmations}, true
}

// jsonSlice bounds the candidate JSON substring: from the first { or [ to the
// end of the cleaned text. The decoder ignores trailing prose after the
// closing brace.
func jsonSlice(cleaned string) (string, bool) {
	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return "", false
	}
	return cleaned[idx:], true
}

func decodeStrings(body string) ([]string, bool) {
	var arr []string
	if ok := decodeInto(body, &arr); ok && len(arr) > 0 {
		return arr, true
	}
	return nil, false
}

// decodeInto decodes a single JSON value from body, tolerating trailing text
// and, failing that, a repaired variant of the body.
func decodeInto(body string, v any) bool {
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(v); err == nil {
		return true
	}
	repaired := repairJSON(body)
	if repaired == body {
		return false
	}
	dec = json.NewDecoder(strings.NewReader(repaired))
	return dec.Decode(v) == nil
}

// fieldStrings recovers quoted string literals from a field-scoped array
// match, handling truncated or otherwise malformed JSON that still contains a
// well-formed sub-array.
func fieldStrings(field *regexp.Regexp, raw string) []string {
	m := field.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var out []string
	for _, q := range quotedStringRegex.FindAllStringSubmatch(m[1], -1) {
		var s string
		// Re-parse through the JSON decoder so escapes inside the literal
		// come out right.
		if err := json.Unmarshal([]byte(`"`+q[1]+`"`), &s); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// listLines parses numbered, bulleted, or quoted lines in order.
func listLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		var item string
		if m := listLineRegex.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else if m := quotedLineRegex.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else {
			continue
		}
		item = strings.Trim(item, `"`)
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// cleanResponse trims whitespace and strips markdown code fences.
func cleanResponse(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```json") {
		raw = strings.TrimPrefix(raw, "```json")
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
	}
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
