package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled regexes for JSON repair. These cover the common syntax errors
// models produce; deeply broken output falls through to the next strategy.
var (
	// "value"\n"key": -> "value",\n"key":
	missingCommaBeforeKeyRegex = regexp.MustCompile(`(")\s*\n\s*("[\w][^"]*"\s*:)`)

	// 123\n"key": -> 123,\n"key":
	missingCommaAfterValueRegex = regexp.MustCompile(`(\d|true|false|null)\s*\n\s*("[\w][^"]*"\s*:)`)

	// ,} -> } and ,] -> ]
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	// {'key': -> {"key":
	singleQuoteKeyRegex = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)

	// : 'value' -> : "value"
	singleQuoteValueRegex = regexp.MustCompile(`(:\s*)'((?:[^'\\]|\\.)*)'(\s*[,}\]])`)
)

// repairJSON attempts to fix common JSON syntax errors from LLM output:
// literal control characters inside strings, missing or trailing commas,
// single-quoted keys and values, and truncation.
func repairJSON(input string) string {
	result := sanitizeControlChars(input)

	result = missingCommaBeforeKeyRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterValueRegex.ReplaceAllString(result, `$1, $2`)
	result = trailingCommaRegex.ReplaceAllString(result, `$1`)
	result = singleQuoteKeyRegex.ReplaceAllString(result, `$1"$2"$3`)

	result = singleQuoteValueRegex.ReplaceAllStringFunc(result, func(match string) string {
		parts := singleQuoteValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		value := parts[2]
		value = strings.ReplaceAll(value, `\'`, `'`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return parts[1] + `"` + value + `"` + parts[3]
	})

	return fixTruncatedJSON(result)
}

// sanitizeControlChars escapes literal control characters inside JSON
// strings. Models often emit raw tabs and newlines, which are invalid there.
func sanitizeControlChars(input string) string {
	var result strings.Builder
	result.Grow(len(input))

	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		c := input[i]

		if escaped {
			result.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			result.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			result.WriteByte(c)
			continue
		}

		if inString {
			switch c {
			case '\t':
				result.WriteString(`\t`)
			case '\n':
				result.WriteString(`\n`)
			case '\r':
				result.WriteString(`\r`)
			default:
				if c < 0x20 {
					result.WriteString(fmt.Sprintf(`\u%04x`, c))
				} else {
					result.WriteByte(c)
				}
			}
		} else {
			result.WriteByte(c)
		}
	}

	return result.String()
}

// fixTruncatedJSON closes strings, brackets, and braces left open when the
// model output was cut off mid-structure.
func fixTruncatedJSON(input string) string {
	quoteCount := 0
	escaped := false
	for _, c := range input {
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			quoteCount++
		}
	}

	if quoteCount%2 != 0 {
		input = input + `"`
	}

	openBrackets := strings.Count(input, "[") - strings.Count(input, "]")
	openBraces := strings.Count(input, "{") - strings.Count(input, "}")

	for i := 0; i < openBrackets; i++ {
		input = input + "]"
	}
	for i := 0; i < openBraces; i++ {
		input = input + "}"
	}

	return input
}
