package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStrictJSONArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, List(`["a", "b"]`))
}

func TestListStrictJSONObject(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, List(`{"affirmations": ["a", "b"]}`))
}

func TestListIgnoresSurroundingProse(t *testing.T) {
	raw := "Here are your affirmations:\n{\"affirmations\": [\"one\", \"two\"]}\nHope these help!"
	assert.Equal(t, []string{"one", "two"}, List(raw))
}

func TestListStripsMarkdownFences(t *testing.T) {
	raw := "```json\n[\"a\", \"b\"]\n```"
	assert.Equal(t, []string{"a", "b"}, List(raw))
}

func TestListNumberedLines(t *testing.T) {
	assert.Equal(t, []string{"First one", "Second one"}, List("1. First one\n2. Second one"))
}

func TestListBulletAndQuotedLines(t *testing.T) {
	raw := "- I am calm\n* I am steady\n\"I am focused\"\n• I am present"
	assert.Equal(t, []string{"I am calm", "I am steady", "I am focused", "I am present"}, List(raw))
}

func TestListParenAndColonMarkers(t *testing.T) {
	assert.Equal(t, []string{"alpha", "beta"}, List("1) alpha\n2: beta"))
}

func TestListUnstructuredFallsBackToDefaults(t *testing.T) {
	got := List("no structure here at all")
	require.NotEmpty(t, got, "parser must never return an empty list")
	assert.Equal(t, defaultAffirmations, got)
}

func TestListRepairsTrailingCommas(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, List(`["a", "b",]`))
}

func TestTaggedStrictJSON(t *testing.T) {
	got := Tagged(`{"tags": ["calm", "focus"], "affirmations": ["a", "b"]}`)
	assert.Equal(t, []string{"calm", "focus"}, got.Tags)
	assert.Equal(t, []string{"a", "b"}, got.Affirmations)
}

func TestTaggedTruncatedJSONRecoversTags(t *testing.T) {
	// Malformed JSON cut off mid-field: strategy 2 still recovers the
	// well-formed sub-array.
	got := Tagged(`{"tags": ["X"], "affirm`)
	assert.Equal(t, []string{"X"}, got.Tags)
	require.NotEmpty(t, got.Affirmations, "affirmations fall back to defaults")
}

func TestTaggedPartialArrays(t *testing.T) {
	raw := `{"tags": ["growth"], "affirmations": ["I grow", "I learn"` // truncated
	got := Tagged(raw)
	assert.Equal(t, []string{"growth"}, got.Tags)
	assert.Equal(t, []string{"I grow", "I learn"}, got.Affirmations)
}

func TestTaggedLineFallback(t *testing.T) {
	got := Tagged("1. One thing\n2. Another thing")
	assert.Empty(t, got.Tags)
	assert.Equal(t, []string{"One thing", "Another thing"}, got.Affirmations)
}

func TestTextUnwrapsJSONString(t *testing.T) {
	assert.Equal(t, "I am enough.", Text(`"I am enough."`))
}

func TestTextUnwrapsTextObject(t *testing.T) {
	assert.Equal(t, "I am enough.", Text(`{"text": "I am enough."}`))
}

func TestTextReturnsTrimmedRaw(t *testing.T) {
	assert.Equal(t, "Just a plain paragraph.", Text("  Just a plain paragraph.  \n"))
}

func TestTextEmptyFallsBack(t *testing.T) {
	assert.NotEmpty(t, Text("   "))
}

func TestRepairSingleQuotedKeys(t *testing.T) {
	got := List(`{'affirmations': ["a", "b"]}`)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFixTruncatedJSON(t *testing.T) {
	fixed := fixTruncatedJSON(`{"affirmations": ["a", "b`)
	assert.JSONEq(t, `{"affirmations": ["a", "b"]}`, fixed)
}
