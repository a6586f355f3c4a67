package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []ParsedKey{
		{Version: "af-01", KeyName: "prompt", Implementation: "default"},
		{Version: "gt-02", KeyName: "_temperature", Implementation: "experimental"},
		{Version: "fo-12", KeyName: "system", Implementation: "draft"},
	}
	for _, want := range cases {
		full := EncodeKey(want.Version, want.KeyName, want.Implementation)
		got, ok := DecodeKey(full)
		require.True(t, ok, "decode %s", full)
		assert.Equal(t, want, got)
	}
}

func TestDecodeKeyRejectsWrongSegmentCount(t *testing.T) {
	for _, full := range []string{
		"",
		"af-01",
		"af-01.prompt",
		"af-01.prompt.default.extra",
		"v.a.b.c.d",
	} {
		_, ok := DecodeKey(full)
		assert.False(t, ok, "expected %q to be unparseable", full)
	}
}

func TestDecodeKeyAllowsEmptySegments(t *testing.T) {
	// Two separators always decode, even with empty fields; the codec only
	// anchors on segment count.
	pk, ok := DecodeKey("..")
	require.True(t, ok)
	assert.Equal(t, ParsedKey{}, pk)
}

func TestVersionsSkipsMalformedKeys(t *testing.T) {
	keys := []string{
		"af-01.prompt.default",
		"not-a-key",
		"gt-02.system.default",
		"gt-02.prompt.experimental",
		"v.a.b.c",
	}
	assert.Equal(t, []string{"af-01", "gt-02"}, Versions(keys))
}

func TestImplementationsDefaultSortsFirst(t *testing.T) {
	keys := []string{
		"v1.prompt.zeta",
		"v1.prompt.default",
		"v1.system.alpha",
		"v2.prompt.other", // different version, excluded
	}
	assert.Equal(t, []string{"default", "alpha", "zeta"}, Implementations(keys, "v1"))
}

func TestImplementationsWithoutDefault(t *testing.T) {
	keys := []string{"v1.prompt.beta", "v1.prompt.alpha"}
	assert.Equal(t, []string{"alpha", "beta"}, Implementations(keys, "v1"))
}
