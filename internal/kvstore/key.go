package kvstore

import (
	"sort"
	"strings"
)

// DefaultImplementation is the conventional base variant every version starts
// from. It is forced to the front of implementation listings.
const DefaultImplementation = "default"

// Reserved key names, by convention only. The store does not enforce them.
const (
	KeyModelName    = "_model_name"
	KeyTemperature  = "_temperature"
	KeySystemPrompt = "system"
	KeyUserPrompt   = "prompt"
)

// ParsedKey is the structured form of a stored key. It is derived, never
// persisted.
type ParsedKey struct {
	Version        string
	KeyName        string
	Implementation string
}

// EncodeKey joins the three key fields with dots. Fields must not themselves
// contain a dot; if one does, the encoded key is ambiguous on decode. This is
// a documented limitation of the flat encoding, not corrected here.
func EncodeKey(version, keyName, implementation string) string {
	return version + "." + keyName + "." + implementation
}

// DecodeKey splits a flat key into its three segments. ok is false unless the
// key has exactly three segments. Malformed keys are expected to exist in a
// shared store; callers skip them rather than fail.
func DecodeKey(full string) (ParsedKey, bool) {
	parts := strings.Split(full, ".")
	if len(parts) != 3 {
		return ParsedKey{}, false
	}
	return ParsedKey{Version: parts[0], KeyName: parts[1], Implementation: parts[2]}, true
}

// Versions derives the set of distinct versions from a key listing, sorted
// alphabetically. Unparseable keys are skipped.
func Versions(keys []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range keys {
		pk, ok := DecodeKey(k)
		if !ok {
			continue
		}
		if _, dup := seen[pk.Version]; dup {
			continue
		}
		seen[pk.Version] = struct{}{}
		out = append(out, pk.Version)
	}
	sort.Strings(out)
	return out
}

// Implementations derives the implementation names present for one version.
// "default" always sorts first; the remainder is alphabetical.
func Implementations(keys []string, version string) []string {
	seen := make(map[string]struct{})
	var out []string
	hasDefault := false
	for _, k := range keys {
		pk, ok := DecodeKey(k)
		if !ok || pk.Version != version {
			continue
		}
		if _, dup := seen[pk.Implementation]; dup {
			continue
		}
		seen[pk.Implementation] = struct{}{}
		if pk.Implementation == DefaultImplementation {
			hasDefault = true
			continue
		}
		out = append(out, pk.Implementation)
	}
	sort.Strings(out)
	if hasDefault {
		out = append([]string{DefaultImplementation}, out...)
	}
	return out
}
