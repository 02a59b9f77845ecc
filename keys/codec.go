// Package keys owns the encoding of human-readable hierarchy labels
// (category, item, sub-item, weight) into storage-safe keys. Every key
// written to the database goes through Encode; nothing else writes raw
// labels.
package keys

import "strings"

const (
	// DefaultToken replaces empty or whitespace-only labels. It is also
	// the sub-item key used when a legacy flat payload is migrated.
	DefaultToken = "default"

	// SharedToken is the weight-schema marker stored by older clients
	// inside item maps. It is metadata, never a real weight column.
	SharedToken = "shared"

	reservedPrefix = "__"
)

// Encode maps a raw label to a storage-safe key. Empty and
// whitespace-only labels become DefaultToken; periods and slashes are
// not allowed in stored key paths and are replaced with underscores.
// Encode is idempotent.
func Encode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultToken
	}
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}

// Decode reverses the underscore-to-period direction only. Slashes are
// not recoverable, and a label that originally contained a literal
// underscore comes back with a period instead. The lossy mapping is
// kept on purpose for compatibility with data already stored by the
// mobile clients.
func Decode(encoded string) string {
	return strings.ReplaceAll(encoded, "_", ".")
}

// IsReserved reports whether a stored key is internal metadata rather
// than a real hierarchy label: double-underscore prefixed keys and the
// literal shared token.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, reservedPrefix) || key == SharedToken
}

// WeightVariants returns the lookup candidates for a weight label, in
// order: the encoded form, then the space/underscore swapped forms.
// Older records disagree on whether "2 5g" was stored with a space or
// an underscore, so exact-match threshold lookups try all three.
func WeightVariants(raw string) []string {
	enc := Encode(raw)
	variants := []string{enc}
	if v := strings.ReplaceAll(enc, " ", "_"); v != enc {
		variants = append(variants, v)
	}
	if v := strings.ReplaceAll(enc, "_", " "); v != enc {
		variants = append(variants, v)
	}
	return variants
}
