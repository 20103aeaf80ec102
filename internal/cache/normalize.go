package cache

import "strings"

// ownerSep separates the verbatim owner ID from the rest of an owner-scoped key.
const ownerSep = "|"

// NormalizeKey lowercases, trims and collapses inner whitespace runs so that
// equivalent free-text queries share one entry.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}

// OwnerKey composes a key scoped to one owner, e.g. a user's library section.
// Owner IDs are case-sensitive and kept as given; only part is normalized.
func OwnerKey(ownerID, part string) string {
	return ownerID + ownerSep + NormalizeKey(part)
}

// canonicalKey is the form keys are stored under. The owner prefix of an
// owner-scoped key survives untouched.
func canonicalKey(key string) string {
	if i := strings.Index(key, ownerSep); i > 0 {
		return key[:i] + ownerSep + NormalizeKey(key[i+len(ownerSep):])
	}
	return NormalizeKey(key)
}
