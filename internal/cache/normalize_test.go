package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Hello World  ", "hello world"},
		{"hello world", "hello world"},
		{"LOFI\tBeats\n", "lofi beats"},
		{"lofi    beats", "lofi beats"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		got := NormalizeKey(tc.in)
		assert.Equal(t, tc.want, got, "NormalizeKey(%q)", tc.in)
		assert.Equal(t, got, NormalizeKey(got), "not idempotent for %q", tc.in)
	}
}

func TestOwnerKey(t *testing.T) {
	assert.Equal(t, "U-1|liked songs", OwnerKey("U-1", " Liked  Songs "))
	assert.NotEqual(t, OwnerKey("u1", "a"), OwnerKey("u2", "a"))
	assert.NotEqual(t, OwnerKey("AbC123", "liked"), OwnerKey("abc123", "liked"))
}

func TestCanonicalKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  LOFI beats ", "lofi beats"},
		{OwnerKey("AbC123", "Section:Liked"), "AbC123|section:liked"},
		{"AbC123| Section:LIKED ", "AbC123|section:liked"},
		{"|Odd", "|odd"},
	}
	for _, tc := range cases {
		got := canonicalKey(tc.in)
		assert.Equal(t, tc.want, got, "canonicalKey(%q)", tc.in)
		assert.Equal(t, got, canonicalKey(got), "not idempotent for %q", tc.in)
	}
}
