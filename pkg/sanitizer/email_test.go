package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/figuroforge/authkit/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  User@Example.COM ":   "user@example.com",
		"first..last@x.com":     "first.last@x.com",
		".leading@x.com":        "leading@x.com",
		"trailing.@x.com":       "trailing@x.com",
		"not-an-email":          "not-an-email",
		"two@@signs@x.com":      "two@@signs@x.com",
		"already@normalized.io": "already@normalized.io",
	}

	for in, want := range cases {
		assert.Equal(t, want, sanitizer.NormalizeEmail(in), in)
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "u***@example.com", sanitizer.MaskEmail("user@example.com"))
	assert.Equal(t, "*@example.com", sanitizer.MaskEmail("u@example.com"))
	assert.Equal(t, "invalid", sanitizer.MaskEmail("invalid"))
}
