package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"", "***"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
		{"alice@", "***"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Email(tc.in), "Email(%q)", tc.in)
	}
}

func TestTokenAndPassword_Placeholders(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
