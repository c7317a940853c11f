package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Empty(t *testing.T) {
	for _, raw := range []string{"", " ", "\t\n", "   \r\n  "} {
		_, err := Validate(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", raw)
		assert.Equal(t, ReasonEmpty, verr.Reason)
	}
}

func TestValidate_Malformed(t *testing.T) {
	cases := []string{
		"not-an-email",
		"user@",
		"@example.com",
		"user@example",
		"user@@example.com",
		"us@er@example.com",
		"user name@example.com",
		"user@exa mple.com",
		"user@example.",
		"user@example.com.",
		"user.example.com",
		"a\u00a0b@x.io",
		"user@exa\u2003mple.com",
		"user\u0085x@example.com",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, ReasonMalformedEmail, verr.Reason)
			assert.Equal(t, "Please enter a valid email address", verr.Error())
		})
	}
}

func TestValidate_NormalizesCaseAndWhitespace(t *testing.T) {
	email, err := Validate("  User@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	again, err := Validate("User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, email, again)
}

func TestValidate_Accepts(t *testing.T) {
	for _, raw := range []string{"a@b.c", "first.last+tag@mail.example.co.uk", "x_y@sub-domain.io"} {
		email, err := Validate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, email)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"  MiXeD@Case.Org  ", "\tTAB@x.y", "plain@x.y", ""} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), raw)
	}
}
