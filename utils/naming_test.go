package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Project", "my-project"},
		{"myProject", "my-project"},
		{"  Acme -- Store!  ", "acme-store"},
		{"already-kebab", "already-kebab"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParamCase(tt.in), tt.in)
	}
}

func TestConstantCase(t *testing.T) {
	assert.Equal(t, "STAGE", ConstantCase("stage"))
	assert.Equal(t, "MY_PROJECT", ConstantCase("my project"))
}

func TestIsValidHid(t *testing.T) {
	assert.True(t, IsValidHid("acme"))
	assert.True(t, IsValidHid("acme-2"))
	assert.False(t, IsValidHid("Acme"))
	assert.False(t, IsValidHid("2acme"))
	assert.False(t, IsValidHid("acme--store"))
	assert.False(t, IsValidHid(""))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "", TruncateString("abcdef", 0))
	assert.Equal(t, "", TruncateString("abcdef", -1))
	assert.Equal(t, "ünï...", TruncateString("ünïcödé", 6))
}

func TestGeneratePassword(t *testing.T) {
	p, err := GeneratePassword()
	assert.NoError(t, err)
	assert.Len(t, p, passwordLength)
	assert.Regexp(t, `^[A-Za-z0-9]+$`, p)

	q, err := GeneratePassword()
	assert.NoError(t, err)
	assert.NotEqual(t, p, q)
}
