package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUserShell(t *testing.T) {
	original := osGetenv
	t.Cleanup(func() { osGetenv = original })

	osGetenv = func(key string) string {
		if key == "SHELL" {
			return "/bin/zsh"
		}
		return ""
	}
	assert.Equal(t, "zsh", GetUserShell())
}

func TestGetUserShellDefaultsWhenUnset(t *testing.T) {
	original := osGetenv
	t.Cleanup(func() { osGetenv = original })

	osGetenv = func(key string) string { return "" }
	assert.Equal(t, "bash", GetUserShell())
}

func TestGetHomeDir(t *testing.T) {
	home, err := GetHomeDir()
	assert.NoError(t, err)
	assert.NotEmpty(t, home)
}
