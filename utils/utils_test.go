package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvOrDefault(t *testing.T) {
	const envKey = "KBHOOKD_TEST_ENV"
	const defaultValue = "default_value"

	os.Unsetenv(envKey)
	val := GetEnvOrDefault(envKey, defaultValue)
	assert.Equal(t, defaultValue, val, "Should return default value when env is not set")

	expectedValue := "my_custom_value"
	os.Setenv(envKey, expectedValue)
	val = GetEnvOrDefault(envKey, defaultValue)
	assert.Equal(t, expectedValue, val, "Should return env value when set")

	os.Unsetenv(envKey)
}
