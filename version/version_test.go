package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfoDefaultsToDev(t *testing.T) {
	v, _, _ := GetBuildInfo()
	assert.NotEmpty(t, v)
}

func TestGetCurrentVersionReflectsPackageVars(t *testing.T) {
	originalImpl := GetBuildInfoImpl
	t.Cleanup(func() { GetBuildInfoImpl = originalImpl })

	GetBuildInfoImpl = func() (string, string, string) {
		return "1.2.3", "abc1234", "2026-07-31 00:00:00"
	}

	info := GetCurrentVersion()
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc1234", info.CommitHash)
	assert.Equal(t, "2026-07-31 00:00:00", info.BuildDate)
}
