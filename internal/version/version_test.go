package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	tests := []struct {
		version string
		target  string
		want    bool
	}{
		{"0.3.0", "0.2.9", true},
		{"0.3.0", "0.3.0", true},
		{"v0.3.0", "0.3.0", true},
		{"0.3.0-dev", "0.3.0", false},
		{"0.2.10", "0.2.9", true},
		{"1.0.0", "1.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version+">="+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVersionGreaterOrEqualThan(tt.version, tt.target))
		})
	}
}

func TestIsRelease(t *testing.T) {
	assert.True(t, IsRelease("0.3.0"))
	assert.True(t, IsRelease("v1.2.3"))
	assert.False(t, IsRelease("0.0.0-dev"))
	assert.False(t, IsRelease("latest"))
}

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version, GitCommit, BuildTime = "0.3.0", "unknown", "unknown"
	assert.Equal(t, "0.3.0", String())
	assert.Equal(t, "Version=0.3.0", StringFull())

	GitCommit, BuildTime = "0123456789abcdef", "2026-01-02T03:04:05Z"
	assert.Equal(t, "0.3.0-01234567", String())
	assert.Equal(t, "Version=0.3.0 Commit=01234567 BuildTime=2026-01-02T03:04:05Z", StringFull())
}

func TestGetCurrentVersion(t *testing.T) {
	oldVersion, oldDev := Version, DevVersion
	t.Cleanup(func() { Version, DevVersion = oldVersion, oldDev })

	Version, DevVersion = "0.3.0", "0.4.0-dev"
	assert.Equal(t, "0.4.0-dev", GetCurrentVersion("dev"))
	assert.Equal(t, "0.3.0", GetCurrentVersion("prod"))
}
