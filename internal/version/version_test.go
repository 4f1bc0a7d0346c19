package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVersionFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "VERSION")

	assert.Equal(t, "dev", readVersionFromFile(path))

	require.NoError(t, os.WriteFile(path, []byte("v1.2.3\n"), 0644))
	assert.Equal(t, "1.2.3", readVersionFromFile(path))

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))
	assert.Equal(t, "dev", readVersionFromFile(path))
}

func TestGetVersion(t *testing.T) {
	oldVersion, oldBuild, oldCommit := Version, BuildTime, GitCommit
	t.Cleanup(func() { Version, BuildTime, GitCommit = oldVersion, oldBuild, oldCommit })

	Version, BuildTime, GitCommit = "1.0.0", "", ""
	assert.Equal(t, "v1.0.0", GetVersion())

	BuildTime = "2026-01-02"
	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.0.0 (built 2026-01-02) commit 01234567", GetVersion())

	GitCommit = "abc"
	assert.Equal(t, "v1.0.0 (built 2026-01-02) commit abc", GetVersion())

	info := GetInfo()
	assert.Equal(t, "v1.0.0", info.Version)
	assert.Equal(t, "abc", info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
