package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig_FileAndEnvOverlay env vars win over file values.
func TestLoadConfig_FileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"project_id: from-file\nevent_base_url: https://file.example\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "https://file.example", cfg.EventBaseURL)

	t.Setenv("MARKETAP_PROJECT_ID", "from-env")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ProjectID)
	assert.Equal(t, "https://file.example", cfg.EventBaseURL, "unset vars leave file values")
}

// TestLoadConfig_MissingExplicitFile an explicitly named missing file is
// an error; the implicit default is not.
func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoadConfig_DefaultAbsent with no file at all, env vars still apply.
func TestLoadConfig_DefaultAbsent(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("MARKETAP_PROJECT_ID", "env-only")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.ProjectID)
}

// TestLoadConfig_BadYAML
func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
