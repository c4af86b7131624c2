package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.conf"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "sori", "config.conf"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "sori", "config.conf"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.conf")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingConfigParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	contents := `
{
  // engine host shared by the lobby kiosks
  "backend": {
    "http": "http://10.0.4.12:8000",
    "grpc": "10.0.4.12:50051"
  },
  "feed": {
    "enable": false
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "http://10.0.4.12:8000", loaded.Config.Backend.HTTP)
	require.Equal(t, "10.0.4.12:50051", loaded.Config.Backend.GRPC)
	require.False(t, loaded.Config.Feed.Enable)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.conf")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestLoadEnvironmentOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":{"http":"http://file-host:8000"}}`), 0o600))

	t.Setenv("SORI_BACKEND_HTTP", "http://env-host:8000")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://env-host:8000", loaded.Config.Backend.HTTP)

	overridden := false
	for _, w := range loaded.Warnings {
		if w.Message == "SORI_BACKEND_HTTP overrides config file value" {
			overridden = true
		}
	}
	require.True(t, overridden, "expected override warning, got %v", loaded.Warnings)
}

func TestLoadMergesDotenvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SORI_FEED_ADDR=127.0.0.1:9999\n"), 0o600))

	// register cleanup, then clear so the dotenv value is actually picked up
	t.Setenv("SORI_FEED_ADDR", "")
	require.NoError(t, os.Unsetenv("SORI_FEED_ADDR"))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", loaded.Config.Feed.Addr)
}

func TestLoadRealEnvironmentBeatsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SORI_FEED_ADDR=127.0.0.1:9999\n"), 0o600))

	t.Setenv("SORI_FEED_ADDR", "127.0.0.1:7000")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", loaded.Config.Feed.Addr)
}
