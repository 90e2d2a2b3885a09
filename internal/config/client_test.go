package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadClientFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultClientConfig(), cfg)
	assert.Equal(t, DefaultSyncTimeout, cfg.Timeout())
}

func TestSaveClientTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	in := ClientConfig{
		APIURL:      "https://api.example",
		AnonKey:     "anon",
		Timezone:    "Europe/London",
		AccessToken: "tok",
		SyncTimeout: "3s",
	}
	require.NoError(t, SaveClientTo(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := LoadClientFrom(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 3*time.Second, out.Timeout())

	loc, err := out.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoadClientFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_url = ["), 0o600))

	_, err := LoadClientFrom(path)
	assert.Error(t, err)
}

func TestClientConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, "/tmp/xdg/tripsaver", ClientConfigDir())
	assert.Equal(t, "/tmp/xdg/tripsaver/config.toml", ClientConfigPath())
	assert.Equal(t, "/tmp/xdg-data/tripsaver", ClientDataDir())
}

func TestGetAnonKey_EnvWins(t *testing.T) {
	cfg := ClientConfig{AnonKey: "from-file"}
	t.Setenv("TRIPSAVER_ANON_KEY", "")
	assert.Equal(t, "from-file", GetAnonKey(cfg))
	t.Setenv("TRIPSAVER_ANON_KEY", "from-env")
	assert.Equal(t, "from-env", GetAnonKey(cfg))
}
