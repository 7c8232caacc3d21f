package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForMissingChatSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mainConfig]
appName = "test"
port = 9000
admins = ["root"]

[chatConfig]
maxPinned = 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppName)
	assert.Equal(t, 9000, cfg.MainConfig.Port)
	assert.Equal(t, []string{"root"}, cfg.Admins)
	assert.Equal(t, 3, cfg.MaxPinned)
	assert.Equal(t, 2000, cfg.MaxMessageLength)
	assert.Equal(t, 200, cfg.MaxAnnouncementLength)
	assert.Equal(t, 6, cfg.SendRate)
	assert.Equal(t, 20, cfg.MaxForwardTargets)
	assert.Equal(t, "channel", cfg.MessageMode)
	assert.Equal(t, "mysql", cfg.Driver)
	assert.False(t, cfg.PrivateChatRequiresFriend)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[jwtConfig]
secret = "from-file"

[databaseConfig]
driver = "mysql"
port = 3306
`), 0o644))

	t.Setenv("KAMA_JWT_SECRET", "from-env")
	t.Setenv("KAMA_DB_DRIVER", "postgres")
	t.Setenv("KAMA_DB_PORT", "5432")
	t.Setenv("KAMA_ADMINS", " root, ,ops ")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Secret)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, 5432, cfg.DatabaseConfig.Port)
	assert.Equal(t, []string{"root", "ops"}, cfg.Admins)
}

func TestLoadMissingFileStillReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 10, cfg.MaxPinned)
	assert.Equal(t, "/metrics", cfg.MetricsConfig.Path)
}
