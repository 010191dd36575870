package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hanoi/internal/hanoi"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hanoi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
game:
  pegs: 4
  default_disks: 5
  reward_reload: 30s
daily:
  salt: from_file
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DAILY_SALT", "from_env")
	t.Setenv("MAX_DISKS", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4, cfg.Game.Pegs)
	assert.Equal(t, 5, cfg.Game.DefaultDisks)
	assert.Equal(t, 12, cfg.Game.MaxDisks)
	assert.Equal(t, 30*time.Second, cfg.Game.RewardReload)
	assert.Equal(t, 5*time.Second, cfg.Game.RewardRetry)
	assert.Equal(t, "from_env", cfg.Daily.Salt)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{"PEG_COUNT": "three", "SESSION_TTL": "soon"}
	err := cfg.applyEnv(func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PEG_COUNT")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Game.Pegs = 2
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Game.DefaultDisks = cfg.Game.MaxDisks + 1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Game.MaxDisks = hanoi.MaxDisks
	assert.NoError(t, cfg.Validate())
	cfg.Game.MaxDisks = hanoi.MaxDisks + 1
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsMaxDisksBeyondEngine(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_DISKS", "25")
	_, err := Load()
	assert.ErrorContains(t, err, "max_disks")
}
