package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai/configloader"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(configloader.NewLoader(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Providers, cfg.Providers)
	assert.Empty(t, cfg.Rules)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	body := `
providers:
  secondary: [claude, sonnet]
keywords:
  web: [stock price]
follow_ups: [go on]
rules:
  - name: incident
    expr: 'query.contains("incident")'
    family: PRIMARY_FAMILY
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644))

	cfg, err := LoadConfig(configloader.NewLoader(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"claude", "sonnet"}, cfg.Providers.Secondary)
	assert.Equal(t, DefaultConfig().Providers.Offline, cfg.Providers.Offline)
	assert.Equal(t, []string{"stock price"}, cfg.Keywords[SignalWeb])
	assert.Equal(t, []string{"go on"}, cfg.FollowUps)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, FamilyPrimary, cfg.Rules[0].Family)

	_, err = NewSwitchAgent(cfg)
	assert.NoError(t, err)
}

func TestLoadConfig_InvalidFamily(t *testing.T) {
	dir := t.TempDir()
	body := "rules:\n  - name: bad\n    expr: 'true'\n    family: MAINFRAME\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644))

	_, err := LoadConfig(configloader.NewLoader(dir))
	assert.ErrorContains(t, err, "unknown family")
}
