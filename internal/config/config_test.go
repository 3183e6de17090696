package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/config"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	// The default file was written out.
	_, err = os.Stat(filepath.Join(dir, config.DefaultConfigFile))
	require.NoError(t, err)

	srv := cfg.GetServerData()
	assert.Equal(t, config.DefaultBanchoPort, srv.BanchoPort)
	assert.Equal(t, 2018, srv.MinClientYear)
	assert.Equal(t, "Lagoon", srv.BotName)

	app := cfg.GetApplicationData()
	assert.Equal(t, 300, app.Timers.PingTimeout)
	assert.Equal(t, "info", app.Logging.Level)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()

	// A partial file only overrides the fields it names.
	partial := `{"server_data": {"srv_name": "Custom", "srv_bancho_port": 9090}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte(partial), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	srv := cfg.GetServerData()
	assert.Equal(t, "Custom", srv.Name)
	assert.Equal(t, 9090, srv.BanchoPort)
	assert.Equal(t, 2018, srv.MinClientYear, "unset fields keep their defaults")

	// Load re-saves so the file gains the missing defaults.
	data, err := os.ReadFile(filepath.Join(dir, config.DefaultConfigFile))
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Contains(t, onDisk, "application_data")
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte("{nope"), 0644))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestUpdateServerField(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.UpdateServerField("srv_name", "Renamed"))
	assert.Equal(t, "Renamed", cfg.GetServerData().Name)

	require.NoError(t, cfg.UpdateServerField("srv_bancho_port", 1234))
	assert.Equal(t, 1234, cfg.GetServerData().BanchoPort)
}

func TestDatabasePath(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, filepath.Join("data", "lagoon.db"), cfg.DatabasePath())
}
