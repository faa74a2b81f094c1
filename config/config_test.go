package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyrocket/universe-bank/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Bank.LoanTermDays)
	assert.Equal(t, 100, cfg.Simulation.Agents)
	assert.Equal(t, 24, cfg.Simulation.Epochs)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "universebank.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.IdentityRegistered())
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
bank:
  borrower_address: "0xabc123"
  loan_term_days: 14
identity:
  agent_id: "agent-7"
simulation:
  agents: 50
  epochs: 12
  seed: 7
storage:
  dsn: ":memory:"
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0xabc123", cfg.Bank.BorrowerAddress)
	assert.Equal(t, 14, cfg.Bank.LoanTermDays)
	assert.Equal(t, 14*24*time.Hour, cfg.LoanTerm())
	assert.True(t, cfg.IdentityRegistered())
	assert.Equal(t, 50, cfg.Simulation.Agents)
	assert.Equal(t, 12, cfg.Simulation.Epochs)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// report path no estaba en el YAML → default
	assert.Equal(t, "simulation-report.json", cfg.Simulation.ReportPath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bank: [not a map"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BORROWER_ADDRESS", "0xenv")
	t.Setenv("AGENT_ID", "env-agent")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0xenv", cfg.Bank.BorrowerAddress)
	assert.Equal(t, "env-agent", cfg.Identity.AgentID)
	assert.True(t, cfg.IdentityRegistered())
	assert.Equal(t, "warn", cfg.Log.Level)
}
