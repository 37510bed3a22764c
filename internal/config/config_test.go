package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
[agent]
account = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
seed = "shhTESTSEEDxxxxxxxxxxxxxxxxx"
network_id = 21338

[ledger]
trade_endpoint = "ws://127.0.0.1:6006"

[maker]
wall_amount_xrp = 50000.0
pacing_delay = "250ms"

[maker.tolerance_overrides]
BTC = 5.0
`
	path := filepath.Join(tempDir, "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", config.Agent.Account)
	assert.Equal(t, uint32(21338), config.Agent.NetworkID)
	assert.Equal(t, "ws://127.0.0.1:6006", config.Ledger.TradeEndpoint)

	// Defaults fill what the file omits.
	assert.Equal(t, "wss://xrplcluster.com", config.Ledger.LiveEndpoint)
	assert.Equal(t, "rpXCfDds782Bd6eK9Hsn15RDnGMtxf752m", config.Oracle.ReferenceAccount)
	assert.Equal(t, 400, config.Oracle.LineLimit)

	assert.Equal(t, 50000.0, config.Maker.WallAmountXRP)
	assert.Equal(t, 250*time.Millisecond, config.Maker.PacingDelay)
	assert.Equal(t, 2.0, config.Maker.ToleranceFor("USD"))
	assert.Equal(t, 5.0, config.Maker.ToleranceFor("BTC"))
}

func TestLoadConfigRejectsBadAccount(t *testing.T) {
	tempDir := t.TempDir()
	content := `
[agent]
account = "not-an-address"
seed = "shhTESTSEEDxxxxxxxxxxxxxxxxx"
`
	path := filepath.Join(tempDir, "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.account")
}

func TestLoadConfigMissingSeed(t *testing.T) {
	tempDir := t.TempDir()
	content := `
[agent]
account = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
`
	path := filepath.Join(tempDir, "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.seed")
}

func TestSupportedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supported.json")

	t.Run("missing file is empty", func(t *testing.T) {
		store, err := LoadSupported(path)
		require.NoError(t, err)
		assert.Empty(t, store.Symbols())
	})

	t.Run("add persists", func(t *testing.T) {
		store, err := LoadSupported(path)
		require.NoError(t, err)

		changed, err := store.Add("BTC")
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.Add("BTC")
		require.NoError(t, err)
		assert.False(t, changed, "duplicate add is a no-op")

		reloaded, err := LoadSupported(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC"}, reloaded.Symbols())
		assert.True(t, reloaded.Contains("BTC"))
	})

	t.Run("replace prunes", func(t *testing.T) {
		store, err := LoadSupported(path)
		require.NoError(t, err)
		_, err = store.Add("CNY")
		require.NoError(t, err)

		changed, err := store.Replace([]string{"CNY"})
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.Replace([]string{"CNY"})
		require.NoError(t, err)
		assert.False(t, changed, "identical replace is a no-op")

		reloaded, err := LoadSupported(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"CNY"}, reloaded.Symbols())
	})
}
