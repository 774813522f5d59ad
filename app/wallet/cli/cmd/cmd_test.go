package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--url", url))
	err := rootCmd.Execute()

	return out.String(), err
}

func TestWalletCommands(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{Genesis: gen})
	require.NoError(t, err)
	defer st.Shutdown()

	srv := httptest.NewServer(handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		MinerID:  "miner",
		Evts:     events.New("viewer:"),
	}))
	defer srv.Close()
	url = srv.URL

	out, err := run(t, "create", "--name", "alice", "--balance", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet: alice  Balance: 100")

	_, err = run(t, "create", "--name", "bob", "--balance", "0")
	require.NoError(t, err)

	_, err = run(t, "create", "--name", "bob", "--balance", "0")
	assert.ErrorContains(t, err, "wallet already exists")

	out, err = run(t, "send", "--from", "alice", "--to", "bob", "--amount", "10", "--fee", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "alice -> bob")

	_, err = run(t, "send", "--from", "alice", "--to", "bob", "--amount", "500", "--fee", "0")
	assert.ErrorContains(t, err, "insufficient funds")

	out, err = run(t, "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Block: 1")
	assert.Contains(t, out, "Miner: miner")

	out, err = run(t, "balance", "--name", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet: bob  Balance: 10")

	out, err = run(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain valid: true")

	out, err = run(t, "verify", "--tamper")
	require.NoError(t, err)
	assert.Contains(t, out, "Tampering detected: false")

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"blocks": 2`)
}
