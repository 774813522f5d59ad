package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNode(t *testing.T) (*state.State, http.Handler) {
	t.Helper()

	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{Genesis: gen})
	require.NoError(t, err)
	t.Cleanup(func() { st.Shutdown() })

	require.NoError(t, st.CreateWallet("alice", 100))
	require.NoError(t, st.CreateWallet("bob", 0))

	_, err = st.Transfer("alice", "bob", 7, 0.5)
	require.NoError(t, err)
	_, err = st.MinePendingTransactions(context.Background(), "miner", 0)
	require.NoError(t, err)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		MinerID:  "miner",
		Evts:     events.New("viewer:"),
	})

	return st, mux
}

func TestBalances(t *testing.T) {
	_, mux := newNode(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, commands.Balances(&out, srv.URL))
	assert.Contains(t, out.String(), "Wallet: alice  Balance: 92.5")
	assert.Contains(t, out.String(), "Wallet: bob  Balance: 7")
}

func TestBalancesSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latest_block":"0x01","wallets":[{"name":"zed","balance":1},{"name":"alice","balance":2},{"name":"mia","balance":3}]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, commands.Balances(&out, srv.URL))

	want := "LatestBlockHash: 0x01\n\n" +
		"Wallet: alice  Balance: 2\n" +
		"Wallet: mia  Balance: 3\n" +
		"Wallet: zed  Balance: 1\n"
	assert.Equal(t, want, out.String())
}

func TestVerify(t *testing.T) {
	st, mux := newNode(t)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	var out bytes.Buffer
	valid, err := commands.Verify(&out, srv.URL, nil)
	require.NoError(t, err)
	assert.True(t, valid, out.String())

	// Serve a copy of the chain with a rewritten amount.
	forged := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blocks, err := st.Blocks()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		bds := make([]database.BlockData, len(blocks))
		for i, b := range blocks {
			bds[i] = database.NewBlockData(b)
		}
		bds[1].Trans[0].Amount = 70

		json.NewEncoder(w).Encode(bds)
	}))
	defer forged.Close()

	out.Reset()
	valid, err = commands.Verify(&out, forged.URL, nil)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, out.String(), "block #1")
}
