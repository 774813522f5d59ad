// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	MinerID database.WalletID
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Wallets returns the current balances for all wallets or the one named.
func (h Handlers) Wallets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	balances := h.State.Wallets()

	if name := web.Param(r, "name"); name != "" {
		walletID := database.WalletID(name)
		bal, exists := balances[walletID]
		if !exists {
			return errs.NewTrusted(fmt.Errorf("wallet %q: %w", name, state.ErrUnknownWallet), http.StatusNotFound)
		}
		balances = map[database.WalletID]float64{walletID: bal}
	}

	resp := wallets{
		LatestBlock: h.State.LatestBlock().Hash,
		Uncommitted: h.State.MempoolLength(),
		Wallets:     toWallets(balances),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateWallet adds a new wallet to the ledger.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nw newWallet
	if err := web.Decode(r, &nw); err != nil {
		return decodeError(err)
	}

	balance := h.State.Genesis().WalletBalance
	if nw.Balance != nil {
		balance = *nw.Balance
	}

	walletID := database.WalletID(nw.Name)
	if err := h.State.CreateWallet(walletID, balance); err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, wallet{Name: walletID, Balance: balance}, http.StatusCreated)
}

// Transfer constructs a transaction on behalf of the sender and adds it to
// the mempool.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tr transfer
	if err := web.Decode(r, &tr); err != nil {
		return decodeError(err)
	}

	tx, err := h.State.Transfer(database.WalletID(tr.From), database.WalletID(tr.To), tr.Amount, tr.Fee)
	if err != nil {
		return toTrusted(err)
	}

	h.Log.Infow("transfer", "traceid", web.GetTraceID(ctx), "tx", tx.ID, "from", tx.From, "to", tx.To, "amount", tx.Amount, "fee", tx.Fee)

	return web.Respond(ctx, w, tx, http.StatusCreated)
}

// SubmitTransaction adds a transaction built and signed by the client to
// the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return decodeError(err)
	}

	if err := h.State.SubmitTransaction(tx); err != nil {
		return toTrusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Mempool returns the set of uncommitted transactions in the order they
// would be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Mempool(), http.StatusOK)
}

// Mine mines the pending transactions into a new block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var m mine
	if r.ContentLength != 0 {
		if err := web.Decode(r, &m); err != nil {
			return decodeError(err)
		}
	}

	minerID := h.MinerID
	if m.Miner != "" {
		minerID = database.WalletID(m.Miner)
	}

	block, err := h.State.MinePendingTransactions(ctx, minerID, m.MaxCount)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusCreated)
}

// AdjustDifficulty moves the difficulty one step toward the target block time.
func (h Handlers) AdjustDifficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var d difficulty
	if err := web.Decode(r, &d); err != nil {
		return decodeError(err)
	}

	target, err := time.ParseDuration(d.TargetBlockTime)
	if err != nil || target <= 0 {
		return errs.NewTrusted(fmt.Errorf("invalid target block time %q", d.TargetBlockTime), http.StatusBadRequest)
	}

	return web.Respond(ctx, w, difficultyResp{Difficulty: h.State.AdjustDifficulty(target)}, http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.Blocks()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlockData(blocks), http.StatusOK)
}

// LatestBlock returns the block at the tip of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, database.NewBlockData(h.State.LatestBlock()), http.StatusOK)
}

// BlocksByNumber returns the blocks within the inclusive range.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := strconv.ParseUint(web.Param(r, "from"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("from: %w", err), http.StatusBadRequest)
	}

	to, err := strconv.ParseUint(web.Param(r, "to"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("to: %w", err), http.StatusBadRequest)
	}

	blocks, err := h.State.QueryBlocks(from, to)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toBlockData(blocks), http.StatusOK)
}

// VerifyChain validates the linkage and integrity of the chain.
func (h Handlers) VerifyChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	verbose, _ := strconv.ParseBool(r.URL.Query().Get("verbose"))

	valid, msgs := h.State.IsChainValid(verbose)
	if msgs == nil {
		msgs = []string{}
	}

	return web.Respond(ctx, w, chainValid{Valid: valid, Errors: msgs}, http.StatusOK)
}

// DetectTampering runs a full verification and records it in the
// security log.
func (h Handlers) DetectTampering(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	report := h.State.DetectTampering()
	if report.TamperingDetected {
		h.Log.Warnw("tampering detected", "traceid", web.GetTraceID(ctx), "errors", report.Errors)
	}

	return web.Respond(ctx, w, report, http.StatusOK)
}

// SecurityLog returns the security log entries.
func (h Handlers) SecurityLog(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.SecurityLog(), http.StatusOK)
}

// Stats returns the network statistics.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.NetworkStats()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}

// =============================================================================

// decodeError keeps validation errors intact and marks everything else as
// a bad request.
func decodeError(err error) error {
	if errs.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}

// toTrusted maps ledger errors to the status the client should see.
func toTrusted(err error) error {
	switch {
	case errors.Is(err, state.ErrUnknownWallet):
		return errs.NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, database.ErrWalletExists),
		errors.Is(err, state.ErrChainChanged):
		return errs.NewTrusted(err, http.StatusConflict)

	case errors.Is(err, state.ErrSelfTransfer),
		errors.Is(err, state.ErrInvalidAmount),
		errors.Is(err, state.ErrInsufficientFunds),
		errors.Is(err, state.ErrInvalidTransaction),
		errors.Is(err, state.ErrNoTransactions),
		errors.Is(err, state.ErrCoinbaseSubmit),
		errors.Is(err, database.ErrReservedWallet),
		errors.Is(err, database.ErrInvalidWallet):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
