// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/ledger/foundation/blockchain/metrics"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of error variables for precondition rejections. None of these leave
// any state changed behind.
var (
	ErrUnknownWallet      = errors.New("wallet does not exist")
	ErrSelfTransfer       = errors.New("can't transfer to the same wallet")
	ErrInvalidAmount      = errors.New("amount must be positive and fee can't be negative")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoTransactions     = errors.New("no transactions in mempool")
	ErrChainChanged       = errors.New("chain changed while mining")
	ErrCoinbaseSubmit     = errors.New("reward transactions can't be submitted")
	ErrInvalidTransaction = mempool.ErrInvalidTransaction
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	SelectStrategy string
	Signer         signature.Signer
	EvHandler      EventHandler
}

// State manages the ledger. One mutex serializes appending to the chain with
// replaying the block into the wallet balances so the balances always
// reflect exactly the blocks in the chain.
type State struct {
	mu sync.Mutex

	evHandler EventHandler
	genesis   genesis.Genesis
	signer    signature.Signer
	metrics   metrics.Ledger

	difficulty     uint
	blocksMined    uint64
	transProcessed uint64
	securityLog    []string

	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new ledger. Missing configuration falls back to memory
// storage, the fee select strategy and the placeholder signer.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage == nil {
		cfg.Storage = memory.New()
	}

	if cfg.SelectStrategy == "" {
		cfg.SelectStrategy = selector.StrategyFee
	}

	if cfg.Signer == nil {
		cfg.Signer = signature.Placeholder{}
	}

	// Access the storage for the blockchain and apply the genesis
	// information and any stored blocks.
	db, err := database.New(cfg.Genesis, cfg.Storage, cfg.Signer, ev)
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified select strategy.
	mempool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	// Rebuild the counters for any blocks that were already stored.
	blocks, err := db.Blocks()
	if err != nil {
		return nil, err
	}

	var transProcessed uint64
	for _, block := range blocks[1:] {
		transProcessed += uint64(len(block.Trans))
	}

	state := State{
		evHandler:      ev,
		genesis:        cfg.Genesis,
		signer:         cfg.Signer,
		difficulty:     uint(cfg.Genesis.Difficulty),
		blocksMined:    uint64(len(blocks) - 1),
		transProcessed: transProcessed,
		mempool:        mempool,
		db:             db,
	}

	state.metrics.SetDifficulty(state.difficulty)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the storage is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// signalStartMining lets a registered worker know there is work to do.
func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}
