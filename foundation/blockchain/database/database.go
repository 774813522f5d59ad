// Package database handles all the lower level support for maintaining the
// blockchain in storage and maintaining an in memory database of wallet
// balances derived from it.
package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Database manages the chain of blocks and the balances of the wallets who
// have transacted on it.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	length      uint64
	wallets     map[WalletID]float64

	storage Storage
}

// New constructs a new database and applies the wallet genesis information.
// When the storage is empty the genesis block is written, otherwise the
// stored blocks are validated and replayed to rebuild the balances.
func New(gen genesis.Genesis, storage Storage, signer signature.Signer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		genesis: gen,
		wallets: make(map[WalletID]float64),
		storage: storage,
	}

	// Update the database with wallet balance information from genesis.
	for name, balance := range gen.Balances {
		walletID, err := ToWalletID(name)
		if err != nil {
			return nil, err
		}
		db.wallets[walletID] = balance
	}

	// Read all the blocks already held by the storage.
	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := block.VerifyIntegrity(time.Now()); err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Header.Number, err)
		}

		if db.length > 0 && block.Header.PrevBlockHash != db.latestBlock.Hash {
			return nil, fmt.Errorf("block %d: previous block hash doesn't match", block.Header.Number)
		}

		// The genesis block only mints the founder reward into history.
		if block.Header.Number > 0 {
			db.ApplyBlock(block, gen.Reward(block.Header.Number-1))
		}

		db.latestBlock = block
		db.length++
	}

	if db.length > 0 {
		evHandler("database: New: loaded blocks[%d]", db.length)
		return &db, nil
	}

	block, err := GenesisBlock(gen, signer)
	if err != nil {
		return nil, fmt.Errorf("genesis block: %w", err)
	}

	if err := db.Write(block); err != nil {
		return nil, fmt.Errorf("write genesis block: %w", err)
	}

	evHandler("database: New: genesis: hash[%s]: founder[%s]", block.Hash, gen.Founder)

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() {
	db.storage.Close()
}

// =============================================================================

// CreateWallet adds a new wallet with the specified starting balance.
func (db *Database) CreateWallet(walletID WalletID, balance float64) error {
	if err := walletID.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.wallets[walletID]; exists {
		return ErrWalletExists
	}

	db.wallets[walletID] = balance

	return nil
}

// HasWallet reports whether the wallet exists.
func (db *Database) HasWallet(walletID WalletID) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.wallets[walletID]
	return exists
}

// Balance returns the balance of the wallet. Unknown wallets have a zero
// balance.
func (db *Database) Balance(walletID WalletID) float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.wallets[walletID]
}

// CopyWallets makes a copy of the current wallets in the database.
func (db *Database) CopyWallets() map[WalletID]float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	wallets := make(map[WalletID]float64, len(db.wallets))
	for walletID, balance := range db.wallets {
		wallets[walletID] = balance
	}
	return wallets
}

// WalletCount returns the number of wallets in the database.
func (db *Database) WalletCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.wallets)
}

// ApplyBlock replays the balance effects of the block. Non-coinbase senders
// are debited the amount plus fee, receivers are credited the amount and the
// miner is credited the reward plus the collected fees. The fees collected
// are returned.
func (db *Database) ApplyBlock(block Block, reward float64) float64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, tx := range block.Trans {
		if !tx.IsCoinbase() {
			db.wallets[tx.From] -= tx.Amount + tx.Fee
		}
		db.wallets[tx.To] += tx.Amount
	}

	fees := block.TotalFees()

	if block.Header.MinerID != "" {
		db.wallets[block.Header.MinerID] += reward + fees
	}

	return fees
}

// =============================================================================

// Write appends the block to the chain and makes it the latest block.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if block.Header.Number != db.length {
		return fmt.Errorf("block %d: expected block number %d", block.Header.Number, db.length)
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.latestBlock = block.Clone()
	db.length++

	return nil
}

// LatestBlock returns a copy of the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock.Clone()
}

// Length returns the number of blocks in the chain including genesis.
func (db *Database) Length() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.length
}

// GetBlock searches the blockchain to locate and return the contents of the
// specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}
	return ToBlock(blockData), nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// Blocks returns a copy of every block in the chain in order.
func (db *Database) Blocks() ([]Block, error) {
	var blocks []Block

	iter := db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return nil, errors.New("chain has no blocks")
	}

	return blocks, nil
}
