package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Transfer constructs, signs and admits a transaction moving the amount from
// one wallet to another. The sender must hold enough to pay the amount plus
// the fee. Nothing changes when a precondition fails.
func (s *State) Transfer(from database.WalletID, to database.WalletID, amount float64, fee float64) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.db.HasWallet(from) {
		return database.Tx{}, fmt.Errorf("sender %q: %w", from, ErrUnknownWallet)
	}

	if !s.db.HasWallet(to) {
		return database.Tx{}, fmt.Errorf("receiver %q: %w", to, ErrUnknownWallet)
	}

	if from == to {
		return database.Tx{}, ErrSelfTransfer
	}

	if !database.ValidAmounts(amount, fee) {
		return database.Tx{}, ErrInvalidAmount
	}

	if balance := s.db.Balance(from); balance < amount+fee {
		return database.Tx{}, fmt.Errorf("need %v, have %v: %w", amount+fee, balance, ErrInsufficientFunds)
	}

	tx := database.NewTx(from, to, amount, fee)
	if err := tx.Sign(s.signer); err != nil {
		return database.Tx{}, err
	}

	if err := s.upsertMempool(tx); err != nil {
		return database.Tx{}, err
	}

	s.evHandler("state: Transfer: tx[%s]", tx)

	return tx, nil
}

// SubmitTransaction admits a transaction that was built and signed by the
// caller into the mempool. Only the node itself creates reward transactions.
func (s *State) SubmitTransaction(tx database.Tx) error {
	if tx.IsCoinbase() {
		return ErrCoinbaseSubmit
	}

	if err := s.upsertMempool(tx); err != nil {
		return err
	}

	s.evHandler("state: SubmitTransaction: tx[%s]", tx)

	return nil
}

// upsertMempool admits the transaction and lets the worker know.
func (s *State) upsertMempool(tx database.Tx) error {
	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return err
	}

	s.metrics.SetMempoolSize(n)
	s.signalStartMining()

	return nil
}
