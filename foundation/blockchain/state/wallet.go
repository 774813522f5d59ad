package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// CreateWallet adds a new wallet with the specified starting balance.
func (s *State) CreateWallet(walletID database.WalletID, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.CreateWallet(walletID, balance); err != nil {
		return err
	}

	s.evHandler("state: CreateWallet: wallet[%s]: balance[%v]", walletID, balance)

	return nil
}

// Balance returns the balance of the wallet. Unknown wallets have a zero
// balance.
func (s *State) Balance(walletID database.WalletID) float64 {
	return s.db.Balance(walletID)
}

// HasWallet reports whether the wallet exists.
func (s *State) HasWallet(walletID database.WalletID) bool {
	return s.db.HasWallet(walletID)
}

// Wallets returns a copy of the wallet balances.
func (s *State) Wallets() map[database.WalletID]float64 {
	return s.db.CopyWallets()
}
