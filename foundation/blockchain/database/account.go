package database

import (
	"errors"
	"sort"
)

// CoinbaseID is the reserved sender of reward transactions. No wallet is
// debited when this is the sender.
const CoinbaseID WalletID = "0"

// Set of error variables for wallet management.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrReservedWallet = errors.New("wallet name is reserved")
	ErrInvalidWallet  = errors.New("wallet name is required")
)

// =============================================================================

// WalletID represents a wallet name that is used as the sender and receiver
// of transactions on the ledger.
type WalletID string

// ToWalletID converts a string to a wallet id and validates it can be used
// as the name of a wallet.
func ToWalletID(name string) (WalletID, error) {
	w := WalletID(name)
	if err := w.Validate(); err != nil {
		return "", err
	}

	return w, nil
}

// Validate checks the wallet id can be used as the name of a wallet.
func (w WalletID) Validate() error {
	switch w {
	case "":
		return ErrInvalidWallet
	case CoinbaseID:
		return ErrReservedWallet
	}

	return nil
}

// IsCoinbase reports whether the wallet id is the reward issuing marker.
func (w WalletID) IsCoinbase() bool {
	return w == CoinbaseID
}

// =============================================================================

// Wallet represents the balance information for an individual wallet.
type Wallet struct {
	WalletID WalletID `json:"wallet"`
	Balance  float64  `json:"balance"`
}

// SortWallets returns the wallets in the map ordered by wallet id.
func SortWallets(wallets map[WalletID]float64) []Wallet {
	list := make([]Wallet, 0, len(wallets))
	for id, balance := range wallets {
		list = append(list, Wallet{WalletID: id, Balance: balance})
	}

	sort.Sort(byWallet(list))

	return list
}

// byWallet provides sorting support by the wallet id value.
type byWallet []Wallet

// Len returns the number of wallets in the list.
func (bw byWallet) Len() int {
	return len(bw)
}

// Less helps to sort the list by wallet id in ascending order.
func (bw byWallet) Less(i, j int) bool {
	return bw[i].WalletID < bw[j].WalletID
}

// Swap moves wallets in the order of the wallet id value.
func (bw byWallet) Swap(i, j int) {
	bw[i], bw[j] = bw[j], bw[i]
}
