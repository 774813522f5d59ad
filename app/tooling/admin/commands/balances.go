package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Balances prints the current set of balances held by the node at url.
func Balances(w io.Writer, url string) error {
	var resp struct {
		LatestBlock string `json:"latest_block"`
		Uncommitted int    `json:"uncommitted"`
		Wallets     []struct {
			Name    database.WalletID `json:"name"`
			Balance float64           `json:"balance"`
		} `json:"wallets"`
	}
	if err := get(url+"/v1/wallets", &resp); err != nil {
		return err
	}

	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", resp.LatestBlock)

	balances := make(map[database.WalletID]float64, len(resp.Wallets))
	for _, wal := range resp.Wallets {
		balances[wal.Name] = wal.Balance
	}

	for _, wal := range database.SortWallets(balances) {
		fmt.Fprintf(w, "Wallet: %s  Balance: %v\n", wal.WalletID, wal.Balance)
	}

	return nil
}
