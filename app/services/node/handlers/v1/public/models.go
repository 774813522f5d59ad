package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

type wallet struct {
	Name    database.WalletID `json:"name"`
	Balance float64           `json:"balance"`
}

type wallets struct {
	LatestBlock string   `json:"latest_block"`
	Uncommitted int      `json:"uncommitted"`
	Wallets     []wallet `json:"wallets"`
}

func toWallets(m map[database.WalletID]float64) []wallet {
	sorted := database.SortWallets(m)

	ws := make([]wallet, len(sorted))
	for i, w := range sorted {
		ws[i] = wallet{Name: w.WalletID, Balance: w.Balance}
	}
	return ws
}

type newWallet struct {
	Name    string   `json:"name" validate:"required"`
	Balance *float64 `json:"balance" validate:"omitempty,gte=0"`
}

type transfer struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Fee    float64 `json:"fee" validate:"gte=0"`
}

type mine struct {
	Miner    string `json:"miner"`
	MaxCount int    `json:"max_count" validate:"gte=0"`
}

type difficulty struct {
	TargetBlockTime string `json:"target_block_time" validate:"required"`
}

type difficultyResp struct {
	Difficulty uint `json:"difficulty"`
}

func toBlockData(blocks []database.Block) []database.BlockData {
	bds := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		bds[i] = database.NewBlockData(block)
	}
	return bds
}

type chainValid struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
