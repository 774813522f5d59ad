// Package genesis maintains access to the genesis parameters of the ledger.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time          `json:"date"`
	ChainID         uint16             `json:"chain_id"`         // The chain id represents an unique id for this running instance.
	TransPerBlock   uint16             `json:"trans_per_block"`  // The maximum number of transactions that can be in a block.
	Difficulty      uint16             `json:"difficulty"`       // How difficult it needs to be to solve the work problem.
	MiningReward    float64            `json:"mining_reward"`    // Reward for mining a block before any halving.
	HalvingInterval uint64             `json:"halving_interval"` // Number of mined blocks after which the reward halves.
	Founder         string             `json:"founder"`          // Wallet paid by the genesis block.
	WalletBalance   float64            `json:"wallet_balance"`   // Default starting balance for a new wallet.
	Balances        map[string]float64 `json:"balances"`
}

// Default returns the genesis parameters used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:         1,
		TransPerBlock:   10,
		Difficulty:      2,
		MiningReward:    50,
		HalvingInterval: 210_000,
		Founder:         "founder",
		WalletBalance:   100,
		Balances:        map[string]float64{},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Values missing from the file
// keep their defaults.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis parameters can run a ledger.
func (g Genesis) Validate() error {
	if g.MiningReward <= 0 {
		return errors.New("mining reward must be positive")
	}

	if g.TransPerBlock == 0 {
		return errors.New("trans per block must be positive")
	}

	if g.Founder == "" || g.Founder == "0" {
		return fmt.Errorf("invalid founder %q", g.Founder)
	}

	for name, balance := range g.Balances {
		if name == "" || name == "0" {
			return fmt.Errorf("invalid wallet name %q in balances", name)
		}
		if balance < 0 {
			return fmt.Errorf("negative balance for wallet %q", name)
		}
	}

	return nil
}

// Reward returns the mining reward after the specified number of blocks have
// been mined. The reward halves every HalvingInterval blocks.
func (g Genesis) Reward(blocksMined uint64) float64 {
	if g.HalvingInterval == 0 {
		return g.MiningReward
	}

	halvings := blocksMined / g.HalvingInterval
	if halvings > 1074 {
		return 0
	}

	return math.Ldexp(g.MiningReward, -int(halvings))
}
