package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"gonum.org/v1/gonum/stat"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// NetworkStats summarizes the activity of the ledger.
type NetworkStats struct {
	Blocks                uint64  `json:"blocks"`
	TransactionsProcessed uint64  `json:"transactions_processed"`
	CurrentReward         float64 `json:"current_reward"`
	PoolSize              int     `json:"pool_size"`
	Wallets               int     `json:"wallets"`
	Difficulty            uint    `json:"difficulty"`
	MiningTimeMean        float64 `json:"mining_time_mean_seconds"`
	MiningTimeStdDev      float64 `json:"mining_time_stddev_seconds"`
}

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// CurrentBlockReward returns the reward paid for the next block mined.
func (s *State) CurrentBlockReward() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.genesis.Reward(s.blocksMined)
}

// ChainLength returns the number of blocks in the chain including genesis.
func (s *State) ChainLength() uint64 {
	return s.db.Length()
}

// LatestBlock returns a copy the current latest block.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Mempool returns a copy of the mempool in select strategy order.
func (s *State) Mempool() []database.Tx {
	return s.mempool.PickBest(-1)
}

// MempoolLength returns the current length of the mempool.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}

// Blocks returns a copy of every block in the chain.
func (s *State) Blocks() ([]database.Block, error) {
	return s.db.Blocks()
}

// QueryBlocks returns the set of blocks based on block numbers. Use
// QueryLatest to reference the latest block.
func (s *State) QueryBlocks(from uint64, to uint64) ([]database.Block, error) {
	latest := s.db.LatestBlock().Header.Number

	if from == QueryLatest {
		from = latest
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	if from > to {
		return nil, fmt.Errorf("invalid block range %d to %d", from, to)
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}

	return out, nil
}

// NetworkStats returns a summary of the ledger activity. The mining time
// figures cover every block mined after genesis.
func (s *State) NetworkStats() (NetworkStats, error) {
	blocks, err := s.db.Blocks()
	if err != nil {
		return NetworkStats{}, err
	}

	var durations []float64
	for _, block := range blocks[1:] {
		durations = append(durations, block.MiningDuration.Seconds())
	}

	var mean, std float64
	switch len(durations) {
	case 0:
	case 1:
		mean = durations[0]
	default:
		mean, std = stat.MeanStdDev(durations, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns := NetworkStats{
		Blocks:                s.db.Length(),
		TransactionsProcessed: s.transProcessed,
		CurrentReward:         s.genesis.Reward(s.blocksMined),
		PoolSize:              s.mempool.Count(),
		Wallets:               s.db.WalletCount(),
		Difficulty:            s.difficulty,
		MiningTimeMean:        mean,
		MiningTimeStdDev:      std,
	}

	return ns, nil
}
