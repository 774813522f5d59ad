package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// MinePendingTransactions selects up to maxCount transactions from the
// mempool by the select strategy and attempts to create a new block with a
// proper hash that can become the next block in the chain. A maxCount of zero
// or less uses the genesis transactions per block. The proof of work runs
// outside of the state lock and can be cancelled through the context.
func (s *State) MinePendingTransactions(ctx context.Context, minerID database.WalletID, maxCount int) (database.Block, error) {
	if err := minerID.Validate(); err != nil {
		return database.Block{}, fmt.Errorf("miner: %w", err)
	}

	s.evHandler("state: MinePendingTransactions: MINING: check mempool count")

	// Are there any transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	if maxCount <= 0 {
		maxCount = int(s.genesis.TransPerBlock)
	}

	trans := s.mempool.PickBest(maxCount)
	s.evHandler("state: MinePendingTransactions: MINING: selected trans[%d] of pool[%d]", len(trans), s.mempool.Count())

	return s.mineBlock(ctx, minerID, trans)
}

// AddBlock mines the specified transactions into a new block without
// consulting the mempool selection. The block is committed the same way a
// block built from the mempool is.
func (s *State) AddBlock(ctx context.Context, minerID database.WalletID, trans []database.Tx) (database.Block, error) {
	if err := minerID.Validate(); err != nil {
		return database.Block{}, fmt.Errorf("miner: %w", err)
	}

	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	for _, tx := range trans {
		if !tx.IsValid() {
			return database.Block{}, fmt.Errorf("tx %s: %w", tx.ID, ErrInvalidTransaction)
		}
	}

	return s.mineBlock(ctx, minerID, trans)
}

// =============================================================================

// mineBlock performs the proof of work for a block holding the transactions
// on top of the current latest block and commits it.
func (s *State) mineBlock(ctx context.Context, minerID database.WalletID, trans []database.Tx) (database.Block, error) {
	s.evHandler("state: mineBlock: MINING: perform POW")

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		MinerID:    minerID,
		Difficulty: s.Difficulty(),
		PrevBlock:  s.db.LatestBlock(),
		Trans:      trans,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: mineBlock: MINING: update local state")

	if err := s.commitBlock(block, trans); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// commitBlock appends the block to the chain, removes the included
// transactions from the mempool, queues the reward transaction for the next
// block and replays the block into the wallet balances as one unit.
func (s *State) commitBlock(block database.Block, trans []database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if latest := s.db.LatestBlock(); block.Header.PrevBlockHash != latest.Hash {
		return fmt.Errorf("block %d: %w", block.Header.Number, ErrChainChanged)
	}

	reward := s.genesis.Reward(s.blocksMined)

	// The reward is paid by a coinbase transaction that is picked up by the
	// next block mined.
	rewardTx, err := database.NewCoinbaseTx(block.Header.MinerID, reward, s.signer)
	if err != nil {
		return err
	}

	s.evHandler("state: commitBlock: write block[%d]", block.Header.Number)

	// Write the new block to the chain.
	if err := s.db.Write(block); err != nil {
		return err
	}

	s.evHandler("state: commitBlock: remove trans[%d] from mempool", len(trans))

	for _, tx := range trans {
		s.mempool.Delete(tx)
	}

	if _, err := s.mempool.Upsert(rewardTx); err != nil {
		s.evHandler("state: commitBlock: WARNING: reward tx: %s", err)
	}

	s.evHandler("state: commitBlock: apply balances")

	fees := s.db.ApplyBlock(block, reward)

	s.blocksMined++
	s.transProcessed += uint64(len(trans))

	s.metrics.ObserveBlock(len(trans), block.MiningDuration)
	s.metrics.SetMempoolSize(s.mempool.Count())

	s.evHandler("state: commitBlock: miner[%s]: reward[%v]: fees[%v]", block.Header.MinerID, reward, fees)
	s.evHandler("viewer: block[%d]: hash[%s]: blocks[%d]: trans[%d]: reward[%v]: pool[%d]: wallets[%d]",
		block.Header.Number, block.Hash, s.db.Length(), s.transProcessed, s.genesis.Reward(s.blocksMined), s.mempool.Count(), s.db.WalletCount())

	return nil
}
