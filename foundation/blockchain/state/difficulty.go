package state

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// minDifficulty is the floor a difficulty adjustment can't go below.
const minDifficulty = 1

// AdjustDifficulty compares how long the latest block took to mine against
// the target block time. A block mined in less than half the target raises
// the difficulty by one and a block that took more than twice the target
// lowers it by one. The new difficulty is returned.
func (s *State) AdjustDifficulty(target time.Duration) uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only the genesis block exists, there is nothing to measure.
	if s.db.Length() <= 1 {
		return s.difficulty
	}

	took := s.db.LatestBlock().MiningDuration

	switch {
	case took < target/2 && s.difficulty < database.MaxDifficulty:
		s.difficulty++
		s.evHandler("state: AdjustDifficulty: took[%v]: target[%v]: raised to[%d]", took, target, s.difficulty)

	case took > target*2 && s.difficulty > minDifficulty:
		s.difficulty--
		s.evHandler("state: AdjustDifficulty: took[%v]: target[%v]: lowered to[%d]", took, target, s.difficulty)
	}

	s.metrics.SetDifficulty(s.difficulty)

	return s.difficulty
}

// SetDifficulty sets the difficulty used for the next block mined.
func (s *State) SetDifficulty(difficulty uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.difficulty = difficulty
	s.metrics.SetDifficulty(difficulty)
}

// Difficulty returns the difficulty used for the next block mined.
func (s *State) Difficulty() uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.difficulty
}
