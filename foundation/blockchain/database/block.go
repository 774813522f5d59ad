package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// FutureTolerance is how far in the future a block timestamp may be before
// the block is considered invalid.
const FutureTolerance = 2 * time.Hour

// MaxDifficulty is the largest difficulty a hash can satisfy.
const MaxDifficulty = 64

// progressInterval is the number of attempts between mining progress events.
const progressInterval = 10_000

// ErrDifficultyTooHigh is returned when asked to mine a difficulty no hash
// can satisfy.
var ErrDifficultyTooHigh = errors.New("difficulty can't be solved")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64   `json:"number"`          // Bitcoin: Position of the block in the chain.
	PrevBlockHash string   `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	TimeStamp     float64  `json:"timestamp"`       // Bitcoin: Time the block was constructed.
	Nonce         uint64   `json:"nonce"`           // Bitcoin: Value identified to solve the hash solution.
	Difficulty    uint     `json:"difficulty"`      // Ethereum: Number of 0's needed to solve the hash solution.
	MinerID       WalletID `json:"miner"`           // Ethereum: The wallet who is receiving the reward and fees.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header         BlockHeader
	Trans          []Tx
	Hash           string
	MiningDuration time.Duration
}

// NewBlock constructs a block that has not been mined. The hash is computed
// for a nonce of zero.
func NewBlock(number uint64, trans []Tx, prevBlockHash string, timeStamp float64) Block {
	b := Block{
		Header: BlockHeader{
			Number:        number,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     timeStamp,
		},
		Trans: append([]Tx{}, trans...),
	}
	b.Hash = b.ComputeHash()

	return b
}

// GenesisBlock constructs the first block of the chain. It holds a single
// coinbase transaction paying the founder and is never mined.
func GenesisBlock(gen genesis.Genesis, signer signature.Signer) (Block, error) {
	tx, err := NewCoinbaseTx(WalletID(gen.Founder), gen.MiningReward, signer)
	if err != nil {
		return Block{}, err
	}

	return NewBlock(0, []Tx{tx}, signature.ZeroHash, Now()), nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	MinerID    WalletID
	Difficulty uint
	PrevBlock  Block
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	nb := NewBlock(args.PrevBlock.Header.Number+1, args.Trans, args.PrevBlock.Hash, Now())

	if err := nb.Mine(ctx, args.Difficulty, args.MinerID, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// Mine does the work of finding a nonce that produces a hash with the
// specified number of leading zeros. Pointer semantics are being used since
// a nonce is being discovered. The search starts from the current nonce so a
// cancelled search can be resumed by calling Mine again.
func (b *Block) Mine(ctx context.Context, difficulty uint, minerID WalletID, ev func(v string, args ...any)) error {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if difficulty > MaxDifficulty {
		return fmt.Errorf("difficulty %d: %w", difficulty, ErrDifficultyTooHigh)
	}

	b.Header.Difficulty = difficulty
	b.Header.MinerID = minerID

	hash, err := b.contentHash()
	if err != nil {
		return fmt.Errorf("block %d: %w", b.Header.Number, err)
	}
	b.Hash = hash

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]: trans[%d]", b.Header.Number, difficulty, len(b.Trans))

	start := time.Now()
	defer func() {
		b.MiningDuration += time.Since(start)
	}()

	var attempts uint64
	for !signature.IsHashSolved(difficulty, b.Hash) {
		if ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED: blk[%d]: attempts[%d]", b.Header.Number, attempts)
			return ctx.Err()
		}

		b.Header.Nonce++
		b.Hash = b.ComputeHash()

		attempts++
		if attempts%progressInterval == 0 {
			ev("database: Mine: MINING: attempts[%d]: hash[%s]", attempts, b.Hash[:22])
		}
	}

	ev("database: Mine: MINING: SOLVED: blk[%d]: hash[%s]: nonce[%d]: attempts[%d]", b.Header.Number, b.Hash, b.Header.Nonce, attempts)

	return nil
}

// =============================================================================

// blockContent is the set of fields that make up the content hash of a block.
type blockContent struct {
	Number        uint64      `json:"index"`
	Trans         []txContent `json:"transactions"`
	PrevBlockHash string      `json:"previous_hash"`
	TimeStamp     float64     `json:"timestamp"`
	Nonce         uint64      `json:"nonce"`
	Difficulty    uint        `json:"difficulty"`
}

// ComputeHash returns the content hash of the block from the current field
// values. The miner is not part of the hash. A block whose content can't be
// encoded gets an empty hash.
func (b Block) ComputeHash() string {
	hash, err := b.contentHash()
	if err != nil {
		return ""
	}

	return hash
}

// contentHash hashes the content fields of the block.
func (b Block) contentHash() (string, error) {
	trans := make([]txContent, len(b.Trans))
	for i, tx := range b.Trans {
		trans[i] = tx.content()
	}

	bc := blockContent{
		Number:        b.Header.Number,
		Trans:         trans,
		PrevBlockHash: b.Header.PrevBlockHash,
		TimeStamp:     b.Header.TimeStamp,
		Nonce:         b.Header.Nonce,
		Difficulty:    b.Header.Difficulty,
	}

	return signature.Digest(bc)
}

// HasValidTransactions checks every transaction in the block is valid.
func (b Block) HasValidTransactions() bool {
	for _, tx := range b.Trans {
		if !tx.IsValid() {
			return false
		}
	}

	return true
}

// TotalFees returns the sum of the fees paid by non-coinbase transactions.
func (b Block) TotalFees() float64 {
	var fees float64
	for _, tx := range b.Trans {
		if !tx.IsCoinbase() {
			fees += tx.Fee
		}
	}

	return fees
}

// VerifyIntegrity checks the block is internally consistent. A nil error
// means the block is valid, otherwise the error describes the problem. Any
// fault raised while checking is reported as an error.
func (b Block) VerifyIntegrity(now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verification fault: %v", r)
		}
	}()

	exp, err := b.contentHash()
	if err != nil {
		return fmt.Errorf("block content can't be hashed: %w", err)
	}

	if b.Hash != exp {
		return fmt.Errorf("block hash doesn't match content, got %s, exp %s", b.Hash, exp)
	}

	if b.Trans == nil {
		return errors.New("block transactions are missing")
	}

	if b.Header.PrevBlockHash == "" {
		return errors.New("previous block hash is missing")
	}

	if b.Header.Difficulty > 0 && !signature.IsHashSolved(b.Header.Difficulty, b.Hash) {
		return fmt.Errorf("block hash doesn't satisfy difficulty %d", b.Header.Difficulty)
	}

	if limit := toSeconds(now.Add(FutureTolerance)); b.Header.TimeStamp > limit {
		return fmt.Errorf("block timestamp is in the future, timestamp %v, limit %v", b.Header.TimeStamp, limit)
	}

	return nil
}

// Clone returns a copy of the block that shares no memory with it.
func (b Block) Clone() Block {
	b.Trans = append([]Tx(nil), b.Trans...)
	if b.Trans == nil {
		b.Trans = []Tx{}
	}

	return b
}

// =============================================================================

// BlockData represents what is written to storage and sent to clients.
type BlockData struct {
	Hash           string        `json:"hash"`
	Header         BlockHeader   `json:"block"`
	Trans          []Tx          `json:"trans"`
	MiningDuration time.Duration `json:"mining_duration"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:           block.Hash,
		Header:         block.Header,
		Trans:          append([]Tx{}, block.Trans...),
		MiningDuration: block.MiningDuration,
	}
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) Block {
	return Block{
		Header:         blockData.Header,
		Trans:          append([]Tx{}, blockData.Trans...),
		Hash:           blockData.Hash,
		MiningDuration: blockData.MiningDuration,
	}
}
