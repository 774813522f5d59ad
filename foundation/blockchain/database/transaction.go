package database

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/google/uuid"
)

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	ID        string   `json:"id"`        // Unique id assigned when the transaction is constructed.
	From      WalletID `json:"from"`      // Wallet paying for the transaction or the coinbase marker.
	To        WalletID `json:"to"`        // Wallet receiving the amount.
	Amount    float64  `json:"amount"`    // Value moved from sender to receiver.
	Fee       float64  `json:"fee"`       // Fee offered to the miner for including the transaction.
	TimeStamp float64  `json:"timestamp"` // Seconds since epoch when the transaction was constructed.
	Signature string   `json:"signature"` // Empty until the transaction is signed.
}

// NewTx constructs a new unsigned transaction.
func NewTx(from WalletID, to WalletID, amount float64, fee float64) Tx {
	return Tx{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Fee:       fee,
		TimeStamp: Now(),
	}
}

// NewCoinbaseTx constructs a signed reward transaction paying the specified
// wallet.
func NewCoinbaseTx(to WalletID, amount float64, signer signature.Signer) (Tx, error) {
	tx := NewTx(CoinbaseID, to, amount, 0)
	if err := tx.Sign(signer); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// ValidAmounts reports whether the amount is positive and the fee is not
// negative. NaN and infinite values are never valid.
func ValidAmounts(amount float64, fee float64) bool {
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0:
		return false
	case math.IsNaN(fee) || math.IsInf(fee, 0) || fee < 0:
		return false
	}

	return true
}

// Now returns the current time as seconds since epoch.
func Now() float64 {
	return toSeconds(time.Now())
}

// toSeconds converts the time to seconds since epoch with microsecond
// precision.
func toSeconds(t time.Time) float64 {
	return float64(t.UTC().UnixMicro()) / 1e6
}

// =============================================================================

// txContent is the set of fields that make up the content hash of a
// transaction. The signature is not part of it since it is derived from it.
type txContent struct {
	ID        string   `json:"id"`
	From      WalletID `json:"sender"`
	To        WalletID `json:"receiver"`
	Amount    float64  `json:"amount"`
	Fee       float64  `json:"fee"`
	TimeStamp float64  `json:"timestamp"`
}

// content returns the hashed fields of the transaction.
func (tx Tx) content() txContent {
	return txContent{
		ID:        tx.ID,
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		Fee:       tx.Fee,
		TimeStamp: tx.TimeStamp,
	}
}

// Hash returns the content hash of the transaction.
func (tx Tx) Hash() string {
	return signature.Hash(tx.content())
}

// Sign uses the specified signer to sign the content hash of the transaction.
// Signing twice with the same signer produces the same signature.
func (tx *Tx) Sign(signer signature.Signer) error {
	hash, err := signature.Digest(tx.content())
	if err != nil {
		return fmt.Errorf("signing tx %s: %w", tx.ID, err)
	}

	sig, err := signer.Sign(hash)
	if err != nil {
		return fmt.Errorf("signing tx %s: %w", tx.ID, err)
	}

	tx.Signature = sig

	return nil
}

// SignWith signs the transaction with the placeholder signer salted with
// the specified key.
func (tx *Tx) SignWith(key string) error {
	return tx.Sign(signature.Placeholder{Key: key})
}

// IsCoinbase reports whether this is a reward transaction.
func (tx Tx) IsCoinbase() bool {
	return tx.From.IsCoinbase()
}

// IsValid performs the checks required for a transaction to be accepted into
// the mempool or a block.
func (tx Tx) IsValid() bool {
	if !ValidAmounts(tx.Amount, tx.Fee) {
		return false
	}

	if tx.IsCoinbase() {
		return true
	}

	switch {
	case tx.From == "" || tx.To == "":
		return false
	case !signature.WellFormed(tx.Signature):
		return false
	}

	return true
}

// VerifyIntegrity performs a stricter validation than IsValid. A nil
// error means the transaction is valid, otherwise the error describes the
// first problem found.
func (tx Tx) VerifyIntegrity() error {
	if tx.From == "" || tx.To == "" {
		return errors.New("missing required fields")
	}

	if !ValidAmounts(tx.Amount, tx.Fee) {
		return fmt.Errorf("amount must be positive and fee can't be negative, got amount %v, fee %v", tx.Amount, tx.Fee)
	}

	if tx.IsCoinbase() {
		return nil
	}

	if tx.From == tx.To {
		return fmt.Errorf("sender and receiver can't be the same, wallet %s", tx.From)
	}

	if tx.Signature == "" {
		return errors.New("missing signature")
	}

	if !signature.WellFormed(tx.Signature) {
		return errors.New("invalid signature format")
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v:%v", tx.From, tx.To, tx.Amount, tx.Fee)
}
