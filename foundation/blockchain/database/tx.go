package database

import (
	"crypto/sha256"
	"fmt"
)

// Tx is the transactional information between two parties. No validation of
// the parties or the amount takes place.
type Tx struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount float64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() ([]byte, error) {
	data, err := marshalCanonical(tx.canonical())
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx == otherTx
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Recipient, tx.Amount)
}

// canonical returns the transaction as a map so the keys are serialized in
// sorted order.
func (tx Tx) canonical() map[string]any {
	return map[string]any{
		"amount":    tx.Amount,
		"recipient": tx.Recipient,
		"sender":    tx.Sender,
	}
}
