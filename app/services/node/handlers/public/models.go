package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// newTx is what a client sends to submit a transaction. The fields are
// pointers so a missing field can be told apart from a zero value.
type newTx struct {
	Sender    *string  `json:"sender" validate:"required"`
	Recipient *string  `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required"`
}

// toTx converts a validated request into a ledger transaction.
func (ntx newTx) toTx() database.Tx {
	return database.NewTx(*ntx.Sender, *ntx.Recipient, *ntx.Amount)
}

// newNodes is what a client sends to register peers.
type newNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1"`
}

// message is the response for operations that only report an outcome.
type message struct {
	Message string `json:"message"`
}

// minedBlock is the response for a newly forged block.
type minedBlock struct {
	Message      string        `json:"message"`
	Index        uint64        `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PrevHash     string        `json:"previous_hash"`
}

// registeredNodes is the response after peers are registered.
type registeredNodes struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

// replacedChain is the response when a longer chain was adopted.
type replacedChain struct {
	Message  string           `json:"message"`
	NewChain []database.Block `json:"new_chain"`
}

// authoritativeChain is the response when the local chain was kept.
type authoritativeChain struct {
	Message string           `json:"message"`
	Chain   []database.Block `json:"chain"`
}

// pending is the response listing the transactions waiting for a block.
type pending struct {
	Transactions []database.Tx `json:"transactions"`
	Length       int           `json:"length"`
}

// block is the response for a single block with its hash.
type block struct {
	Hash  string         `json:"hash"`
	Block database.Block `json:"block"`
}
