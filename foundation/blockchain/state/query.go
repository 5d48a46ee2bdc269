package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxProof is the merkle proof that a transaction is part of a block.
type TxProof struct {
	Index      uint64      `json:"index"`
	Tx         database.Tx `json:"transaction"`
	MerkleRoot string      `json:"merkle_root"`
	Proof      []string    `json:"proof"`
	Order      []int64     `json:"order"`
}

// =============================================================================

// QueryMempoolLength returns the current length of the pending pool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlockByIndex returns the block at the specified index.
func (s *State) QueryBlockByIndex(index uint64) (database.Block, error) {
	block, err := s.db.GetBlock(index)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Block{}, fmt.Errorf("block %d: %w", index, ErrNotFound)
		}
		return database.Block{}, err
	}

	return block, nil
}

// QueryTxProof builds a merkle tree over the transactions of the specified
// block and returns the proof the transaction is part of it.
func (s *State) QueryTxProof(index uint64, tx database.Tx) (TxProof, error) {
	block, err := s.QueryBlockByIndex(index)
	if err != nil {
		return TxProof{}, err
	}

	if len(block.Transactions) == 0 {
		return TxProof{}, fmt.Errorf("block %d has no transactions: %w", index, ErrNotFound)
	}

	tree, err := merkle.NewTree(block.Transactions)
	if err != nil {
		return TxProof{}, err
	}

	proof, order, err := tree.Proof(tx)
	if err != nil {
		if errors.Is(err, merkle.ErrNotFound) {
			return TxProof{}, fmt.Errorf("transaction %s in block %d: %w", tx, index, ErrNotFound)
		}
		return TxProof{}, err
	}

	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = hexutil.Encode(p)
	}

	txProof := TxProof{
		Index:      index,
		Tx:         tx,
		MerkleRoot: tree.RootHex(),
		Proof:      hexProof,
		Order:      order,
	}

	return txProof, nil
}
