package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// GenesisPrevHash is the sentinel previous hash carried by the genesis block.
// It is not a digest and is never compared against one.
const GenesisPrevHash = "1"

// ErrEmptyChain is returned when the latest block is requested from a chain
// that holds no blocks. Construction always writes a genesis block, so this
// signals a defect.
var ErrEmptyChain = errors.New("chain has no blocks")

// ErrNotFound is returned when a block index is outside of the chain.
var ErrNotFound = errors.New("block not found")

// =============================================================================

// Block represents a group of transactions batched together and bound to the
// previous block by its hash and its proof.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain, genesis is 1.
	Timestamp    float64 `json:"timestamp"`     // Seconds since the epoch the block was created.
	Transactions []Tx    `json:"transactions"`  // The pending transactions captured by this block.
	Proof        uint64  `json:"proof"`         // Solution to the puzzle posed by the previous proof.
	PrevHash     string  `json:"previous_hash"` // Hash of the previous block in the chain.
}

// NewGenesisBlock constructs the first block of a chain.
func NewGenesisBlock(proof uint64, date time.Time) Block {
	return Block{
		Index:        1,
		Timestamp:    toTimestamp(date),
		Transactions: []Tx{},
		Proof:        proof,
		PrevHash:     GenesisPrevHash,
	}
}

// NewBlock constructs the block that follows the specified previous block.
// The transactions are copied so the caller is free to reuse the slice.
func NewBlock(prevBlock Block, proof uint64, prevHash string, trans []Tx) Block {
	txs := make([]Tx, len(trans))
	copy(txs, trans)

	return Block{
		Index:        prevBlock.Index + 1,
		Timestamp:    toTimestamp(time.Now()),
		Transactions: txs,
		Proof:        proof,
		PrevHash:     prevHash,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return Hash(b)
}

// IsGenesis reports whether this block carries the genesis sentinel.
func (b Block) IsGenesis() bool {
	return b.Index == 1 && b.PrevHash == GenesisPrevHash
}

// ValidateBlock takes a block and validates it to follow the previous block
// in the chain.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16) error {
	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("this block is not the next index, got %d, exp %d", b.Index, nextIndex)
	}

	prevHash := previousBlock.Hash()
	if b.PrevHash != prevHash {
		return fmt.Errorf("previous block hash doesn't match our known previous block, got %s, exp %s", b.PrevHash, prevHash)
	}

	if !pow.Verify(b.Proof, previousBlock.Proof, difficulty) {
		return fmt.Errorf("block %d proof %d does not solve previous proof %d", b.Index, b.Proof, previousBlock.Proof)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash  string `json:"hash"`
	Block Block  `json:"block"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:  block.Hash(),
		Block: block,
	}
}

// ToBlock converts a storage block into a database block. The stored hash
// must match the hash of the stored content.
func ToBlock(blockData BlockData) (Block, error) {
	if hash := blockData.Block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block %d hash mismatch, got %s, exp %s", blockData.Block.Index, hash, blockData.Hash)
	}

	return blockData.Block, nil
}

// =============================================================================

// toTimestamp converts a time into seconds since the epoch.
func toTimestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
