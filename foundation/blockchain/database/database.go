// Package database handles all the lower level support for maintaining the
// chain in memory and writing it through to a storage implementation.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(index uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the blocks of the chain.
type Database struct {
	mu      sync.RWMutex
	genesis genesis.Genesis
	blocks  []Block
	storage Storage
}

// New constructs a new database. The chain held by storage is read and
// validated. If storage is empty, the genesis block is written.
func New(genesis genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis: genesis,
		storage: storage,
	}

	iter := storage.ForEach()
	for !iter.Done() {
		blockData, err := iter.Next()
		if err != nil {
			if iter.Done() {
				break
			}
			return nil, fmt.Errorf("reading block %d: %w", len(db.blocks)+1, err)
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if len(db.blocks) > 0 {
			if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], genesis.Difficulty); err != nil {
				return nil, fmt.Errorf("stored block %d: %w", block.Index, err)
			}
		}

		evHandler("database: New: loaded block[%d]: hash[%s]", block.Index, blockData.Hash)
		db.blocks = append(db.blocks, block)
	}

	if len(db.blocks) == 0 {
		block := NewGenesisBlock(genesis.Proof, genesis.Date)
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return nil, fmt.Errorf("writing genesis: %w", err)
		}

		evHandler("database: New: genesis block[%s]", block.Hash())
		db.blocks = append(db.blocks, block)
	}

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.blocks[len(db.blocks)-1], nil
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// CopyBlocks returns a copy of the chain.
func (db *Database) CopyBlocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)
	return blocks
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index == 0 || index > uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d: %w", index, ErrNotFound)
	}

	return db.blocks[index-1], nil
}

// Write adds a new block to the end of the chain. The block is written to
// storage first so a storage failure leaves the chain unchanged.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if next := uint64(len(db.blocks)) + 1; block.Index != next {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, next)
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)
	return nil
}

// Replace swaps the chain for the specified blocks and rewrites storage. If
// storage can't be rewritten, the previous chain is restored.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.rewrite(blocks); err != nil {
		if rerr := db.rewrite(db.blocks); rerr != nil {
			return errors.Join(err, fmt.Errorf("restoring chain: %w", rerr))
		}
		return err
	}

	cpy := make([]Block, len(blocks))
	copy(cpy, blocks)
	db.blocks = cpy

	return nil
}

// rewrite resets storage and writes the blocks in order.
func (db *Database) rewrite(blocks []Block) error {
	if err := db.storage.Reset(); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}

	for _, block := range blocks {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return fmt.Errorf("write block %d: %w", block.Index, err)
		}
	}

	return nil
}
