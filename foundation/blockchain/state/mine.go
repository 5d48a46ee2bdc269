package state

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// RewardSender is the sender of the transaction that pays the miner of
// a block.
const RewardSender = "0"

// MineNewBlock solves the proof of work against the latest block, then pays
// this node the mining reward and appends the new block. The solve happens
// outside of the state lock so reads and submissions continue while mining.
// If the latest block changed during the solve, ErrChainChanged is returned
// and the pending pool is left alone.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	tip, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, err
	}

	proof, err := pow.Solve(ctx, tip.Proof, s.genesis.Difficulty, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	prevHash := tip.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	reward := database.NewTx(RewardSender, s.nodeID, s.genesis.MiningReward)

	block, err := s.appendBlock(proof, &prevHash, []database.Tx{reward})
	if err != nil {
		s.evHandler("state: MineNewBlock: MINING: WARNING: %s", err)
		return database.Block{}, err
	}

	s.evHandler("viewer: state: MineNewBlock: MINING: forged block[%d]: proof[%d]", block.Index, block.Proof)

	return block, nil
}
