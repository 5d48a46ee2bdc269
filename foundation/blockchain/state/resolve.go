package state

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Resolve asks every known peer for its chain and adopts the longest valid
// chain that is strictly longer than this node's chain. Peers that can't be
// reached, answer with an error, or send an invalid chain are skipped. It
// reports whether the chain was replaced. The pending pool is not changed.
func (s *State) Resolve(ctx context.Context) (bool, error) {
	s.evHandler("state: Resolve: started")
	defer s.evHandler("state: Resolve: completed")

	maxLength := s.db.Length()

	var candidate []database.Block
	for _, pr := range s.RetrieveKnownPeers() {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		chain, err := s.NetRequestPeerChain(ctx, pr)
		if err != nil {
			s.evHandler("state: Resolve: peer[%s]: WARNING: %s", pr, err)
			continue
		}

		if chain.Length <= maxLength {
			continue
		}

		if err := database.ValidateChain(chain.Blocks, s.genesis.Difficulty); err != nil {
			s.evHandler("state: Resolve: peer[%s]: invalid chain: %s", pr, err)
			continue
		}

		s.evHandler("state: Resolve: peer[%s]: candidate length[%d]", pr, chain.Length)

		maxLength = chain.Length
		candidate = chain.Blocks
	}

	if candidate == nil {
		return false, nil
	}

	replaced, err := s.replaceChain(candidate)
	if err != nil {
		return false, err
	}

	if replaced {
		s.evHandler("viewer: state: Resolve: chain replaced: length[%d]", len(candidate))

		// Any block being mined now builds on a chain that is gone.
		s.Worker.SignalCancelMining()
	}

	return replaced, nil
}

// replaceChain swaps the chain for the candidate if the candidate is still
// longer than the chain once the lock is held.
func (s *State) replaceChain(candidate []database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= s.db.Length() {
		s.evHandler("state: Resolve: candidate no longer longer than the chain")
		return false, nil
	}

	if err := s.db.Replace(candidate); err != nil {
		return false, err
	}

	return true, nil
}
