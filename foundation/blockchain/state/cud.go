package state

import (
	"errors"
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// SubmitTransaction adds a new transaction to the pending pool and returns
// the index of the block that will capture it. An amount that can't be
// serialized, NaN or an infinity, is rejected with ErrInvalidAmount.
func (s *State) SubmitTransaction(tx database.Tx) (uint64, error) {
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	s.mempool.Append(tx)
	index := uint64(s.db.Length()) + 1
	s.mu.Unlock()

	s.evHandler("viewer: state: SubmitTransaction: tx[%s]: block[%d]", tx, index)

	if s.autoMine {
		s.Worker.SignalStartMining()
	}

	return index, nil
}

// AppendBlock creates the next block from the pending transactions and adds
// it to the chain. When prevHash is nil the hash of the latest block is used.
// An explicit prevHash must match the hash of the latest block.
func (s *State) AppendBlock(proof uint64, prevHash *string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendBlock(proof, prevHash, nil)
}

// RegisterPeer parses the address and adds the network location to the set
// of known peers.
func (s *State) RegisterPeer(address string) error {
	pr, err := peer.Parse(address)
	if err != nil {
		return err
	}

	if s.knownPeers.Add(pr) {
		s.evHandler("viewer: state: RegisterPeer: added peer[%s]", pr)
	}

	return nil
}

// RegisterPeers parses every address before adding any of them, so one bad
// address leaves the set of known peers unchanged.
func (s *State) RegisterPeers(addresses []string) error {
	if len(addresses) == 0 {
		return errors.New("no addresses provided")
	}

	peers := make([]peer.Peer, 0, len(addresses))
	for _, address := range addresses {
		pr, err := peer.Parse(address)
		if err != nil {
			return err
		}
		peers = append(peers, pr)
	}

	for _, pr := range peers {
		if s.knownPeers.Add(pr) {
			s.evHandler("viewer: state: RegisterPeers: added peer[%s]", pr)
		}
	}

	return nil
}

// AddKnownPeer provides the ability to add a new peer. The node's own host
// is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// =============================================================================

// appendBlock builds the next block from the pending transactions followed
// by the extra transactions. The caller must hold the state lock.
func (s *State) appendBlock(proof uint64, prevHash *string, extra []database.Tx) (database.Block, error) {
	tip, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, err
	}

	tipHash := tip.Hash()
	if prevHash != nil && *prevHash != tipHash {
		return database.Block{}, ErrChainChanged
	}

	if !pow.Verify(proof, tip.Proof, s.genesis.Difficulty) {
		return database.Block{}, ErrInvalidProof
	}

	trans := append(s.mempool.Copy(), extra...)
	block := database.NewBlock(tip, proof, tipHash, trans)

	if err := s.db.Write(block); err != nil {
		return database.Block{}, err
	}

	s.mempool.Truncate()

	s.evHandler("viewer: state: appendBlock: block[%d]: hash[%s]: txs[%d]", block.Index, block.Hash(), len(block.Transactions))

	return block, nil
}
