package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// RetrieveNodeID returns the identity of this node.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns a copy of the current latest block.
func (s *State) LatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.CopyBlocks()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status of this node as shared with peers.
func (s *State) RetrieveStatus() (peer.PeerStatus, error) {
	block, err := s.db.LatestBlock()
	if err != nil {
		return peer.PeerStatus{}, err
	}

	status := peer.PeerStatus{
		NodeID:           s.nodeID,
		LatestBlockHash:  block.Hash(),
		LatestBlockIndex: block.Index,
		Pending:          s.mempool.Count(),
		KnownPeers:       s.RetrieveKnownPeers(),
	}

	return status, nil
}
