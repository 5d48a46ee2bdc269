package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

const baseURL = "http://%s"

// NetRequestPeerChain asks the peer for its full chain. The request is
// bounded by the configured peer timeout.
func (s *State) NetRequestPeerChain(ctx context.Context, pr peer.Peer) (peer.Chain, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var chain peer.Chain
	if err := s.send(ctx, url, &chain); err != nil {
		return peer.Chain{}, err
	}

	if err := chain.Validate(); err != nil {
		return peer.Chain{}, err
	}

	s.evHandler("state: NetRequestPeerChain: peer-node[%s]: length[%d]", pr, chain.Length)

	return chain, nil
}

// NetRequestPeerStatus asks the peer for its status which includes the
// peers it knows about.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/nodes/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := s.send(ctx, url, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-index[%d]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.KnownPeers)

	return ps, nil
}

// =============================================================================

// send is a helper function to send a GET request to a node and decode the
// response.
func (s *State) send(ctx context.Context, url string, dataRecv any) error {
	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 512))
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
