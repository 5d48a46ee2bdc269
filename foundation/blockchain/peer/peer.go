// Package peer maintains the peer related information such as the set
// of known peers and the formats exchanged with them.
package peer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// InvalidAddressError is returned when a peer address can't be parsed into
// a network location.
type InvalidAddressError struct {
	Address string
	Err     error
}

// Error implements the error interface.
func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid peer address %q: %s", e.Address, e.Err)
}

// Unwrap provides access to the underlying parse error.
func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

// =============================================================================

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Parse takes a URL like address and keeps only the network location
// (host and optional port). An address without a scheme such as
// "10.0.0.5:5000" is accepted.
func Parse(address string) (Peer, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return Peer{}, &InvalidAddressError{Address: address, Err: errors.New("empty address")}
	}

	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return Peer{}, &InvalidAddressError{Address: address, Err: err}
	}

	if u.Hostname() == "" {
		return Peer{}, &InvalidAddressError{Address: address, Err: errors.New("missing host")}
	}

	if strings.HasSuffix(u.Host, ":") {
		return Peer{}, &InvalidAddressError{Address: address, Err: errors.New("missing port")}
	}

	if port := u.Port(); port != "" {
		n, err := strconv.ParseUint(port, 10, 16)
		if err != nil || n == 0 {
			return Peer{}, &InvalidAddressError{Address: address, Err: fmt.Errorf("invalid port %q", port)}
		}
	}

	return New(u.Host), nil
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the Stringer interface for logging.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// Chain represents the chain of a node as it is exchanged over the network.
type Chain struct {
	Blocks []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// NewChain constructs the network form of a chain.
func NewChain(blocks []database.Block) Chain {
	return Chain{
		Blocks: blocks,
		Length: len(blocks),
	}
}

// Validate checks the reported length matches the blocks that were sent.
func (c Chain) Validate() error {
	if c.Length != len(c.Blocks) {
		return fmt.Errorf("reported length %d does not match %d blocks", c.Length, len(c.Blocks))
	}
	return nil
}

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	NodeID           string `json:"node_id"`
	LatestBlockHash  string `json:"latest_block_hash"`
	LatestBlockIndex uint64 `json:"latest_block_index"`
	Pending          int    `json:"pending"`
	KnownPeers       []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers, excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}
