// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// Set of error variables for the ledger operations.
var (
	ErrInvalidProof  = errors.New("proof does not solve the puzzle posed by the latest block")
	ErrChainChanged  = errors.New("latest block changed while the block was being created")
	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("transaction amount must be a finite number")
)

// DefaultPeerTimeout bounds a single peer request when no timeout is
// configured.
const DefaultPeerTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining and conflict resolution.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalResolve()
}

// noopWorker is used until a worker registers itself.
type noopWorker struct{}

func (noopWorker) Shutdown()           {}
func (noopWorker) SignalStartMining()  {}
func (noopWorker) SignalCancelMining() {}
func (noopWorker) SignalResolve()      {}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	NodeID      string
	Host        string
	Storage     database.Storage
	Genesis     genesis.Genesis
	KnownPeers  *peer.PeerSet
	AutoMine    bool
	PeerTimeout time.Duration
	Client      *http.Client
	EvHandler   EventHandler
}

// State manages the chain, the pending transactions and the known peers.
type State struct {
	mu sync.Mutex

	nodeID      string
	host        string
	autoMine    bool
	peerTimeout time.Duration
	client      *http.Client
	evHandler   EventHandler

	genesis    genesis.Genesis
	knownPeers *peer.PeerSet
	mempool    *mempool.Mempool
	db         *database.Database

	Worker Worker
}

// New constructs a new ledger. The genesis block is created when the storage
// holds no chain, otherwise the stored chain is loaded and validated.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	gen := cfg.Genesis
	if gen == (genesis.Genesis{}) {
		gen = genesis.Default()
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = DefaultPeerTimeout
	}

	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	db, err := database.New(gen, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		nodeID:      cfg.NodeID,
		host:        cfg.Host,
		autoMine:    cfg.AutoMine,
		peerTimeout: peerTimeout,
		client:      client,
		evHandler:   ev,

		genesis:    gen,
		knownPeers: knownPeers,
		mempool:    mempool.New(),
		db:         db,

		Worker: noopWorker{},
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all chain writing activity before the storage goes away.
	s.Worker.Shutdown()

	return s.db.Close()
}
