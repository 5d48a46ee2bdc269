// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	State         *state.State
	WS            websocket.Upgrader
	Evts          *events.Events
	MiningTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full chain and its length. This is also what peers
// request when resolving conflicts.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, peer.NewChain(h.State.RetrieveChain()), http.StatusOK)
}

// SubmitTransaction adds a new transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(ntx); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	tx := ntx.toTx()
	index, err := h.State.SubmitTransaction(tx)
	if err != nil {
		if errors.Is(err, state.ErrInvalidAmount) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx, "block", index)

	resp := message{
		Message: fmt.Sprintf("Transaction will be added to Block %d", index),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.RetrieveMempool()

	resp := pending{
		Transactions: trans,
		Length:       len(trans),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine solves the proof of work for the next block, pays this node the
// mining reward and forges the block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.MiningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MiningTimeout)
		defer cancel()
	}

	blk, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrChainChanged):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(errors.New("mining deadline exceeded"), http.StatusServiceUnavailable)
		default:
			return fmt.Errorf("mining: %w", err)
		}
	}

	resp := minedBlock{
		Message:      "New Block Forged",
		Index:        blk.Index,
		Transactions: blk.Transactions,
		Proof:        blk.Proof,
		PrevHash:     blk.PrevHash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(web.Param(r, "index"))
	if err != nil {
		return err
	}

	blk, err := h.State.QueryBlockByIndex(index)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block{Hash: blk.Hash(), Block: blk}, http.StatusOK)
}

// TxProof returns the merkle proof that a transaction, described by the
// query string, is part of the specified block.
func (h Handlers) TxProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(web.Param(r, "index"))
	if err != nil {
		return err
	}

	qs := r.URL.Query()

	amount, err := strconv.ParseFloat(qs.Get("amount"), 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid amount %q", qs.Get("amount")), http.StatusBadRequest)
	}

	tx := database.NewTx(qs.Get("sender"), qs.Get("recipient"), amount)

	proof, err := h.State.QueryTxProof(index, tx)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// RegisterNodes adds the specified addresses to the set of known peers.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nn newNodes
	if err := web.Decode(r, &nn); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nn); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	if err := h.State.RegisterPeers(nn.Nodes); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	peers := h.State.RetrieveKnownPeers()
	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}

	resp := registeredNodes{
		Message:    "New nodes have been added",
		TotalNodes: hosts,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve asks the known peers for their chains and adopts the longest
// valid chain.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.State.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	if replaced {
		resp := replacedChain{
			Message:  "Our chain was replaced",
			NewChain: h.State.RetrieveChain(),
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}

	resp := authoritativeChain{
		Message: "Our chain is authoritative",
		Chain:   h.State.RetrieveChain(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status, err := h.State.RetrieveStatus()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// =============================================================================

// parseIndex converts the index route parameter into a block index.
func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil || index == 0 {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index %q", s), http.StatusBadRequest)
	}

	return index, nil
}
