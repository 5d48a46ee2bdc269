package worker

// resolveOperations handles finding new peers and adopting longer chains.
func (w *Worker) resolveOperations() {
	w.evHandler("worker: resolveOperations: G started")
	defer w.evHandler("worker: resolveOperations: G completed")

	for {
		select {
		case <-w.tick():
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-w.resolve:
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-w.shut:
			w.evHandler("worker: resolveOperations: received shut signal")
			return
		}
	}
}

// runResolveOperation updates the peer list and then resolves conflicts
// against the known peers.
func (w *Worker) runResolveOperation() {
	w.evHandler("worker: runResolveOperation: started")
	defer w.evHandler("worker: runResolveOperation: completed")

	w.runPeersOperation()

	replaced, err := w.state.Resolve(w.ctx)
	if err != nil {
		w.evHandler("worker: runResolveOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runResolveOperation: replaced[%t]", replaced)
}

// runPeersOperation asks every known peer for the peers it knows about and
// adds any that are new to this node.
func (w *Worker) runPeersOperation() {
	for _, pr := range w.state.RetrieveKnownPeers() {
		peerStatus, err := w.state.NetRequestPeerStatus(w.ctx, pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		for _, known := range peerStatus.KnownPeers {
			if w.state.AddKnownPeer(known) {
				w.evHandler("worker: runPeersOperation: adding peer-node %s", known)
			}
		}
	}
}
