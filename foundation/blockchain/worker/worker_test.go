package worker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, difficulty uint16, autoMine bool) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:   "worker",
		Host:     "localhost:5000",
		Storage:  memory.New(),
		AutoMine: autoMine,
		Genesis: genesis.Genesis{
			Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Difficulty:   difficulty,
			MiningReward: 1,
			Proof:        100,
		},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	return st
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func Test_AutoMine(t *testing.T) {
	t.Log("Given the need to mine in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a transaction is submitted to an auto mining node.", testID)
		{
			st := newState(t, 2, true)
			worker.Run(st, worker.Config{})
			defer st.Shutdown()

			st.SubmitTransaction(database.NewTx("a", "b", 5))

			if !waitFor(func() bool { return len(st.RetrieveChain()) >= 2 }) {
				t.Fatalf("\t%s\tTest %d:\tShould mine a block in the background.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block in the background.", success, testID)

			block, err := st.QueryBlockByIndex(2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query the block: %v", failed, testID, err)
			}
			if len(block.Transactions) != 2 || block.Transactions[1].Sender != state.RewardSender {
				t.Fatalf("\t%s\tTest %d:\tShould capture the transaction and the reward: %v", failed, testID, block.Transactions)
			}
			t.Logf("\t%s\tTest %d:\tShould capture the transaction and the reward.", success, testID)
		}
	}
}

func Test_Resolve(t *testing.T) {
	t.Log("Given the need to resolve conflicts in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a resolve is signaled with a longer peer chain.", testID)
		{
			longer := newState(t, 2, false)
			for len(longer.RetrieveChain()) < 4 {
				if _, err := longer.MineNewBlock(context.Background()); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
				}
			}

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/chain":
					json.NewEncoder(w).Encode(peer.NewChain(longer.RetrieveChain()))
				case "/nodes/status":
					status, _ := longer.RetrieveStatus()
					json.NewEncoder(w).Encode(status)
				default:
					http.NotFound(w, r)
				}
			}))
			defer srv.Close()

			st := newState(t, 2, false)
			if err := st.RegisterPeer(srv.URL); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to register the peer: %v", failed, testID, err)
			}

			worker.Run(st, worker.Config{})
			defer st.Shutdown()

			st.Worker.SignalResolve()

			if !waitFor(func() bool { return len(st.RetrieveChain()) == 4 }) {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the longer chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the longer chain.", success, testID)
		}
	}
}

func Test_Shutdown(t *testing.T) {
	t.Log("Given the need to stop the node while mining.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining a puzzle that can't be solved.", testID)
		{
			st := newState(t, 64, true)
			worker.Run(st, worker.Config{ResolveInterval: time.Hour})

			st.SubmitTransaction(database.NewTx("a", "b", 5))
			time.Sleep(50 * time.Millisecond)

			done := make(chan struct{})
			go func() {
				st.Shutdown()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould cancel mining on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould cancel mining on shutdown.", success, testID)

			if len(st.RetrieveChain()) != 1 || len(st.RetrieveMempool()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain and pool unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain and pool unchanged.", success, testID)
		}
	}
}
