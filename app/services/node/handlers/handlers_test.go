package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// nodeTests holds methods for each node subtest. This type allows passing
// dependencies for tests while still providing a convenient syntax when
// subtests are registered.
type nodeTests struct {
	app   http.Handler
	state *state.State
}

func newNode(t *testing.T, nodeID string) nodeTests {
	t.Helper()

	return newNodeWith(t, nodeID, 2, 10*time.Second, nil)
}

func newNodeWith(t *testing.T, nodeID string, difficulty uint16, miningTimeout time.Duration, ev state.EventHandler) nodeTests {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:  nodeID,
		Host:    nodeID + ":5000",
		Storage: memory.New(),
		Genesis: genesis.Genesis{
			Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Difficulty:   difficulty,
			MiningReward: 1,
			Proof:        100,
		},
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	app := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:      make(chan os.Signal, 1),
		Log:           zap.NewNop().Sugar(),
		State:         st,
		Evts:          events.New(),
		MiningTimeout: miningTimeout,
	})

	return nodeTests{app: app, state: st}
}

func (nt nodeTests) do(method string, path string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	nt.app.ServeHTTP(w, r)
	return w
}

// TestNode validates the node endpoints.
func TestNode(t *testing.T) {
	nt := newNode(t, "node1")

	t.Run("chain", nt.chain)
	t.Run("submitInvalid", nt.submitInvalid)
	t.Run("submitAndMine", nt.submitAndMine)
	t.Run("blocks", nt.blocks)
	t.Run("registerNodes", nt.registerNodes)
	t.Run("resolve", nt.resolve)
}

// TestMineFailures validates how failed mining operations are reported.
func TestMineFailures(t *testing.T) {
	t.Log("Given the need to report mining that can't complete.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the mining deadline passes before a proof is found.", testID)
		{
			nt := newNodeWith(t, "node1", 64, time.Nanosecond, nil)

			w := nt.do(http.MethodGet, "/mine", "")
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 503 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 503.", success, testID)

			if len(nt.state.RetrieveChain()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen another block is added while the proof is being solved.", testID)
		{
			proof, err := pow.Solve(context.Background(), 100, 2, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to solve the puzzle : %v", failed, testID, err)
			}

			// Once the solve has started, a competing block lands on the chain.
			var st *state.State
			var armed atomic.Bool
			ev := func(v string, args ...any) {
				if strings.HasPrefix(v, "pow: Solve: MINING: started") && armed.CompareAndSwap(true, false) {
					if _, err := st.AppendBlock(proof, nil); err != nil {
						t.Errorf("\t%s\tTest %d:\tShould be able to append the competing block : %v", failed, testID, err)
					}
				}
			}

			nt := newNodeWith(t, "node1", 2, 10*time.Second, ev)
			st = nt.state
			nt.state.SubmitTransaction(database.NewTx("a", "b", 5))
			armed.Store(true)

			w := nt.do(http.MethodGet, "/mine", "")
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 409 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 409.", success, testID)

			chain := nt.state.RetrieveChain()
			if len(chain) != 2 || len(chain[1].Transactions) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould keep only the competing block : %d", failed, testID, len(chain))
			}
			t.Logf("\t%s\tTest %d:\tShould keep only the competing block.", success, testID)
		}
	}
}

func (nt nodeTests) chain(t *testing.T) {
	t.Log("Given the need to return the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking a new node for its chain.", testID)
		{
			w := nt.do(http.MethodGet, "/chain", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			var chain peer.Chain
			if err := json.NewDecoder(w.Body).Decode(&chain); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if chain.Length != 1 || len(chain.Blocks) != 1 || chain.Blocks[0].PrevHash != database.GenesisPrevHash {
				t.Fatalf("\t%s\tTest %d:\tShould get back the genesis block : %+v", failed, testID, chain)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the genesis block.", success, testID)
		}
	}
}

func (nt nodeTests) submitInvalid(t *testing.T) {
	t.Log("Given the need to validate new transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting a transaction with a missing field.", testID)
		{
			w := nt.do(http.MethodPost, "/transactions/new", `{"sender":"a","recipient":"b"}`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)

			var resp struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if _, exists := resp.Fields["amount"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould name the missing field : %+v", failed, testID, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould name the missing field.", success, testID)

			if len(nt.state.RetrieveMempool()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not change the pending pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not change the pending pool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a document that is not JSON.", testID)
		{
			w := nt.do(http.MethodPost, "/transactions/new", `sender=a`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)
		}
	}
}

func (nt nodeTests) submitAndMine(t *testing.T) {
	t.Log("Given the need to submit transactions and mine blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting a transaction with a zero amount.", testID)
		{
			w := nt.do(http.MethodPost, "/transactions/new", `{"sender":"a","recipient":"b","amount":0}`)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 201 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 201.", success, testID)

			var resp struct {
				Message string `json:"message"`
			}
			json.NewDecoder(w.Body).Decode(&resp)

			if resp.Message != "Transaction will be added to Block 2" {
				t.Fatalf("\t%s\tTest %d:\tShould name the next block : %q", failed, testID, resp.Message)
			}
			t.Logf("\t%s\tTest %d:\tShould name the next block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining the pending transaction.", testID)
		{
			w := nt.do(http.MethodGet, "/mine", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			var resp struct {
				Message      string        `json:"message"`
				Index        uint64        `json:"index"`
				Transactions []database.Tx `json:"transactions"`
				Proof        uint64        `json:"proof"`
				PrevHash     string        `json:"previous_hash"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if resp.Message != "New Block Forged" || resp.Index != 2 || len(resp.Transactions) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould forge block 2 : %+v", failed, testID, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould forge block 2.", success, testID)

			reward := database.NewTx(state.RewardSender, "node1", 1)
			if resp.Transactions[1] != reward {
				t.Fatalf("\t%s\tTest %d:\tShould pay the reward to this node : %v", failed, testID, resp.Transactions[1])
			}
			t.Logf("\t%s\tTest %d:\tShould pay the reward to this node.", success, testID)

			if !database.IsValidChain(nt.state.RetrieveChain(), 2) {
				t.Fatalf("\t%s\tTest %d:\tShould keep a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep a valid chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen listing the pending transactions after mining.", testID)
		{
			w := nt.do(http.MethodGet, "/transactions/pending", "")

			var resp struct {
				Length int `json:"length"`
			}
			json.NewDecoder(w.Body).Decode(&resp)

			if w.Code != http.StatusOK || resp.Length != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have no pending transactions : %v %d", failed, testID, w.Code, resp.Length)
			}
			t.Logf("\t%s\tTest %d:\tShould have no pending transactions.", success, testID)
		}
	}
}

func (nt nodeTests) blocks(t *testing.T) {
	t.Log("Given the need to query blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen querying blocks by index.", testID)
		{
			if w := nt.do(http.MethodGet, "/blocks/2", ""); w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould find block 2 : %v", failed, testID, w.Code)
			}
			if w := nt.do(http.MethodGet, "/blocks/99", ""); w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould not find block 99 : %v", failed, testID, w.Code)
			}
			if w := nt.do(http.MethodGet, "/blocks/abc", ""); w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a bad index : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould map block lookups to status codes.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for a transaction proof.", testID)
		{
			w := nt.do(http.MethodGet, "/blocks/2/proof?sender=a&recipient=b&amount=0", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 : %v", failed, testID, w.Code)
			}

			var proof state.TxProof
			if err := json.NewDecoder(w.Body).Decode(&proof); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}
			if len(proof.Proof) == 0 || !strings.HasPrefix(proof.MerkleRoot, "0x") {
				t.Fatalf("\t%s\tTest %d:\tShould get back a proof : %+v", failed, testID, proof)
			}
			t.Logf("\t%s\tTest %d:\tShould get back a proof.", success, testID)

			if w := nt.do(http.MethodGet, "/blocks/2/proof?sender=x&recipient=y&amount=1", ""); w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould not prove an unknown transaction : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould not prove an unknown transaction.", success, testID)
		}
	}
}

func (nt nodeTests) registerNodes(t *testing.T) {
	t.Log("Given the need to register peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering an empty list.", testID)
		{
			if w := nt.do(http.MethodPost, "/nodes/register", `{"nodes":[]}`); w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen registering an invalid address.", testID)
		{
			if w := nt.do(http.MethodPost, "/nodes/register", `{"nodes":["http://"]}`); w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)
		}
	}
}

func (nt nodeTests) resolve(t *testing.T) {
	t.Log("Given the need to resolve conflicts.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a registered peer holds a longer chain.", testID)
		{
			other := newNode(t, "node2")
			for i := 0; i < 3; i++ {
				if w := other.do(http.MethodGet, "/mine", ""); w.Code != http.StatusOK {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine on the peer : %v", failed, testID, w.Code)
				}
			}

			srv := httptest.NewServer(other.app)
			defer srv.Close()

			body := `{"nodes":["` + srv.URL + `"]}`
			w := nt.do(http.MethodPost, "/nodes/register", body)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 201 : %v", failed, testID, w.Code)
			}

			var reg struct {
				Message    string   `json:"message"`
				TotalNodes []string `json:"total_nodes"`
			}
			json.NewDecoder(w.Body).Decode(&reg)

			if reg.Message != "New nodes have been added" || len(reg.TotalNodes) != 1 || reg.TotalNodes[0] != strings.TrimPrefix(srv.URL, "http://") {
				t.Fatalf("\t%s\tTest %d:\tShould list the network location : %+v", failed, testID, reg)
			}
			t.Logf("\t%s\tTest %d:\tShould list the network location.", success, testID)

			w = nt.do(http.MethodGet, "/nodes/resolve", "")

			var resp struct {
				Message  string           `json:"message"`
				NewChain []database.Block `json:"new_chain"`
			}
			json.NewDecoder(w.Body).Decode(&resp)

			if w.Code != http.StatusOK || resp.Message != "Our chain was replaced" || len(resp.NewChain) != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain : %v %q %d", failed, testID, w.Code, resp.Message, len(resp.NewChain))
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen resolving again.", testID)
		{
			w := nt.do(http.MethodGet, "/nodes/resolve", "")

			var resp struct {
				Message string           `json:"message"`
				Chain   []database.Block `json:"chain"`
			}
			json.NewDecoder(w.Body).Decode(&resp)

			if w.Code != http.StatusOK || resp.Message != "Our chain is authoritative" || len(resp.Chain) != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the chain : %v %q %d", failed, testID, w.Code, resp.Message, len(resp.Chain))
			}
			t.Logf("\t%s\tTest %d:\tShould keep the chain.", success, testID)
		}
	}
}
