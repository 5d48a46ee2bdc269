package public

import (
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log           *zap.SugaredLogger
	State         *state.State
	Evts          *events.Events
	MiningTimeout time.Duration
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:           cfg.Log,
		State:         cfg.State,
		WS:            websocket.Upgrader{},
		Evts:          cfg.Evts,
		MiningTimeout: cfg.MiningTimeout,
	}

	const group = ""

	app.Handle(http.MethodGet, group, "/events", pbl.Events)
	app.Handle(http.MethodGet, group, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, group, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, group, "/mine", pbl.Mine)
	app.Handle(http.MethodPost, group, "/transactions/new", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, group, "/transactions/pending", pbl.Mempool)
	app.Handle(http.MethodGet, group, "/blocks/:index", pbl.BlockByIndex)
	app.Handle(http.MethodGet, group, "/blocks/:index/proof", pbl.TxProof)
	app.Handle(http.MethodPost, group, "/nodes/register", pbl.RegisterNodes)
	app.Handle(http.MethodGet, group, "/nodes/resolve", pbl.Resolve)
	app.Handle(http.MethodGet, group, "/nodes/status", pbl.Status)
}
