package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pongserver/internal/hub"
	"pongserver/internal/tournament"
)

// API serves the non-socket endpoints. Tournament engines are indexed
// here by id; the hub only tracks them opaquely for shutdown counting.
type API struct {
	Hub *hub.Hub
	Log *zap.Logger

	mu          sync.Mutex
	tournaments map[string]*tournamentState
}

// tournamentState pairs an engine with the pairings that have been
// issued but not yet recorded. The engine itself keeps no ephemeral
// pairings, so the transport layer has to.
type tournamentState struct {
	engine *tournament.Engine
	open   map[string]*tournament.Pairing
}

func NewAPI(h *hub.Hub, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		Hub:         h,
		Log:         log.Named("api"),
		tournaments: make(map[string]*tournamentState),
	}
}

func (a *API) ListMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"activeMatches":     a.Hub.SessionCount(),
		"activeTournaments": a.Hub.TournamentCount(),
	})
}

func (a *API) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Players []string `json:"players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "bad json")
		return
	}

	engine, err := tournament.NewEngine(body.Players)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.mu.Lock()
	a.tournaments[engine.ID] = &tournamentState{
		engine: engine,
		open:   make(map[string]*tournament.Pairing),
	}
	a.mu.Unlock()
	a.Hub.AddTournament(engine)

	a.Log.Info("tournament created",
		zap.String("id", engine.ID), zap.Int("players", len(body.Players)))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      engine.ID,
		"players": engine.Roster(),
		"round":   engine.CurrentRound(),
	})
}

func (a *API) NextPairing(w http.ResponseWriter, r *http.Request) {
	ts := a.lookup(w, r)
	if ts == nil {
		return
	}

	p := ts.engine.NextPairing()
	if p == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"pairing": nil,
			"round":   ts.engine.CurrentRound(),
		})
		return
	}

	a.mu.Lock()
	ts.open[pairingKey(p.PlayerA.Name, p.PlayerB.Name)] = p
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"pairing": p,
		"round":   p.Round,
	})
}

func (a *API) RecordResult(w http.ResponseWriter, r *http.Request) {
	ts := a.lookup(w, r)
	if ts == nil {
		return
	}

	var body struct {
		PlayerA string `json:"playerA"`
		PlayerB string `json:"playerB"`
		ScoreA  int    `json:"scoreA"`
		ScoreB  int    `json:"scoreB"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "bad json")
		return
	}

	key := pairingKey(body.PlayerA, body.PlayerB)
	a.mu.Lock()
	p, ok := ts.open[key]
	if ok {
		delete(ts.open, key)
	}
	noneOpen := len(ts.open) == 0
	a.mu.Unlock()
	if !ok {
		httpError(w, http.StatusNotFound, "no open pairing for these players")
		return
	}

	p.PlayerA.Score = body.ScoreA
	p.PlayerB.Score = body.ScoreB
	winner := p.Winner()
	ts.engine.RecordResult(*p)

	resp := map[string]any{
		"winner": winner.Name,
		"round":  p.Round,
	}
	// Pool down to one player and nothing open: the bracket is done.
	if ts.engine.PoolSize() == 1 && noneOpen {
		resp["champion"] = winner.Name
		a.Hub.RemoveTournament(ts.engine)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) GetTournament(w http.ResponseWriter, r *http.Request) {
	ts := a.lookup(w, r)
	if ts == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      ts.engine.ID,
		"players": ts.engine.Roster(),
		"round":   ts.engine.CurrentRound(),
		"results": ts.engine.Results(),
	})
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) *tournamentState {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	ts := a.tournaments[id]
	a.mu.Unlock()
	if ts == nil {
		httpError(w, http.StatusNotFound, "tournament not found")
	}
	return ts
}

func pairingKey(a, b string) string { return a + "|" + b }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
