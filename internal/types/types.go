package types

import "pongserver/internal/game"

// ClientMessage is anything a participant sends over the socket.
type ClientMessage struct {
	Type   string `json:"type"` // "input"
	Slot   int    `json:"slot,omitempty"`
	Action string `json:"action,omitempty"` // "up" | "down" | "stop"
}

// StateSnapshot is the per-render-tick view of a match.
type StateSnapshot struct {
	MatchID   string         `json:"matchId"`
	Field     game.Field     `json:"field"`
	Ball      game.Ball      `json:"ball"`
	Paddles   [2]game.Paddle `json:"paddles"`
	ScoreA    int            `json:"scoreA"`
	ScoreB    int            `json:"scoreB"`
	Countdown int            `json:"countdown"`
	Waiting   bool           `json:"waiting"`
}

type ResultPayload struct {
	Winner      string `json:"winner"`
	Loser       string `json:"loser"`
	WinnerScore int    `json:"winnerScore"`
	LoserScore  int    `json:"loserScore"`
}

// ServerMessage is the single envelope for everything pushed to a
// participant.
type ServerMessage struct {
	Type       string         `json:"type"` // "state" | "waiting" | "matchFound" | "opponentLeft" | "result" | "error"
	State      *StateSnapshot `json:"state,omitempty"`
	Result     *ResultPayload `json:"result,omitempty"`
	Slot       int            `json:"slot,omitempty"`
	OpponentID string         `json:"opponentId,omitempty"`
	Error      string         `json:"error,omitempty"`
}
