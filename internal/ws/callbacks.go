package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"pongserver/internal/session"
	"pongserver/internal/types"
)

// attach wires the three session callbacks: win detection on the
// physics tick, state broadcast on the render tick, and registry
// removal plus result recording on cleanup.
func (d Deps) attach(m *session.Match, gameID string) {
	m.SetTickCallback(func(m *session.Match) {
		a, b := m.Scores()
		if a < d.WinScore && b < d.WinScore {
			return
		}
		d.finish(m)
	})

	m.SetRenderCallback(func(m *session.Match) {
		snap := m.Snapshot()
		msg := types.ServerMessage{
			Type: "state",
			State: &types.StateSnapshot{
				MatchID:   m.ID,
				Field:     snap.State.Field,
				Ball:      snap.State.Ball,
				Paddles:   snap.State.Paddles,
				ScoreA:    snap.State.ScoreA,
				ScoreB:    snap.State.ScoreB,
				Countdown: snap.Countdown,
				Waiting:   snap.Waiting,
			},
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return
		}
		m.Broadcast(b)
	})

	m.SetCleanupCallback(func(m *session.Match) {
		d.Hub.RemoveSession(m)
		for _, e := range m.Entries() {
			d.Hub.RemoveUserSession(e.Identity.UserID, gameID)
		}

		res := m.Result()
		if res == nil || m.Mode == session.ModeLocal || m.Mode == session.ModeVsComputer {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := d.Store.RecordMatch(ctx, res.Winner.UserID, res.Loser.UserID, res.WinnerScore, res.LoserScore); err != nil {
			d.Log.Error("record match failed",
				zap.String("match", m.ID), zap.Error(err))
		}
	})
}

// finish broadcasts the final score, stops the loops, and triggers
// cleanup. Called from the physics tick once a player reaches the win
// score; stopping the match keeps it from firing twice.
func (d Deps) finish(m *session.Match) {
	if res := m.Result(); res != nil {
		msg := types.ServerMessage{
			Type: "result",
			Result: &types.ResultPayload{
				Winner:      res.Winner.DisplayName,
				Loser:       res.Loser.DisplayName,
				WinnerScore: res.WinnerScore,
				LoserScore:  res.LoserScore,
			},
		}
		if b, err := json.Marshal(msg); err == nil {
			m.Broadcast(b)
		}
	}
	m.Stop()
	m.InvokeCleanup()
}
