package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"pongserver/internal/hub"
	"pongserver/internal/session"
	"pongserver/internal/store"
	"pongserver/internal/types"
)

// Deps is everything the socket layer needs to drive matches.
type Deps struct {
	Hub       *hub.Hub
	Store     store.Store
	Log       *zap.Logger
	Countdown int
	WinScore  int
}

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 10 * time.Minute
)

var (
	errNotFriends   = errors.New("users are not friends and no invite is pending")
	errNoSuchGame   = errors.New("no session found for this game id")
	errMatchFull    = errors.New("match already has two participants")
	errUnknownMode  = errors.New("unknown match mode")
	errMissingParam = errors.New("missing required query parameter")
)

// wsConn adapts a websocket connection to the session transport handle.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(b []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, b)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Handler upgrades the connection and attaches it to a match selected
// by the query parameters: mode (required), userId (required), name
// (required), gameId (friend/tournament key), hostId (opponent's user
// id when joining a keyed session), avatar.
func (d Deps) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode := session.Mode(q.Get("mode"))
		id := session.Identity{
			UserID:      q.Get("userId"),
			DisplayName: q.Get("name"),
			AvatarURL:   q.Get("avatar"),
		}
		gameID := q.Get("gameId")
		hostID := q.Get("hostId")

		if id.UserID == "" || id.DisplayName == "" {
			http.Error(w, "missing userId or name", http.StatusBadRequest)
			return
		}
		switch mode {
		case session.ModeLocal, session.ModeVsComputer, session.ModeRemote, session.ModeFriend, session.ModeTournament:
		default:
			http.Error(w, errUnknownMode.Error(), http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		wc := &wsConn{conn: conn}

		m, err := d.joinOrCreate(r.Context(), mode, id, gameID, hostID, wc)
		if err != nil {
			d.sendError(wc, err)
			_ = wc.Close()
			return
		}

		d.readLoop(r.Context(), m, id, wc)
		d.handleLeave(m, id, gameID, wc)
	}
}

// joinOrCreate finds the match this connection belongs to, creating one
// when the mode calls for it. Reconnection is tried first so a dropped
// participant lands back in their old session with scores intact.
func (d Deps) joinOrCreate(ctx context.Context, mode session.Mode, id session.Identity, gameID, hostID string, wc session.Conn) (*session.Match, error) {
	if s := d.Hub.GetUserSession(id.UserID, gameID); s != nil {
		if m, ok := s.(*session.Match); ok && m.UpdateConnection(id.UserID, wc) {
			d.Log.Info("participant reconnected",
				zap.String("match", m.ID), zap.String("user", id.UserID))
			return m, nil
		}
	}

	switch mode {
	case session.ModeLocal:
		guest := session.Identity{UserID: id.UserID + ":p2", DisplayName: id.DisplayName + " (P2)"}
		return d.startLineup(id, guest, gameID, wc, session.ModeLocal)

	case session.ModeVsComputer:
		cpu := session.Identity{UserID: "cpu", DisplayName: "Computer"}
		return d.startLineup(id, cpu, gameID, wc, session.ModeVsComputer)

	case session.ModeRemote:
		return d.joinRemote(id, wc)

	case session.ModeFriend:
		if gameID == "" {
			return nil, errMissingParam
		}
		if hostID == "" {
			return d.createKeyed(mode, id, gameID, wc), nil
		}
		if err := d.checkFriendGate(ctx, hostID, id.UserID); err != nil {
			return nil, err
		}
		return d.joinKeyed(id, gameID, hostID, wc)

	case session.ModeTournament:
		if gameID == "" {
			return nil, errMissingParam
		}
		if hostID == "" {
			return d.createKeyed(mode, id, gameID, wc), nil
		}
		return d.joinKeyed(id, gameID, hostID, wc)
	}
	return nil, errUnknownMode
}

// startLineup creates a single-connection match (local or vs-computer)
// with both slots filled from the start, and launches the countdown.
func (d Deps) startLineup(p1, p2 session.Identity, gameID string, wc session.Conn, mode session.Mode) (*session.Match, error) {
	m := session.New(mode, d.Log)
	m.SetCountdown(d.Countdown)
	m.Connect(1, p1, wc)
	m.Connect(2, p2, nil)
	d.attach(m, gameID)
	d.Hub.AddSession(m)
	d.Hub.AddUserSession(p1.UserID, gameID, m)

	m.FreezeBall()
	m.RunCountdown()
	return m, nil
}

// joinRemote either takes the pending slot or becomes it.
func (d Deps) joinRemote(id session.Identity, wc session.Conn) (*session.Match, error) {
	p := d.Hub.GetPendingRemote()
	if p == nil || p.Identity.UserID == id.UserID {
		m := session.New(session.ModeRemote, d.Log)
		m.SetCountdown(d.Countdown)
		m.Connect(1, id, wc)
		d.attach(m, "")
		d.Hub.AddSession(m)
		d.Hub.AddUserSession(id.UserID, "", m)
		d.Hub.SetPendingRemote(&hub.PendingRemote{Identity: id, Conn: wc, Match: m})
		d.send(wc, types.ServerMessage{Type: "waiting", Slot: 1})
		return m, nil
	}

	m := p.Match
	d.Hub.SetPendingRemote(nil)
	m.Connect(2, id, wc)
	d.Hub.AddUserSession(id.UserID, "", m)

	d.send(p.Conn, types.ServerMessage{Type: "matchFound", Slot: 1, OpponentID: id.UserID})
	d.send(wc, types.ServerMessage{Type: "matchFound", Slot: 2, OpponentID: p.Identity.UserID})

	m.FreezeBall()
	m.RunCountdown()
	return m, nil
}

func (d Deps) createKeyed(mode session.Mode, id session.Identity, gameID string, wc session.Conn) *session.Match {
	m := session.New(mode, d.Log)
	m.SetCountdown(d.Countdown)
	m.Connect(1, id, wc)
	d.attach(m, gameID)
	d.Hub.AddSession(m)
	d.Hub.AddUserSession(id.UserID, gameID, m)
	d.send(wc, types.ServerMessage{Type: "waiting", Slot: 1})
	return m
}

func (d Deps) joinKeyed(id session.Identity, gameID, hostID string, wc session.Conn) (*session.Match, error) {
	s := d.Hub.GetUserSession(hostID, gameID)
	m, ok := s.(*session.Match)
	if !ok {
		return nil, errNoSuchGame
	}
	slot := m.FreeSlot()
	if slot == 0 {
		return nil, errMatchFull
	}
	m.Connect(slot, id, wc)
	d.Hub.AddUserSession(id.UserID, gameID, m)

	for _, e := range m.Entries() {
		if e.Conn != nil {
			opp := hostID
			if e.Identity.UserID == hostID {
				opp = id.UserID
			}
			d.send(e.Conn, types.ServerMessage{Type: "matchFound", Slot: e.Slot, OpponentID: opp})
		}
	}

	m.FreezeBall()
	m.RunCountdown()
	return m, nil
}

// checkFriendGate admits a challenger who is either already a friend of
// the host or holds a pending invite from them.
func (d Deps) checkFriendGate(ctx context.Context, hostID, userID string) error {
	ok, err := d.Store.AreFriends(ctx, hostID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	inv, err := d.Store.PendingInvite(ctx, hostID, userID)
	if err != nil {
		return err
	}
	if inv == nil {
		return errNotFriends
	}
	return nil
}

func (d Deps) readLoop(ctx context.Context, m *session.Match, id session.Identity, wc *wsConn) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := wc.conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}

		var msg types.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			d.sendError(wc, errors.New("bad json"))
			continue
		}
		if msg.Type != "input" {
			continue
		}

		slot := msg.Slot
		if m.Mode != session.ModeLocal {
			// Only local play controls both paddles from one socket.
			slot = m.SlotOf(id.UserID)
		}
		m.HandleInput(session.Input{Slot: slot, Action: session.Action(msg.Action)})
	}
}

// handleLeave runs when the socket drops. The entry stays so the
// participant can reconnect; the session is only torn down once nobody
// is connected anymore.
func (d Deps) handleLeave(m *session.Match, id session.Identity, gameID string, wc session.Conn) {
	m.Disconnect(wc)
	_ = wc.Close()

	if d.Hub.IsUserPendingRemote(id.UserID) {
		d.Hub.SetPendingRemote(nil)
	}

	for _, e := range m.Entries() {
		if e.Conn != nil {
			d.send(e.Conn, types.ServerMessage{Type: "opponentLeft", OpponentID: id.UserID})
		}
	}

	if m.ConnectionCount() == 0 {
		if m.IsRunning() {
			m.Stop()
		}
		m.InvokeCleanup()
	}
}

func (d Deps) send(c session.Conn, msg types.ServerMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (d Deps) sendError(c session.Conn, err error) {
	d.send(c, types.ServerMessage{Type: "error", Error: err.Error()})
}
