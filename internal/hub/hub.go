package hub

import (
	"sync"

	"go.uber.org/zap"

	"pongserver/internal/session"
)

// Session is what the hub needs from a registered match. Matches are
// registered as this interface so the hub stays pure bookkeeping.
type Session interface {
	Stop()
}

// PendingRemote is the single process-wide waiting-for-opponent slot
// used by anonymous matchmaking. Last write wins; there is no queue.
type PendingRemote struct {
	Identity session.Identity
	Conn     session.Conn
	Match    *session.Match
}

type userKey struct {
	userID string
	gameID string // empty for the user's primary session
}

// Hub correlates running sessions with users and holds the pending
// remote slot and the set of live tournaments. It contains no game
// logic. One lock guards all registries; sessions never coordinate
// with each other through the hub.
type Hub struct {
	mu          sync.Mutex
	sessions    map[Session]struct{}
	users       map[userKey]Session
	pending     *PendingRemote
	tournaments map[any]struct{}
	log         *zap.Logger
}

func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		sessions:    make(map[Session]struct{}),
		users:       make(map[userKey]Session),
		tournaments: make(map[any]struct{}),
		log:         log.Named("hub"),
	}
}

func (h *Hub) AddSession(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *Hub) RemoveSession(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// AddUserSession indexes a session under (userID, gameID). An empty
// gameID is the user's primary session; keyed entries let one user run
// several friend challenges at once.
func (h *Hub) AddUserSession(userID, gameID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.users[userKey{userID, gameID}] = s
}

func (h *Hub) GetUserSession(userID, gameID string) Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users[userKey{userID, gameID}]
}

func (h *Hub) RemoveUserSession(userID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.users, userKey{userID, gameID})
}

func (h *Hub) AddTournament(t any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tournaments[t] = struct{}{}
}

func (h *Hub) RemoveTournament(t any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tournaments, t)
}

func (h *Hub) TournamentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tournaments)
}

// SetPendingRemote installs or clears (nil) the pending remote slot.
func (h *Hub) SetPendingRemote(p *PendingRemote) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = p
}

func (h *Hub) GetPendingRemote() *PendingRemote {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

func (h *Hub) IsUserPendingRemote(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil && h.pending.Identity.UserID == userID
}

// StopAll stops every registered session and then unconditionally
// clears all registries. A panic in one session's Stop is logged and
// must not keep the remaining sessions from stopping, nor the
// registries from being cleared.
func (h *Hub) StopAll() {
	h.mu.Lock()
	all := make([]Session, 0, len(h.sessions))
	for s := range h.sessions {
		all = append(all, s)
	}
	h.mu.Unlock()

	for _, s := range all {
		h.stopOne(s)
	}

	h.mu.Lock()
	clear(h.sessions)
	clear(h.users)
	clear(h.tournaments)
	h.pending = nil
	h.mu.Unlock()
}

func (h *Hub) stopOne(s Session) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("session stop failed", zap.Any("panic", r))
		}
	}()
	s.Stop()
}
