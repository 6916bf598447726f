package session

// Conn is the transport handle a participant is reachable on. The
// session only ever sends and closes; accepting and reading belong to
// the network layer.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Identity describes a participant. It is a value and is never mutated
// after being assigned to a slot.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Entry binds a slot to a participant and an optional live connection.
// Conn is nil while the participant is disconnected; the entry itself
// survives until the session is torn down, so identity and score are
// kept across transient drops.
type Entry struct {
	Slot     int
	Identity Identity
	Conn     Conn
}

// maxSlots bounds the connection map: a match never holds more than
// two entries.
const maxSlots = 2

// Connect inserts or overwrites the entry for the given slot.
// Out-of-range slots are ignored.
func (m *Match) Connect(slot int, id Identity, conn Conn) {
	if slot < 1 || slot > maxSlots {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[slot] = &Entry{Slot: slot, Identity: id, Conn: conn}
}

// IsConnected reports whether some entry currently holds this handle.
func (m *Match) IsConnected(conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Conn != nil && e.Conn == conn {
			return true
		}
	}
	return false
}

// Disconnect nulls the handle of the entry holding this connection.
func (m *Match) Disconnect(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Conn != nil && e.Conn == conn {
			e.Conn = nil
			return
		}
	}
}

// DisconnectUser nulls the handle of the entry owned by the given user.
// Returns false if no entry matches.
func (m *Match) DisconnectUser(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Identity.UserID == userID {
			e.Conn = nil
			return true
		}
	}
	return false
}

// ConnectionCount counts entries with a live handle.
func (m *Match) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Conn != nil {
			n++
		}
	}
	return n
}

// UpdateConnection swaps in a fresh handle for a returning user without
// touching the rest of the session state. Returns false if the user has
// no entry here.
func (m *Match) UpdateConnection(userID string, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Identity.UserID == userID {
			e.Conn = conn
			return true
		}
	}
	return false
}

// SlotOf returns the slot owned by the given user, or 0.
func (m *Match) SlotOf(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot, e := range m.entries {
		if e.Identity.UserID == userID {
			return slot
		}
	}
	return 0
}

// Entries returns a copy of the current connection entries.
func (m *Match) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out
}

// FreeSlot returns the lowest unoccupied slot, or 0 when full.
func (m *Match) FreeSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot := 1; slot <= maxSlots; slot++ {
		if _, ok := m.entries[slot]; !ok {
			return slot
		}
	}
	return 0
}

// Broadcast sends a payload to every live connection. Handles that fail
// to send are nulled, same as an explicit disconnect.
func (m *Match) Broadcast(payload []byte) {
	m.mu.Lock()
	conns := make(map[int]Conn, len(m.entries))
	for slot, e := range m.entries {
		if e.Conn != nil {
			conns[slot] = e.Conn
		}
	}
	m.mu.Unlock()

	var failed []int
	for slot, c := range conns {
		if err := c.Send(payload); err != nil {
			failed = append(failed, slot)
		}
	}
	if len(failed) == 0 {
		return
	}
	m.mu.Lock()
	for _, slot := range failed {
		if e, ok := m.entries[slot]; ok {
			e.Conn = nil
		}
	}
	m.mu.Unlock()
}
