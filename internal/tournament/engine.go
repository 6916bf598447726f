package tournament

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Roster validation errors. Construction reports the first violated
// rule with the offending name.
var (
	ErrTooFewPlayers = fmt.Errorf("tournament needs at least %d players", minPlayers)
	ErrEmptyName     = fmt.Errorf("player name is empty")
	ErrNameLength    = fmt.Errorf("player name must be %d-%d characters", minNameLen, maxNameLen)
	ErrNameCharset   = fmt.Errorf("player name may only contain letters, digits, '_' and '-'")
	ErrDuplicateName = fmt.Errorf("duplicate player name")
)

const (
	minPlayers = 2
	minNameLen = 3
	maxNameLen = 15
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Pairing matches two players for one round. It is handed to the
// caller, who plays the match, fills in the scores, and records it.
// The engine keeps only recorded pairings.
type Pairing struct {
	PlayerA *Player `json:"playerA"`
	PlayerB *Player `json:"playerB"`
	Round   int     `json:"round"`
}

// Winner compares the recorded scores; slot A wins ties.
func (p *Pairing) Winner() *Player {
	if p.PlayerB.Score > p.PlayerA.Score {
		return p.PlayerB
	}
	return p.PlayerA
}

func (p *Pairing) Loser() *Player {
	if p.Winner() == p.PlayerA {
		return p.PlayerB
	}
	return p.PlayerA
}

// Engine runs a single-elimination bracket over a fixed roster. The
// active pool holds players not yet drawn this round; it shrinks as
// pairings are issued and is replenished only by winner advancement.
// The round counter is monotonic and the results log is append-only.
type Engine struct {
	ID string

	mu        sync.Mutex
	roster    []string
	pool      []*Player
	round     int
	roundOpen bool
	results   []Pairing
}

// NewEngine validates the roster and builds the bracket. Names are
// trimmed before validation; they must be non-empty, 3-15 characters
// from [A-Za-z0-9_-], and unique.
func NewEngine(names []string) (*Engine, error) {
	if len(names) < minPlayers {
		return nil, ErrTooFewPlayers
	}
	seen := make(map[string]struct{}, len(names))
	roster := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, ErrEmptyName
		}
		if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
			return nil, fmt.Errorf("%w: %q", ErrNameLength, name)
		}
		if !nameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrNameCharset, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}
		roster = append(roster, name)
	}

	e := &Engine{
		ID:     uuid.NewString(),
		roster: roster,
		pool:   make([]*Player, 0, len(roster)),
	}
	for _, name := range roster {
		e.pool = append(e.pool, &Player{Name: name})
	}
	return e, nil
}

// Roster returns the validated names in construction order.
func (e *Engine) Roster() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.roster))
	copy(out, e.roster)
	return out
}

// DrawRandomPlayer removes and returns one uniformly chosen player from
// the active pool, or nil when the pool is empty.
func (e *Engine) DrawRandomPlayer() *Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draw()
}

func (e *Engine) draw() *Player {
	if len(e.pool) == 0 {
		return nil
	}
	i := rand.Intn(len(e.pool))
	p := e.pool[i]
	e.pool[i] = e.pool[len(e.pool)-1]
	e.pool = e.pool[:len(e.pool)-1]
	return p
}

// NextPairing draws two distinct players from the pool. It removes
// exactly two players or none: when fewer than two remain, nil is
// returned and the pool is untouched, leaving any odd player to wait
// for advancing winners. The round counter advances the first time a
// pairing is issued after the previous round's pool ran out.
func (e *Engine) NextPairing() *Pairing {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pool) < 2 {
		e.roundOpen = false
		return nil
	}
	if !e.roundOpen {
		e.round++
		e.roundOpen = true
	}
	a := e.draw()
	b := e.draw()
	if len(e.pool) == 0 {
		e.roundOpen = false
	}
	return &Pairing{PlayerA: a, PlayerB: b, Round: e.round}
}

// RecordResult appends the pairing to the results log, resets the
// winner's score, and returns the winner to the pool for the next
// round. The loser is out of the tournament. The logged entry holds
// copies of both players, so later rounds reusing the live player
// objects cannot rewrite recorded history. When the result comes back
// to a pool with fewer than two undrawn players, the current round's
// draws are exhausted and the round is closed, so the reinserted
// winner pairs in the next round.
func (e *Engine) RecordResult(p Pairing) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, b := *p.PlayerA, *p.PlayerB
	e.results = append(e.results, Pairing{PlayerA: &a, PlayerB: &b, Round: p.Round})

	if len(e.pool) < 2 {
		e.roundOpen = false
	}
	w := p.Winner()
	w.Score = 0
	e.pool = append(e.pool, w)
}

// AdvanceWinner reinserts a player into the pool without a pairing
// record, score reset. Manual override path for walkovers. Closes the
// round under the same exhaustion rule as RecordResult.
func (e *Engine) AdvanceWinner(p *Player) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pool) < 2 {
		e.roundOpen = false
	}
	p.Score = 0
	e.pool = append(e.pool, p)
}

func (e *Engine) CurrentRound() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

func (e *Engine) PoolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}

// Results returns a copy of the append-only results log.
func (e *Engine) Results() []Pairing {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Pairing, len(e.results))
	copy(out, e.results)
	return out
}
