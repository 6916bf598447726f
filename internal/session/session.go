package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pongserver/internal/game"
)

type Mode string

const (
	ModeLocal      Mode = "local"
	ModeVsComputer Mode = "vs-computer"
	ModeRemote     Mode = "remote"
	ModeFriend     Mode = "friend"
	ModeTournament Mode = "tournament"
)

// waitsForOpponent reports whether a mode starts without a full lineup.
func waitsForOpponent(mode Mode) bool {
	switch mode {
	case ModeRemote, ModeFriend, ModeTournament:
		return true
	default:
		return false
	}
}

var ErrCallbacksNotSet = errors.New("tick and render callbacks must be set before start")

// Callback receives the session for side effects (broadcasting state,
// win detection, teardown bookkeeping).
type Callback func(*Match)

const (
	defaultTickEvery   = 50 * time.Millisecond // 20 Hz physics
	defaultRenderEvery = 100 * time.Millisecond
	DefaultCountdown   = 3
)

// Match owns the authoritative state of one running contest: field,
// ball, paddles, scores, countdown, the two participant slots, and the
// two repeating loops that drive it. All state is guarded by mu; the
// loops are plain goroutines, each holding its own cancel func so Stop
// can kill exactly the pair it started.
type Match struct {
	ID   string
	Mode Mode

	mu        sync.Mutex
	state     game.State
	countdown int
	waiting   bool
	running   bool
	entries   map[int]*Entry

	tickCb    Callback
	renderCb  Callback
	cleanupCb Callback

	cancelTick   context.CancelFunc
	cancelRender context.CancelFunc

	tickEvery     time.Duration
	renderEvery   time.Duration
	countdownStep time.Duration

	log *zap.Logger
}

// New builds a fresh match for the given mode: zeroed scores, empty
// connection map, not running. Remote, friend and tournament matches
// start in the waiting state.
func New(mode Mode, log *zap.Logger) *Match {
	if log == nil {
		log = zap.NewNop()
	}
	return &Match{
		ID:            uuid.NewString(),
		Mode:          mode,
		state:         game.NewState(),
		countdown:     DefaultCountdown,
		waiting:       waitsForOpponent(mode),
		entries:       make(map[int]*Entry, 2),
		tickEvery:     defaultTickEvery,
		renderEvery:   defaultRenderEvery,
		countdownStep: time.Second,
		log:           log.With(zap.String("mode", string(mode))),
	}
}

func (m *Match) SetTickCallback(fn Callback)    { m.mu.Lock(); m.tickCb = fn; m.mu.Unlock() }
func (m *Match) SetRenderCallback(fn Callback)  { m.mu.Lock(); m.renderCb = fn; m.mu.Unlock() }
func (m *Match) SetCleanupCallback(fn Callback) { m.mu.Lock(); m.cleanupCb = fn; m.mu.Unlock() }

// SetCountdown overrides the countdown starting value.
func (m *Match) SetCountdown(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= 0 {
		m.countdown = n
	}
}

// Start launches the physics and render loops. It fails if either the
// tick or render callback is missing, and is a logged no-op when the
// match is already running.
func (m *Match) Start() error {
	m.mu.Lock()
	if m.tickCb == nil || m.renderCb == nil {
		m.mu.Unlock()
		return ErrCallbacksNotSet
	}
	if m.running {
		m.mu.Unlock()
		m.log.Warn("start on running match", zap.String("id", m.ID))
		return nil
	}
	tickCtx, cancelTick := context.WithCancel(context.Background())
	renderCtx, cancelRender := context.WithCancel(context.Background())
	m.cancelTick = cancelTick
	m.cancelRender = cancelRender
	m.running = true
	m.mu.Unlock()

	go m.loop(tickCtx, m.tickEvery, m.physicsTick)
	go m.loop(renderCtx, m.renderEvery, m.renderTick)
	return nil
}

// Stop cancels both loops. Logged no-op when not running. Stop does not
// invoke the cleanup callback; teardown ordering belongs to the caller.
func (m *Match) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.log.Warn("stop on stopped match", zap.String("id", m.ID))
		return
	}
	m.cancelTick()
	m.cancelRender()
	m.cancelTick = nil
	m.cancelRender = nil
	m.running = false
	m.mu.Unlock()
}

// InvokeCleanup runs the cleanup callback, if any. Separate from Stop
// so the caller can order a final broadcast before registry removal.
func (m *Match) InvokeCleanup() {
	m.mu.Lock()
	fn := m.cleanupCb
	m.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

func (m *Match) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Match) IsWaiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting
}

func (m *Match) Countdown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countdown
}

func (m *Match) Scores() (a, b int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ScoreA, m.state.ScoreB
}

func (m *Match) loop(ctx context.Context, every time.Duration, fn func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

func (m *Match) physicsTick() {
	m.mu.Lock()
	if m.Mode == ModeVsComputer {
		game.BotTrack(&m.state, 1)
	}
	game.Step(&m.state)
	fn := m.tickCb
	m.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

func (m *Match) renderTick() {
	m.mu.Lock()
	fn := m.renderCb
	m.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

// Action is a paddle command from a participant.
type Action string

const (
	ActionUp   Action = "up"
	ActionDown Action = "down"
	ActionStop Action = "stop"
)

type Input struct {
	Slot   int
	Action Action
}

// HandleInput sets the vertical speed of the slot's paddle. Unknown
// slots and actions are ignored.
func (m *Match) HandleInput(in Input) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.Slot < 1 || in.Slot > len(m.state.Paddles) {
		return
	}
	p := &m.state.Paddles[in.Slot-1]
	switch in.Action {
	case ActionUp:
		p.VY = -p.Speed
	case ActionDown:
		p.VY = p.Speed
	case ActionStop:
		p.VY = 0
	}
}

// FreezeBall zeroes the ball velocity. As a side effect it starts the
// match if it is not running yet, so a countdown launched right after
// can make progress.
func (m *Match) FreezeBall() {
	m.mu.Lock()
	game.FreezeBall(&m.state)
	running := m.running
	m.mu.Unlock()

	if !running {
		if err := m.Start(); err != nil {
			m.log.Error("freeze could not start match", zap.String("id", m.ID), zap.Error(err))
		}
	}
}

// RunCountdown steps the countdown toward zero once per step interval.
// The running flag is re-checked before every step: an external Stop
// leaves the countdown frozen where it is and the waiting flag
// untouched. On normal completion the session leaves the waiting state
// and the ball is served.
func (m *Match) RunCountdown() {
	go func() {
		for {
			m.mu.Lock()
			if !m.running {
				m.mu.Unlock()
				return
			}
			if m.countdown <= 0 {
				m.waiting = false
				game.Serve(&m.state, serveDirection())
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()

			time.Sleep(m.countdownStep)

			m.mu.Lock()
			if !m.running {
				m.mu.Unlock()
				return
			}
			m.countdown--
			m.mu.Unlock()
		}
	}()
}

func serveDirection() float64 {
	if rand.Intn(2) == 0 {
		return -1
	}
	return 1
}

// Result of a finished (or in-flight) match. Nil until both slots hold
// an identity; a live connection is not required. Scores decide the
// winner; on a tie slot 1 wins.
type Result struct {
	Winner      Identity
	Loser       Identity
	WinnerScore int
	LoserScore  int
}

func (m *Match) Result() *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok1 := m.entries[1]
	b, ok2 := m.entries[2]
	if !ok1 || !ok2 {
		return nil
	}
	if m.state.ScoreB > m.state.ScoreA {
		return &Result{
			Winner:      b.Identity,
			Loser:       a.Identity,
			WinnerScore: m.state.ScoreB,
			LoserScore:  m.state.ScoreA,
		}
	}
	return &Result{
		Winner:      a.Identity,
		Loser:       b.Identity,
		WinnerScore: m.state.ScoreA,
		LoserScore:  m.state.ScoreB,
	}
}

// Snapshot is a copy of the observable match state, safe to serialize
// without holding the session lock.
type Snapshot struct {
	State     game.State
	Countdown int
	Waiting   bool
	Running   bool
}

func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:     m.state,
		Countdown: m.countdown,
		Waiting:   m.waiting,
		Running:   m.running,
	}
}
