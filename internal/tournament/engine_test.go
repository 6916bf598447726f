package tournament

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineValidation(t *testing.T) {
	cases := []struct {
		name    string
		players []string
		wantErr error
	}{
		{"valid", []string{"Alice", "Bob"}, nil},
		{"trims whitespace", []string{" Alice ", "Bob"}, nil},
		{"too few", []string{"Alice"}, ErrTooFewPlayers},
		{"empty after trim", []string{"Alice", "   "}, ErrEmptyName},
		{"duplicate", []string{"Alice", "Bob", "Alice"}, ErrDuplicateName},
		{"duplicate after trim", []string{"Alice", " Alice"}, ErrDuplicateName},
		{"too short", []string{"Al", "Bob"}, ErrNameLength},
		{"too long", []string{"Abcdefghijklmnop", "Bob"}, ErrNameLength},
		{"bad charset", []string{"Al ice!", "Bob"}, ErrNameCharset},
		{"unicode rejected", []string{"Ålice", "Bob"}, ErrNameCharset},
		{"underscore and hyphen ok", []string{"a_l-1", "Bob"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewEngine(tc.players)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, 0, e.CurrentRound())
		})
	}
}

func TestDrawRandomPlayer(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie"})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		p := e.DrawRandomPlayer()
		require.NotNil(t, p)
		assert.False(t, seen[p.Name], "player %s drawn twice", p.Name)
		seen[p.Name] = true
	}
	assert.Nil(t, e.DrawRandomPlayer(), "empty pool draws nil")
}

func TestFourPlayerBracketProgression(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie", "Dave"})
	require.NoError(t, err)

	p1 := e.NextPairing()
	require.NotNil(t, p1)
	assert.Equal(t, 1, p1.Round)

	p2 := e.NextPairing()
	require.NotNil(t, p2)
	assert.Equal(t, 1, p2.Round)

	// Both semifinals are disjoint.
	names := map[string]bool{}
	for _, p := range []*Player{p1.PlayerA, p1.PlayerB, p2.PlayerA, p2.PlayerB} {
		assert.False(t, names[p.Name], "player %s in two pairings", p.Name)
		names[p.Name] = true
	}
	assert.Len(t, names, 4)

	p1.PlayerA.Score = 5
	p1.PlayerB.Score = 2
	e.RecordResult(*p1)
	p2.PlayerA.Score = 1
	p2.PlayerB.Score = 5
	e.RecordResult(*p2)

	final := e.NextPairing()
	require.NotNil(t, final)
	assert.Equal(t, 2, final.Round)

	finalists := map[string]bool{final.PlayerA.Name: true, final.PlayerB.Name: true}
	assert.True(t, finalists[p1.PlayerA.Name], "semifinal 1 winner should reach the final")
	assert.True(t, finalists[p2.PlayerB.Name], "semifinal 2 winner should reach the final")
	assert.Zero(t, final.PlayerA.Score, "scores reset between rounds")
	assert.Zero(t, final.PlayerB.Score)

	final.PlayerA.Score = 5
	final.PlayerB.Score = 4
	e.RecordResult(*final)

	assert.Nil(t, e.NextPairing(), "tournament is over")
	assert.Len(t, e.Results(), 3)
	assert.Equal(t, 2, e.CurrentRound())
}

func TestOddPoolLeavesPlayerWaiting(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie"})
	require.NoError(t, err)

	p1 := e.NextPairing()
	require.NotNil(t, p1)
	assert.Equal(t, 1, p1.Round)
	assert.Equal(t, 1, e.PoolSize(), "odd player stays in the pool")

	// Only one player left: no pairing, pool untouched.
	assert.Nil(t, e.NextPairing())
	assert.Equal(t, 1, e.PoolSize())

	p1.PlayerA.Score = 3
	p1.PlayerB.Score = 5
	e.RecordResult(*p1)

	final := e.NextPairing()
	require.NotNil(t, final)
	assert.Equal(t, 2, final.Round, "leftover pairs with the winner in the next round")
}

func TestResultsLogKeepsRecordedScores(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie"})
	require.NoError(t, err)

	p1 := e.NextPairing()
	require.NotNil(t, p1)
	p1.PlayerA.Score = 5
	p1.PlayerB.Score = 2
	wantWinner := p1.Winner().Name
	e.RecordResult(*p1)

	// The final reuses the live player objects; their later scores must
	// not bleed into the already-recorded entry.
	final := e.NextPairing()
	require.NotNil(t, final)
	final.PlayerA.Score = 1
	final.PlayerB.Score = 7
	e.RecordResult(*final)

	got := e.Results()[0]
	assert.Equal(t, p1.PlayerA.Name, got.PlayerA.Name)
	assert.Equal(t, 5, got.PlayerA.Score)
	assert.Equal(t, 2, got.PlayerB.Score)
	assert.Equal(t, wantWinner, got.Winner().Name)
}

func TestRecordWithoutDrainedDrawClosesRound(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie"})
	require.NoError(t, err)

	p1 := e.NextPairing()
	require.NotNil(t, p1)
	require.Equal(t, 1, p1.Round)

	// Result recorded straight away, with no intervening nil draw.
	p1.PlayerA.Score = 5
	p1.PlayerB.Score = 2
	e.RecordResult(*p1)

	final := e.NextPairing()
	require.NotNil(t, final)
	assert.Equal(t, 2, final.Round, "leftover-vs-winner match belongs to the next round")
}

func TestRecordResultWinnerByScore(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob"})
	require.NoError(t, err)

	p := e.NextPairing()
	require.NotNil(t, p)
	p.PlayerA.Score = 2
	p.PlayerB.Score = 7
	winner := p.Winner()
	assert.Equal(t, p.PlayerB, winner)
	assert.Equal(t, p.PlayerA, p.Loser())

	e.RecordResult(*p)
	assert.Zero(t, winner.Score)
	assert.Equal(t, 1, e.PoolSize(), "only the winner returns to the pool")

	// Ties go to slot A.
	tie := Pairing{PlayerA: &Player{Name: "Xavier", Score: 3}, PlayerB: &Player{Name: "Yves-A", Score: 3}}
	assert.Equal(t, tie.PlayerA, tie.Winner())
}

func TestAdvanceWinnerManualPath(t *testing.T) {
	e, err := NewEngine([]string{"Alice", "Bob", "Charlie", "Dave"})
	require.NoError(t, err)

	p := e.NextPairing()
	require.NotNil(t, p)
	p.PlayerA.Score = 9
	e.AdvanceWinner(p.PlayerA)

	assert.Zero(t, p.PlayerA.Score)
	assert.Equal(t, 3, e.PoolSize())
	assert.Empty(t, e.Results(), "manual advancement leaves no pairing record")
}
