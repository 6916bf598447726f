package game

import "math"

// BotTrack steers the given paddle toward the ball's vertical position.
// It only sets the paddle's VY; movement and clamping happen in Step,
// so the bot obeys the same speed limits as a human player.
func BotTrack(s *State, idx int) {
	if idx < 0 || idx >= len(s.Paddles) {
		return
	}
	p := &s.Paddles[idx]
	diff := s.Ball.Y - p.Y
	if math.Abs(diff) < BotDeadzone {
		p.VY = 0
		return
	}
	if diff < 0 {
		p.VY = -p.Speed
	} else {
		p.VY = p.Speed
	}
}
