package game

import (
	"math"
	"math/rand"
)

// Step advances the state by one physics tick: paddle movement, ball
// movement, wall and paddle bounces, and scoring on left/right exits.
func Step(s *State) {
	for i := range s.Paddles {
		p := &s.Paddles[i]
		p.Y += p.VY
		half := p.Height/2 + p.Width/2
		if p.Y < half {
			p.Y = half
		}
		if p.Y > s.Field.Height-half {
			p.Y = s.Field.Height - half
		}
	}

	b := &s.Ball
	b.X += b.VX
	b.Y += b.VY

	if b.Y-b.Radius < 0 {
		b.Y = b.Radius
		b.VY = -b.VY
	}
	if b.Y+b.Radius > s.Field.Height {
		b.Y = s.Field.Height - b.Radius
		b.VY = -b.VY
	}

	if b.VX < 0 {
		bouncePaddle(s, &s.Paddles[0], 1)
	} else if b.VX > 0 {
		bouncePaddle(s, &s.Paddles[1], -1)
	}

	if b.X+b.Radius < 0 {
		s.ScoreB++
		Serve(s, -1)
	} else if b.X-b.Radius > s.Field.Width {
		s.ScoreA++
		Serve(s, 1)
	}
}

// bouncePaddle reflects the ball off a paddle capsule. dir is the x
// direction the ball travels after the bounce (+1 off the left paddle,
// -1 off the right one). Contact offset along the paddle deflects the
// ball vertically, and every hit speeds it up a little.
func bouncePaddle(s *State, p *Paddle, dir float64) {
	b := &s.Ball
	reach := p.Width/2 + b.Radius
	if math.Abs(b.X-p.X) > reach {
		return
	}
	halfSpan := p.Height/2 + p.Width/2
	offset := b.Y - p.Y
	if math.Abs(offset) > halfSpan+b.Radius {
		return
	}

	b.X = p.X + dir*reach
	b.VX = dir * math.Abs(b.VX) * HitAccel
	b.VY += offset / halfSpan * MaxDeflect

	speed := math.Hypot(b.VX, b.VY)
	if speed > BallMaxSpeed {
		scale := BallMaxSpeed / speed
		b.VX *= scale
		b.VY *= scale
	}
}

// Serve recenters the ball and launches it in the given x direction
// (+1 toward the right goal, -1 toward the left) at a random shallow
// angle.
func Serve(s *State, dir float64) {
	s.Ball.X = s.Field.Width / 2
	s.Ball.Y = s.Field.Height / 2
	s.Ball.VX = dir * BallServeSpeed
	s.Ball.VY = (rand.Float64()*2 - 1) * MaxServeAngle * BallServeSpeed
}

// FreezeBall zeroes the ball velocity in place.
func FreezeBall(s *State) {
	s.Ball.VX = 0
	s.Ball.VY = 0
}
