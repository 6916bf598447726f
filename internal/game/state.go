package game

// Authoritative state of one match. Mutated only by the owning session
// under its lock; everything in this package is plain data and math.

type Field struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
}

// Paddle is a capsule: a rectangle of Width x Height plus semicircular
// caps of radius Width/2. X and Y are the capsule center.
type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VY     float64 `json:"vy"`
	Speed  float64 `json:"-"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type State struct {
	Field   Field
	Ball    Ball
	Paddles [2]Paddle // index 0 = slot 1 (left), index 1 = slot 2 (right)
	ScoreA  int
	ScoreB  int
}

func NewState() State {
	s := State{
		Field: Field{Width: FieldWidth, Height: FieldHeight},
		Ball: Ball{
			X:      FieldWidth / 2,
			Y:      FieldHeight / 2,
			Radius: BallRadius,
		},
	}
	s.Paddles[0] = Paddle{
		X:      PaddleMargin,
		Y:      FieldHeight / 2,
		Speed:  PaddleSpeed,
		Width:  PaddleWidth,
		Height: PaddleHeight,
	}
	s.Paddles[1] = Paddle{
		X:      FieldWidth - PaddleMargin,
		Y:      FieldHeight / 2,
		Speed:  PaddleSpeed,
		Width:  PaddleWidth,
		Height: PaddleHeight,
	}
	return s
}
