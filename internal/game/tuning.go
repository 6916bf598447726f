package game

const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	BallRadius     = 8.0
	BallServeSpeed = 5.0
	BallMaxSpeed   = 14.0
	HitAccel       = 1.05 // speed multiplier on every paddle hit
	MaxDeflect     = 6.0  // vertical speed added at full contact offset

	PaddleWidth  = 12.0
	PaddleHeight = 90.0
	PaddleMargin = 30.0
	PaddleSpeed  = 7.0

	BotDeadzone = 10.0 // vertical slack before the bot paddle reacts

	MaxServeAngle = 0.5 // |vy/vx| bound on serve
)
