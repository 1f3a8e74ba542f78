package game

import "arena/internal/models"

// ServeBall returns a ball at field center moving toward the given slot.
func ServeBall(towards string) models.Ball {
	dx := models.ServeSpeedX
	if towards == models.SlotPlayer1 {
		dx = -models.ServeSpeedX
	}
	return models.Ball{
		X:  models.FieldWidth / 2,
		Y:  models.FieldHeight / 2,
		DX: dx,
		DY: models.ServeSpeedY,
	}
}

// Advance moves the ball one tick and resolves collisions. It returns the
// updated ball and the slot that scored this tick, or "" when no point was
// scored. Collisions reflect the overshoot back into the field rather than
// testing a single point, so a fast ball cannot tunnel through a wall or
// paddle face in one tick.
func Advance(ball models.Ball, paddles map[string]models.Paddle) (models.Ball, string) {
	prevX := ball.X
	ball.X += ball.DX
	ball.Y += ball.DY

	// Top and bottom walls invert the vertical component.
	if ball.Y <= 0 && ball.DY < 0 {
		ball.Y = -ball.Y
		ball.DY = -ball.DY
	}
	if ball.Y >= models.FieldHeight && ball.DY > 0 {
		ball.Y = 2*models.FieldHeight - ball.Y
		ball.DY = -ball.DY
	}
	ball.Y = clamp(ball.Y, 0, models.FieldHeight)

	scoredBy := ""

	// Left side: paddle face first, then the wall. A paddle only blocks a ball
	// that crossed its face this tick; one that started behind the face has
	// already beaten the paddle and runs on to the wall. A ball past the wall
	// is a point for the opposing slot; the ball rebounds into play so the
	// rally continues without a serve pause.
	if ball.DX < 0 {
		if paddle, ok := paddles[models.SlotPlayer1]; ok {
			face := paddle.X + paddle.Width
			if prevX >= face && ball.X <= face && ball.Y >= paddle.Y && ball.Y <= paddle.Y+paddle.Height {
				ball.X = 2*face - ball.X
				ball.DX = -ball.DX
			}
		}
		if ball.X <= 0 && ball.DX < 0 {
			ball.X = -ball.X
			ball.DX = -ball.DX
			scoredBy = models.SlotPlayer2
		}
	}

	// Right side, mirrored.
	if ball.DX > 0 {
		if paddle, ok := paddles[models.SlotPlayer2]; ok {
			face := paddle.X
			if prevX <= face && ball.X >= face && ball.Y >= paddle.Y && ball.Y <= paddle.Y+paddle.Height {
				ball.X = 2*face - ball.X
				ball.DX = -ball.DX
			}
		}
		if ball.X >= models.FieldWidth && ball.DX > 0 {
			ball.X = 2*models.FieldWidth - ball.X
			ball.DX = -ball.DX
			scoredBy = models.SlotPlayer1
		}
	}
	ball.X = clamp(ball.X, 0, models.FieldWidth)

	return ball, scoredBy
}

// StepPaddle moves a paddle one fixed step up or down, clamped to the field's
// vertical extent. Unknown directions leave the paddle unchanged.
func StepPaddle(paddle models.Paddle, direction string) models.Paddle {
	switch direction {
	case models.DirectionUp:
		paddle.Y -= models.PaddleStep
	case models.DirectionDown:
		paddle.Y += models.PaddleStep
	}
	paddle.Y = clamp(paddle.Y, 0, models.FieldHeight-paddle.Height)
	return paddle
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
