package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"arena/internal/models"
)

func centeredPaddles() map[string]models.Paddle {
	centerY := (models.FieldHeight - models.PaddleHeight) / 2
	return map[string]models.Paddle{
		models.SlotPlayer1: {
			X:      models.PaddleMargin,
			Y:      centerY,
			Width:  models.PaddleWidth,
			Height: models.PaddleHeight,
		},
		models.SlotPlayer2: {
			X:      models.FieldWidth - models.PaddleMargin - models.PaddleWidth,
			Y:      centerY,
			Width:  models.PaddleWidth,
			Height: models.PaddleHeight,
		},
	}
}

func TestServeBall(t *testing.T) {
	ball := ServeBall(models.SlotPlayer1)
	assert.Equal(t, models.FieldWidth/2, ball.X)
	assert.Equal(t, models.FieldHeight/2, ball.Y)
	assert.Negative(t, ball.DX)
	assert.NotZero(t, ball.DY)

	ball = ServeBall(models.SlotPlayer2)
	assert.Positive(t, ball.DX)
}

func TestAdvance_StraightMovement(t *testing.T) {
	ball := models.Ball{X: 400, Y: 300, DX: 5, DY: 3}

	got, scoredBy := Advance(ball, centeredPaddles())

	assert.Empty(t, scoredBy)
	assert.Equal(t, 405.0, got.X)
	assert.Equal(t, 303.0, got.Y)
}

func TestAdvance_TopWallBounce(t *testing.T) {
	ball := models.Ball{X: 400, Y: 2, DX: 5, DY: -5}

	got, scoredBy := Advance(ball, centeredPaddles())

	assert.Empty(t, scoredBy)
	assert.Equal(t, 3.0, got.Y) // overshoot of 3 reflected back in
	assert.Equal(t, 5.0, got.DY)
}

func TestAdvance_BottomWallBounce(t *testing.T) {
	ball := models.Ball{X: 400, Y: models.FieldHeight - 2, DX: 5, DY: 5}

	got, scoredBy := Advance(ball, centeredPaddles())

	assert.Empty(t, scoredBy)
	assert.Equal(t, models.FieldHeight-3, got.Y)
	assert.Equal(t, -5.0, got.DY)
}

func TestAdvance_LeftWallScoresAndRebounds(t *testing.T) {
	// Ball near the left wall, heading left, clear of the paddle.
	ball := models.Ball{X: 1, Y: 50, DX: -5, DY: 0}

	got, scoredBy := Advance(ball, centeredPaddles())

	assert.Equal(t, models.SlotPlayer2, scoredBy)
	assert.Equal(t, 5.0, got.DX)
	assert.GreaterOrEqual(t, got.X, 0.0)
	assert.LessOrEqual(t, got.X, models.FieldWidth)
}

func TestAdvance_RightWallScoresAndRebounds(t *testing.T) {
	ball := models.Ball{X: models.FieldWidth - 1, Y: 50, DX: 5, DY: 0}

	got, scoredBy := Advance(ball, centeredPaddles())

	assert.Equal(t, models.SlotPlayer1, scoredBy)
	assert.Equal(t, -5.0, got.DX)
	assert.LessOrEqual(t, got.X, models.FieldWidth)
}

func TestAdvance_LeftPaddleBounce(t *testing.T) {
	paddles := centeredPaddles()
	face := paddles[models.SlotPlayer1].X + paddles[models.SlotPlayer1].Width

	// Ball one tick away from crossing the paddle face at paddle height.
	ball := models.Ball{X: face + 2, Y: models.FieldHeight / 2, DX: -5, DY: 0}

	got, scoredBy := Advance(ball, paddles)

	assert.Empty(t, scoredBy)
	assert.Equal(t, 5.0, got.DX)
	assert.Greater(t, got.X, face)
}

func TestAdvance_RightPaddleBounce(t *testing.T) {
	paddles := centeredPaddles()
	face := paddles[models.SlotPlayer2].X

	ball := models.Ball{X: face - 2, Y: models.FieldHeight / 2, DX: 5, DY: 0}

	got, scoredBy := Advance(ball, paddles)

	assert.Empty(t, scoredBy)
	assert.Equal(t, -5.0, got.DX)
	assert.Less(t, got.X, face)
}

func TestAdvance_BallAlreadyBehindLeftFaceRunsToWall(t *testing.T) {
	paddles := centeredPaddles()
	face := paddles[models.SlotPlayer1].X + paddles[models.SlotPlayer1].Width

	// Already inside the paddle's column at paddle height: the face was beaten
	// on a previous tick, so the ball keeps going instead of bouncing back out.
	ball := models.Ball{X: face - 15, Y: models.FieldHeight / 2, DX: -5, DY: 0}

	got, scoredBy := Advance(ball, paddles)

	assert.Empty(t, scoredBy)
	assert.Equal(t, -5.0, got.DX)
	assert.Equal(t, face-20, got.X)
}

func TestAdvance_BallAlreadyBehindRightFaceRunsToWall(t *testing.T) {
	paddles := centeredPaddles()
	face := paddles[models.SlotPlayer2].X

	ball := models.Ball{X: face + 15, Y: models.FieldHeight / 2, DX: 5, DY: 0}

	got, scoredBy := Advance(ball, paddles)

	assert.Empty(t, scoredBy)
	assert.Equal(t, 5.0, got.DX)
	assert.Equal(t, face+20, got.X)
}

func TestAdvance_BallMissesPaddleOutsideVerticalExtent(t *testing.T) {
	paddles := centeredPaddles()

	// Heading past the left paddle well above it.
	ball := models.Ball{X: 40, Y: 10, DX: -50, DY: 0}

	got, scoredBy := Advance(ball, paddles)

	assert.Equal(t, models.SlotPlayer2, scoredBy)
	assert.Positive(t, got.DX)
}

func TestAdvance_FastBallNeverLeavesField(t *testing.T) {
	ball := models.Ball{X: 3, Y: 4, DX: -400, DY: -300}

	got, _ := Advance(ball, centeredPaddles())

	assert.GreaterOrEqual(t, got.X, 0.0)
	assert.LessOrEqual(t, got.X, models.FieldWidth)
	assert.GreaterOrEqual(t, got.Y, 0.0)
	assert.LessOrEqual(t, got.Y, models.FieldHeight)
}

func TestStepPaddle_Up(t *testing.T) {
	paddle := models.Paddle{X: 20, Y: 100, Width: 10, Height: 100}

	got := StepPaddle(paddle, models.DirectionUp)

	assert.Equal(t, 90.0, got.Y)
}

func TestStepPaddle_Down(t *testing.T) {
	paddle := models.Paddle{X: 20, Y: 100, Width: 10, Height: 100}

	got := StepPaddle(paddle, models.DirectionDown)

	assert.Equal(t, 110.0, got.Y)
}

func TestStepPaddle_ClampedAtTop(t *testing.T) {
	paddle := models.Paddle{X: 20, Y: 5, Width: 10, Height: 100}

	got := StepPaddle(paddle, models.DirectionUp)

	assert.Equal(t, 0.0, got.Y)
}

func TestStepPaddle_ClampedAtBottom(t *testing.T) {
	paddle := models.Paddle{X: 20, Y: models.FieldHeight - 105, Width: 10, Height: 100}

	got := StepPaddle(paddle, models.DirectionDown)

	assert.Equal(t, models.FieldHeight-100, got.Y)
}

func TestStepPaddle_UnknownDirectionUnchanged(t *testing.T) {
	paddle := models.Paddle{X: 20, Y: 100, Width: 10, Height: 100}

	got := StepPaddle(paddle, "sideways")

	assert.Equal(t, paddle, got)
}
