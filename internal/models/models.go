package models

// Playing field and simulation constants
const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	PaddleWidth  = 10.0
	PaddleHeight = 100.0
	PaddleMargin = 20.0
	PaddleStep   = 10.0

	ServeSpeedX = 5.0
	ServeSpeedY = 3.0

	TickRate = 60
)

// Player slots
const (
	SlotPlayer1 = "player1"
	SlotPlayer2 = "player2"
)

// Match status values
const (
	StatusRunning = "running"
	StatusEnded   = "ended"
)

// Paddle directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// Snapshot is the per-tick state message pushed to every viewer of a match.
type Snapshot struct {
	Event   string          `json:"event"`
	MatchID string          `json:"matchId"`
	Payload SnapshotPayload `json:"payload"`
}

type SnapshotPayload struct {
	Ball    Ball              `json:"ball"`
	Paddles map[string]Paddle `json:"paddles"`
	Score   Score             `json:"score"`
}

// PaddleCommand is the inbound viewer message moving a paddle one step.
type PaddleCommand struct {
	Slot      string `json:"slot"`
	Direction string `json:"direction"`
}

// HistoryRecord is appended once per match on teardown.
type HistoryRecord struct {
	MatchID string `json:"matchId"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Score   Score  `json:"score"`
	Cause   string `json:"cause"`
	EndedAt string `json:"endedAt"`
}

// Pairing is what a queued player polls for after being matched.
type Pairing struct {
	MatchID string `json:"matchId"`
	Slot    string `json:"slot"`
	Token   string `json:"token"`
}

type JoinReq struct {
	PlayerID string `json:"playerId"`
}

type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}

type CheckResp struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"matchId,omitempty"`
	Slot    string `json:"slot,omitempty"`
	Token   string `json:"token,omitempty"`
}

type CountersResp struct {
	Waiting int64 `json:"waiting"`
}
