package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"arena/internal/metrics"
	"arena/internal/models"
	"arena/internal/store"
)

// Teardown causes recorded in match history.
const (
	CauseCompleted = "completed"
	CauseError     = "error"
)

// Lifecycle owns match state creation and destruction. All other components
// only mutate state between Start and Stop.
type Lifecycle struct {
	store   *store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewLifecycle(st *store.Store, logger *zap.Logger, m *metrics.Metrics) *Lifecycle {
	return &Lifecycle{store: st, logger: logger, metrics: m}
}

// Start initializes ball, paddles and score for the match and marks it
// running. A match that is already running is left untouched, so concurrent
// first-viewer races cannot re-initialize state mid-play.
func (l *Lifecycle) Start(ctx context.Context, matchID string) error {
	claimed, err := l.store.ClaimStart(ctx, matchID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := l.store.SetBall(ctx, matchID, ServeBall(models.SlotPlayer1)); err != nil {
		return err
	}
	centerY := (models.FieldHeight - models.PaddleHeight) / 2
	paddles := map[string]models.Paddle{
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
	for slot, paddle := range paddles {
		if err := l.store.SetPaddle(ctx, matchID, slot, paddle); err != nil {
			return err
		}
	}
	if err := l.store.ResetScore(ctx, matchID); err != nil {
		return err
	}

	l.metrics.MatchesStarted.Inc()
	l.logger.Info("match started", zap.String("matchId", matchID))
	return nil
}

// Stop tears the match down: records history, deletes all per-match state and
// marks the match ended. Calling Stop on an already-ended match is a silent
// no-op. Normal completion and error causes share this one cleanup path.
func (l *Lifecycle) Stop(ctx context.Context, matchID, cause string) error {
	ended, err := l.store.ClearStatus(ctx, matchID)
	if err != nil {
		return err
	}
	if !ended {
		return nil
	}

	player1, player2, err := l.store.Players(ctx, matchID)
	if err != nil {
		l.logger.Warn("reading players during teardown", zap.String("matchId", matchID), zap.Error(err))
	}
	score, err := l.store.Score(ctx, matchID)
	if err != nil {
		l.logger.Warn("reading score during teardown", zap.String("matchId", matchID), zap.Error(err))
	}

	if err := l.store.AppendHistory(ctx, models.HistoryRecord{
		MatchID: matchID,
		Player1: player1,
		Player2: player2,
		Score:   score,
		Cause:   cause,
		EndedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if err := l.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}

	l.metrics.MatchesEnded.WithLabelValues(cause).Inc()
	l.logger.Info("match stopped", zap.String("matchId", matchID), zap.String("cause", cause))
	return nil
}
