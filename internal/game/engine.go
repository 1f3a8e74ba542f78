package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"arena/internal/metrics"
	"arena/internal/models"
	"arena/internal/store"
)

// Engine drives the fixed-rate simulation/broadcast loop. One engine runs per
// process; every match with at least one viewer is advanced and broadcast each
// tick. Matches are isolated: a failing match is stopped with an error cause
// and the loop carries on with the rest.
type Engine struct {
	store     *store.Store
	registry  *Registry
	lifecycle *Lifecycle
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(st *store.Store, registry *Registry, lifecycle *Lifecycle, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:     st,
		registry:  registry,
		lifecycle: lifecycle,
		logger:    logger,
		metrics:   m,
	}
}

// Run starts the tick loop. Calling Run while the loop is already running is
// a no-op; the loop stops when ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.loop(loopCtx, e.done)
	e.logger.Info("simulation loop started", zap.Int("tickRate", models.TickRate))
}

// Stop cancels the tick loop and waits for the current tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.logger.Info("simulation loop stopped")
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / models.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick advances and broadcasts every match that has viewers. Exported so
// tests can drive the simulation without the ticker.
func (e *Engine) Tick(ctx context.Context) {
	for _, matchID := range e.registry.Matches() {
		if err := e.step(ctx, matchID); err != nil {
			e.logger.Error("simulation step failed, stopping match",
				zap.String("matchId", matchID), zap.Error(err))
			if stopErr := e.lifecycle.Stop(ctx, matchID, CauseError); stopErr != nil {
				e.logger.Error("stopping failed match",
					zap.String("matchId", matchID), zap.Error(stopErr))
			}
			// Viewers of a dead match are disconnected through the usual
			// removal path, so its registry entry cannot outlive the match
			// and no socket is left open.
			for _, client := range e.registry.Clients(matchID) {
				e.registry.Remove(ctx, matchID, client)
			}
		}
	}
	e.metrics.Ticks.Inc()
}

func (e *Engine) step(ctx context.Context, matchID string) error {
	ball, err := e.store.Ball(ctx, matchID)
	if err != nil {
		return err
	}
	paddles, err := e.store.Paddles(ctx, matchID)
	if err != nil {
		return err
	}

	ball, scoredBy := Advance(ball, paddles)
	if scoredBy != "" {
		if _, err := e.store.IncrScore(ctx, matchID, scoredBy); err != nil {
			return err
		}
		e.metrics.PointsScored.WithLabelValues(scoredBy).Inc()
	}
	if err := e.store.SetBall(ctx, matchID, ball); err != nil {
		return err
	}
	score, err := e.store.Score(ctx, matchID)
	if err != nil {
		return err
	}

	snapshot := models.Snapshot{
		Event:   "gameState",
		MatchID: matchID,
		Payload: models.SnapshotPayload{
			Ball:    ball,
			Paddles: paddles,
			Score:   score,
		},
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot for match %s: %w", matchID, err)
	}

	for _, client := range e.registry.Clients(matchID) {
		if err := client.Send(data); err != nil {
			// A dead socket is an implicit disconnect, handled exactly like
			// an explicit one.
			e.logger.Warn("dropping stale viewer",
				zap.String("matchId", matchID),
				zap.String("client", client.Identify()),
				zap.Error(err))
			e.registry.Remove(ctx, matchID, client)
			continue
		}
		e.metrics.SnapshotsSent.Inc()
	}
	return nil
}

// MovePaddle applies one step of player input, clamped to field bounds. It is
// applied out-of-band from the tick; the store's per-key serialization is the
// only ordering guarantee between input and simulation.
func (e *Engine) MovePaddle(ctx context.Context, matchID, slot, direction string) error {
	if slot != models.SlotPlayer1 && slot != models.SlotPlayer2 {
		return fmt.Errorf("unknown paddle slot %q", slot)
	}
	if direction != models.DirectionUp && direction != models.DirectionDown {
		return fmt.Errorf("unknown paddle direction %q", direction)
	}
	paddle, err := e.store.Paddle(ctx, matchID, slot)
	if err != nil {
		return err
	}
	return e.store.SetPaddle(ctx, matchID, slot, StepPaddle(paddle, direction))
}
