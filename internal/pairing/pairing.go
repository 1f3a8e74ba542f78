package pairing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"arena/internal/metrics"
	"arena/internal/models"
	"arena/internal/queue"
	"arena/internal/store"
	"arena/internal/utils"
)

const (
	popInterval = 500 * time.Millisecond
	pairingTTL  = 5 * time.Minute
)

// Service pops waiting pairs off the matchmaking queue, allocates a match for
// each pair and hands out per-player tokens. Paired players discover their
// match by polling the check endpoint.
type Service struct {
	queue   *queue.Queue
	store   *store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	secret  []byte

	mu       sync.RWMutex
	pairings map[string]pairingRecord
}

// pairingRecord carries the creation time alongside the pairing so stale
// records can be reaped once the match is long over.
type pairingRecord struct {
	models.Pairing
	createdAt time.Time
}

func NewService(q *queue.Queue, st *store.Store, logger *zap.Logger, m *metrics.Metrics, secret []byte) *Service {
	return &Service{
		queue:    q,
		store:    st,
		logger:   logger,
		metrics:  m,
		secret:   secret,
		pairings: make(map[string]pairingRecord),
	}
}

// RunLoop drains the queue on a fixed cadence until ctx is cancelled. Each
// cycle also reaps pairing records past their TTL, so the map stays bounded
// and a player's check poll cannot report a long-finished match.
func (s *Service) RunLoop(ctx context.Context) {
	ticker := time.NewTicker(popInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx)
			s.expire(time.Now())
		}
	}
}

// drain pops pairs while they are available. A store error aborts the cycle;
// PopPair's all-or-nothing contract means no player was lost and the next
// cycle retries.
func (s *Service) drain(ctx context.Context) {
	for {
		player1, player2, ok, err := s.queue.PopPair(ctx)
		if err != nil {
			s.logger.Error("popping pair", zap.Error(err))
			return
		}
		if !ok {
			return
		}
		if err := s.createMatch(ctx, player1, player2); err != nil {
			s.logger.Error("creating match",
				zap.String("player1", player1),
				zap.String("player2", player2),
				zap.Error(err))
			return
		}
	}
}

func (s *Service) createMatch(ctx context.Context, player1, player2 string) error {
	matchID := NewMatchID()
	if err := s.store.SetPlayers(ctx, matchID, player1, player2); err != nil {
		return err
	}

	token1, err := utils.GenerateMatchToken(matchID, player1, s.secret)
	if err != nil {
		return fmt.Errorf("sign token for %s: %w", player1, err)
	}
	token2, err := utils.GenerateMatchToken(matchID, player2, s.secret)
	if err != nil {
		return fmt.Errorf("sign token for %s: %w", player2, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.pairings[player1] = pairingRecord{
		Pairing:   models.Pairing{MatchID: matchID, Slot: models.SlotPlayer1, Token: token1},
		createdAt: now,
	}
	s.pairings[player2] = pairingRecord{
		Pairing:   models.Pairing{MatchID: matchID, Slot: models.SlotPlayer2, Token: token2},
		createdAt: now,
	}
	s.mu.Unlock()

	s.metrics.PairsCreated.Inc()
	s.logger.Info("players paired",
		zap.String("matchId", matchID),
		zap.String("player1", player1),
		zap.String("player2", player2))
	return nil
}

// Lookup returns the pairing for a player, if one exists.
func (s *Service) Lookup(playerID string) (models.Pairing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.pairings[playerID]
	return record.Pairing, ok
}

// Forget drops a player's pairing record. Joining the queue again abandons
// any previous pairing; the TTL reaper covers players who never come back.
func (s *Service) Forget(playerID string) {
	s.mu.Lock()
	delete(s.pairings, playerID)
	s.mu.Unlock()
}

// expire reaps pairing records older than pairingTTL.
func (s *Service) expire(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for playerID, record := range s.pairings {
		if now.Sub(record.createdAt) > pairingTTL {
			delete(s.pairings, playerID)
		}
	}
}

// NewMatchID returns an opaque, lexicographically sortable match identifier:
// a zero-padded millisecond timestamp followed by a random uuid.
func NewMatchID() string {
	return fmt.Sprintf("%013d-%s", time.Now().UnixMilli(), uuid.New().String())
}
