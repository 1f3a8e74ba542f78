package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"arena/internal/models"
)

const historyKey = "match:history"

// Store holds the authoritative per-match state in Redis. Ball and paddles
// live on separate sub-keys so the simulation tick and paddle-input handlers
// never contend on the same value; Redis serializes each key on its own.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func ballKey(matchID string) string { return "match:" + matchID + ":ball" }

func paddleKey(matchID, slot string) string { return "match:" + matchID + ":paddle:" + slot }

func statusKey(matchID string) string { return "match:" + matchID + ":status" }

func playersKey(matchID string) string { return "match:" + matchID + ":players" }

func scoreKey(matchID string) string { return "match:" + matchID + ":score" }

func (s *Store) SetBall(ctx context.Context, matchID string, ball models.Ball) error {
	data, err := json.Marshal(ball)
	if err != nil {
		return fmt.Errorf("marshal ball: %w", err)
	}
	if err := s.rdb.Set(ctx, ballKey(matchID), data, 0).Err(); err != nil {
		return fmt.Errorf("set ball for match %s: %w", matchID, err)
	}
	return nil
}

func (s *Store) Ball(ctx context.Context, matchID string) (models.Ball, error) {
	var ball models.Ball
	data, err := s.rdb.Get(ctx, ballKey(matchID)).Bytes()
	if err != nil {
		return ball, fmt.Errorf("get ball for match %s: %w", matchID, err)
	}
	if err := json.Unmarshal(data, &ball); err != nil {
		return ball, fmt.Errorf("unmarshal ball for match %s: %w", matchID, err)
	}
	return ball, nil
}

func (s *Store) SetPaddle(ctx context.Context, matchID, slot string, paddle models.Paddle) error {
	data, err := json.Marshal(paddle)
	if err != nil {
		return fmt.Errorf("marshal paddle: %w", err)
	}
	if err := s.rdb.Set(ctx, paddleKey(matchID, slot), data, 0).Err(); err != nil {
		return fmt.Errorf("set paddle %s for match %s: %w", slot, matchID, err)
	}
	return nil
}

func (s *Store) Paddle(ctx context.Context, matchID, slot string) (models.Paddle, error) {
	var paddle models.Paddle
	data, err := s.rdb.Get(ctx, paddleKey(matchID, slot)).Bytes()
	if err != nil {
		return paddle, fmt.Errorf("get paddle %s for match %s: %w", slot, matchID, err)
	}
	if err := json.Unmarshal(data, &paddle); err != nil {
		return paddle, fmt.Errorf("unmarshal paddle %s for match %s: %w", slot, matchID, err)
	}
	return paddle, nil
}

// Paddles reads both paddles for a match.
func (s *Store) Paddles(ctx context.Context, matchID string) (map[string]models.Paddle, error) {
	paddles := make(map[string]models.Paddle, 2)
	for _, slot := range []string{models.SlotPlayer1, models.SlotPlayer2} {
		paddle, err := s.Paddle(ctx, matchID, slot)
		if err != nil {
			return nil, err
		}
		paddles[slot] = paddle
	}
	return paddles, nil
}

// ClaimStart atomically marks the match as running. It reports false when the
// match was already claimed, which makes concurrent first-viewer starts a
// no-op for the loser.
func (s *Store) ClaimStart(ctx context.Context, matchID string) (bool, error) {
	claimed, err := s.rdb.SetNX(ctx, statusKey(matchID), models.StatusRunning, 0).Result()
	if err != nil {
		return false, fmt.Errorf("claim start for match %s: %w", matchID, err)
	}
	return claimed, nil
}

// ClearStatus removes the running marker and reports whether this call was the
// one that removed it. A false result means the match had already ended.
func (s *Store) ClearStatus(ctx context.Context, matchID string) (bool, error) {
	removed, err := s.rdb.Del(ctx, statusKey(matchID)).Result()
	if err != nil {
		return false, fmt.Errorf("clear status for match %s: %w", matchID, err)
	}
	return removed > 0, nil
}

// Status returns the match status, or StatusEnded when no state exists.
func (s *Store) Status(ctx context.Context, matchID string) (string, error) {
	status, err := s.rdb.Get(ctx, statusKey(matchID)).Result()
	if err == redis.Nil {
		return models.StatusEnded, nil
	}
	if err != nil {
		return "", fmt.Errorf("get status for match %s: %w", matchID, err)
	}
	return status, nil
}

func (s *Store) SetPlayers(ctx context.Context, matchID, player1, player2 string) error {
	err := s.rdb.HSet(ctx, playersKey(matchID), map[string]interface{}{
		models.SlotPlayer1: player1,
		models.SlotPlayer2: player2,
	}).Err()
	if err != nil {
		return fmt.Errorf("set players for match %s: %w", matchID, err)
	}
	return nil
}

func (s *Store) Players(ctx context.Context, matchID string) (string, string, error) {
	players, err := s.rdb.HGetAll(ctx, playersKey(matchID)).Result()
	if err != nil {
		return "", "", fmt.Errorf("get players for match %s: %w", matchID, err)
	}
	return players[models.SlotPlayer1], players[models.SlotPlayer2], nil
}

func (s *Store) ResetScore(ctx context.Context, matchID string) error {
	err := s.rdb.HSet(ctx, scoreKey(matchID), map[string]interface{}{
		models.SlotPlayer1: 0,
		models.SlotPlayer2: 0,
	}).Err()
	if err != nil {
		return fmt.Errorf("reset score for match %s: %w", matchID, err)
	}
	return nil
}

func (s *Store) IncrScore(ctx context.Context, matchID, slot string) (int64, error) {
	total, err := s.rdb.HIncrBy(ctx, scoreKey(matchID), slot, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment score %s for match %s: %w", slot, matchID, err)
	}
	return total, nil
}

func (s *Store) Score(ctx context.Context, matchID string) (models.Score, error) {
	var score models.Score
	fields, err := s.rdb.HGetAll(ctx, scoreKey(matchID)).Result()
	if err != nil {
		return score, fmt.Errorf("get score for match %s: %w", matchID, err)
	}
	score.Player1, _ = strconv.Atoi(fields[models.SlotPlayer1])
	score.Player2, _ = strconv.Atoi(fields[models.SlotPlayer2])
	return score, nil
}

// DeleteMatch removes every per-match key except the status marker, which the
// lifecycle controller clears separately as its idempotence guard.
func (s *Store) DeleteMatch(ctx context.Context, matchID string) error {
	keys := []string{
		ballKey(matchID),
		paddleKey(matchID, models.SlotPlayer1),
		paddleKey(matchID, models.SlotPlayer2),
		playersKey(matchID),
		scoreKey(matchID),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete state for match %s: %w", matchID, err)
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, record models.HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	if err := s.rdb.RPush(ctx, historyKey, data).Err(); err != nil {
		return fmt.Errorf("append history for match %s: %w", record.MatchID, err)
	}
	return nil
}

// History returns the most recent match records, newest last.
func (s *Store) History(ctx context.Context, limit int64) ([]models.HistoryRecord, error) {
	raw, err := s.rdb.LRange(ctx, historyKey, -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read match history: %w", err)
	}
	records := make([]models.HistoryRecord, 0, len(raw))
	for _, item := range raw {
		var record models.HistoryRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("unmarshal history record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
