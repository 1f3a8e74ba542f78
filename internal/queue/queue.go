package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey   = "matchmaking:queue"
	membersKey = "matchmaking:members"
)

// Queue is the FIFO of waiting players. The ordered list carries arrival
// order; the membership set is the atomic at-most-once guard. The two must
// always agree: every mutation touches both or restores both.
type Queue struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue adds the player unless already queued. It reports whether the
// player was newly added; a duplicate call is a no-op.
func (q *Queue) Enqueue(ctx context.Context, playerID string) (bool, error) {
	added, err := q.rdb.SAdd(ctx, membersKey, playerID).Result()
	if err != nil {
		return false, fmt.Errorf("enqueue %s: add member: %w", playerID, err)
	}
	if added == 0 {
		return false, nil
	}
	if err := q.rdb.RPush(ctx, queueKey, playerID).Err(); err != nil {
		// Keep set and list in agreement before surfacing the failure.
		q.rdb.SRem(ctx, membersKey, playerID)
		return false, fmt.Errorf("enqueue %s: push entry: %w", playerID, err)
	}
	return true, nil
}

// Remove takes the player out of both structures; absent players are a no-op.
func (q *Queue) Remove(ctx context.Context, playerID string) error {
	if err := q.rdb.SRem(ctx, membersKey, playerID).Err(); err != nil {
		return fmt.Errorf("remove %s: drop member: %w", playerID, err)
	}
	if err := q.rdb.LRem(ctx, queueKey, 0, playerID).Err(); err != nil {
		return fmt.Errorf("remove %s: drop entry: %w", playerID, err)
	}
	return nil
}

// PopPair removes and returns the two oldest waiting players in enqueue
// order. It reports ok=false when fewer than two players are queued. The pop
// is all-or-nothing: any failure after the first removal restores the popped
// entries to the front of the queue so no player is lost.
func (q *Queue) PopPair(ctx context.Context) (string, string, bool, error) {
	first, err := q.rdb.LPop(ctx, queueKey).Result()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("pop pair: %w", err)
	}

	second, err := q.rdb.LPop(ctx, queueKey).Result()
	if err == redis.Nil {
		q.rdb.LPush(ctx, queueKey, first)
		return "", "", false, nil
	}
	if err != nil {
		q.rdb.LPush(ctx, queueKey, first)
		return "", "", false, fmt.Errorf("pop pair: %w", err)
	}

	if err := q.rdb.SRem(ctx, membersKey, first, second).Err(); err != nil {
		// Front order restored: first back last so it pops first again.
		q.rdb.LPush(ctx, queueKey, second)
		q.rdb.LPush(ctx, queueKey, first)
		return "", "", false, fmt.Errorf("pop pair: drop members: %w", err)
	}
	return first, second, true, nil
}

// Waiting reports how many players are queued.
func (q *Queue) Waiting(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}

// Members returns current membership, used by tests to check that the list
// and set never disagree.
func (q *Queue) Members(ctx context.Context) ([]string, error) {
	members, err := q.rdb.SMembers(ctx, membersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("queue members: %w", err)
	}
	return members, nil
}

// Entries returns the ordered queue contents, oldest first.
func (q *Queue) Entries(ctx context.Context) ([]string, error) {
	entries, err := q.rdb.LRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("queue entries: %w", err)
	}
	return entries, nil
}
