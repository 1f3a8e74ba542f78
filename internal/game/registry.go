package game

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"arena/internal/metrics"
)

// Client is the capability a viewer connection must provide, implemented per
// transport. The registry and engine never see a concrete socket type.
type Client interface {
	Send(msg []byte) error
	Identify() string
	Close() error
}

// Registry tracks live viewer connections per match and couples viewer
// presence to match lifetime: the first viewer starts the match, the last one
// out stops it. Connect/disconnect events and the tick's implicit-disconnect
// detection both funnel through Remove, so teardown fires exactly once no
// matter which path notices the connection is gone.
type Registry struct {
	mu        sync.Mutex
	clients   map[string]map[Client]struct{}
	lifecycle *Lifecycle
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewRegistry(lifecycle *Lifecycle, logger *zap.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		clients:   make(map[string]map[Client]struct{}),
		lifecycle: lifecycle,
		logger:    logger,
		metrics:   m,
	}
}

// Add registers a viewer. The first viewer for a match triggers Start before
// registration; if Start fails the viewer is not registered and the error is
// returned so the transport can close the connection.
func (r *Registry) Add(ctx context.Context, matchID string, client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.clients[matchID]
	if !ok {
		if err := r.lifecycle.Start(ctx, matchID); err != nil {
			return err
		}
		set = make(map[Client]struct{})
		r.clients[matchID] = set
	}
	set[client] = struct{}{}
	r.metrics.ViewersActive.Inc()
	r.logger.Info("viewer joined",
		zap.String("matchId", matchID),
		zap.String("client", client.Identify()),
		zap.Int("viewers", len(set)))
	return nil
}

// Remove drops a viewer and closes its connection. When the last viewer
// leaves, the match's registry entry is discarded and the match is stopped
// with a normal-completion cause. Unknown clients are a no-op.
func (r *Registry) Remove(ctx context.Context, matchID string, client Client) {
	r.mu.Lock()
	set, ok := r.clients[matchID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, present := set[client]; !present {
		r.mu.Unlock()
		return
	}
	delete(set, client)
	last := len(set) == 0
	if last {
		delete(r.clients, matchID)
	}
	r.mu.Unlock()

	client.Close()
	r.metrics.ViewersActive.Dec()
	r.logger.Info("viewer left",
		zap.String("matchId", matchID),
		zap.String("client", client.Identify()))

	if last {
		if err := r.lifecycle.Stop(ctx, matchID, CauseCompleted); err != nil {
			r.logger.Error("stopping match after last viewer left",
				zap.String("matchId", matchID), zap.Error(err))
		}
	}
}

// Matches returns the identifiers of every match with at least one viewer.
func (r *Registry) Matches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Clients returns a snapshot of a match's viewers, safe to iterate while
// connects and disconnects proceed concurrently.
func (r *Registry) Clients(matchID string) []Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.clients[matchID]
	clients := make([]Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	return clients
}
