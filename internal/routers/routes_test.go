package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arena/internal/game"
	"arena/internal/metrics"
	"arena/internal/models"
	"arena/internal/pairing"
	"arena/internal/queue"
	"arena/internal/store"
)

type testServer struct {
	router   *chi.Mux
	engine   *game.Engine
	registry *game.Registry
	store    *store.Store
	queue    *queue.Queue
}

func setupTestServer(t *testing.T) *testServer {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	st := store.New(rdb)
	q := queue.New(rdb)
	lifecycle := game.NewLifecycle(st, logger, m)
	registry := game.NewRegistry(lifecycle, logger, m)
	engine := game.NewEngine(st, registry, lifecycle, logger, m)
	pairingSvc := pairing.NewService(q, st, logger, m, []byte("test-secret"))
	socketHandler := game.NewSocketHandler(engine, registry, logger)

	r := chi.NewRouter()
	MatchRoutes(r, pairingSvc, socketHandler)

	return &testServer{router: r, engine: engine, registry: registry, store: st, queue: q}
}

func TestJoinRoute(t *testing.T) {
	ts := setupTestServer(t)

	body, _ := json.Marshal(models.JoinReq{PlayerID: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/join", bytes.NewReader(body))
	w := httptest.NewRecorder()

	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	waiting, err := ts.queue.Waiting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), waiting)
}

func TestCancelRoute(t *testing.T) {
	ts := setupTestServer(t)

	ts.queue.Enqueue(context.Background(), "alice")

	body, _ := json.Marshal(models.JoinReq{PlayerID: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/match/cancel", bytes.NewReader(body))
	w := httptest.NewRecorder()

	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	waiting, err := ts.queue.Waiting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), waiting)
}

func TestCheckRoute(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/match/check?playerId=alice", nil)
	w := httptest.NewRecorder()

	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CheckResp
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Matched)
}

func TestCountersRoute(t *testing.T) {
	ts := setupTestServer(t)

	ts.queue.Enqueue(context.Background(), "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/match/counters", nil)
	w := httptest.NewRecorder()

	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CountersResp
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Waiting)
}

func TestViewerSocket(t *testing.T) {
	ts := setupTestServer(t)

	server := httptest.NewServer(ts.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/match/ws/m1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The handler registers the viewer right after the upgrade; wait for the
	// match to appear before ticking.
	require.Eventually(t, func() bool {
		return len(ts.registry.Matches()) == 1
	}, time.Second, 10*time.Millisecond)

	status, err := ts.store.Status(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, status)

	// One manual tick delivers one snapshot.
	ts.engine.Tick(context.Background())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var snapshot models.Snapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "gameState", snapshot.Event)
	assert.Equal(t, "m1", snapshot.MatchID)

	// Inbound paddle commands reach the store.
	before, err := ts.store.Paddle(context.Background(), "m1", models.SlotPlayer1)
	require.NoError(t, err)

	cmd := models.PaddleCommand{Slot: models.SlotPlayer1, Direction: models.DirectionUp}
	require.NoError(t, conn.WriteJSON(cmd))

	require.Eventually(t, func() bool {
		after, err := ts.store.Paddle(context.Background(), "m1", models.SlotPlayer1)
		return err == nil && after.Y == before.Y-models.PaddleStep
	}, time.Second, 10*time.Millisecond)

	// Closing the last viewer tears the match down.
	conn.Close()
	require.Eventually(t, func() bool {
		return len(ts.registry.Matches()) == 0
	}, time.Second, 10*time.Millisecond)

	_, err = ts.store.Ball(context.Background(), "m1")
	assert.Error(t, err)
}
