package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/sommelier/core"
)

func sampleRecord(index int, fb core.Feedback) core.HistoryRecord {
	return core.HistoryRecord{
		Feedback:      fb,
		ClusterScores: []float64{0, 1, 0},
		Confidence:    1,
		Score:         90,
		Price:         25,
		Index:         index,
	}
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()

	got, err := h.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, h.Append(ctx, "u1", sampleRecord(3, core.FeedbackAccept)))
	require.NoError(t, h.Append(ctx, "u1", sampleRecord(5, core.FeedbackReject)))

	got, err = h.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Index)
	assert.Equal(t, core.FeedbackReject, got[1].Feedback)

	// 返回的是副本
	got[0].Index = 99
	again, _ := h.History(ctx, "u1")
	assert.Equal(t, 3, again[0].Index)
}

func TestFileHistory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h, err := NewFileHistory(t.TempDir())
	require.NoError(t, err)

	malformed := sampleRecord(7, core.FeedbackAccept)
	malformed.Score = math.Inf(-1)
	malformed.Price = math.Inf(1)

	require.NoError(t, h.Append(ctx, "alice", sampleRecord(1, core.FeedbackAccept)))
	require.NoError(t, h.Append(ctx, "alice", malformed))

	got, err := h.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sampleRecord(1, core.FeedbackAccept), got[0])
	assert.True(t, math.IsInf(got[1].Score, -1))
	assert.True(t, math.IsInf(got[1].Price, 1))

	empty, err := h.History(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = h.History(ctx, "../etc")
	assert.True(t, core.IsInvalidInput(err))
}

func TestReadHistory_Array(t *testing.T) {
	in := `[
	  {"user_feedback": 1, "cluster_scores": [0.2, 0.8], "confidence": 0.8, "score": 91, "price": 30, "true_index": 4},
	  {"user_feedback": -1, "cluster_scores": [0.9, 0.1], "confidence": 0.9, "score": 85, "price": 12, "true_index": 2}
	]`
	got, err := ReadHistory(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].DominantCluster())
	assert.Equal(t, core.FeedbackReject, got[1].Feedback)
}

func TestReadHistory_Errors(t *testing.T) {
	_, err := ReadHistory(strings.NewReader(`{"user_feedback": 0, "cluster_scores": [1]}`))
	assert.True(t, core.IsInvalidInput(err))

	_, err = ReadHistory(strings.NewReader("{not json}\n"))
	assert.True(t, core.IsInvalidInput(err))

	got, err := ReadHistory(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

const catalogJSON = `[
  {"price": "$15", "score": "88", "features": {"dim": 3, "indices": [2, 0], "values": [0.5, 1]}},
  {"price:": "$40/750ml", "score": "93", "features": {"dim": 3, "indices": [1], "values": [1]}},
  {"price": "Unknown", "score": "NR", "features": {"dim": 3, "indices": [], "values": []}},
  {"price": 22, "score": 90, "vector": [0, 0, 1]}
]`

func TestLoadCatalogJSON(t *testing.T) {
	wines, err := LoadCatalogJSON(strings.NewReader(catalogJSON), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, wines, 4)

	assert.Equal(t, 15.0, wines[0].Price)
	assert.Equal(t, 88.0, wines[0].Score)
	assert.Equal(t, []int{0, 2}, wines[0].Features.Indices)
	assert.Equal(t, []float64{1, 0.5}, wines[0].Features.Values)

	assert.Equal(t, 40.0, wines[1].Price)
	assert.Equal(t, 1, wines[1].Index)

	assert.True(t, wines[2].MalformedPrice())
	assert.True(t, wines[2].MalformedScore())

	assert.Equal(t, 22.0, wines[3].Price)
	assert.Equal(t, 3, wines[3].Features.Dim)
}

func TestLoadCatalogJSON_Errors(t *testing.T) {
	_, err := LoadCatalogJSON(strings.NewReader(`[
	  {"price": "$1", "score": "1", "features": {"dim": 3, "indices": [0], "values": [1]}},
	  {"price": "$1", "score": "1", "features": {"dim": 4, "indices": [0], "values": [1]}}
	]`), zerolog.Nop())
	assert.True(t, core.IsInvalidInput(err))

	_, err = LoadCatalogJSON(strings.NewReader(`[{"price": "$1", "score": "1"}]`), zerolog.Nop())
	assert.True(t, core.IsInvalidInput(err))

	_, err = LoadCatalogJSON(strings.NewReader(`[{"price": "$1", "score": "1", "features": {"dim": 2, "indices": [5], "values": [1]}}]`), zerolog.Nop())
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	c, err := LoadCatalogFile(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 4, c.Size())

	w, err := c.Item(1)
	require.NoError(t, err)
	assert.Equal(t, 40.0, w.Price)

	_, err = c.Item(4)
	assert.True(t, core.IsNotFound(err))
}

func TestSQLiteCatalog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	wines, err := LoadCatalogJSON(strings.NewReader(catalogJSON), zerolog.Nop())
	require.NoError(t, err)

	dsn := filepath.Join(t.TempDir(), "catalog.db")
	db, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, SaveSQLiteCatalog(ctx, db, wines))
	require.NoError(t, db.Close())

	c, err := NewSQLiteCatalog(ctx, dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.Equal(t, len(wines), c.Size())
	for i := range wines {
		got, err := c.Item(i)
		require.NoError(t, err)
		assert.Equal(t, wines[i].Features, got.Features, "wine %d", i)
		assert.Equal(t, wines[i].Price, got.Price, "wine %d", i)
		assert.Equal(t, wines[i].Score, got.Score, "wine %d", i)
	}
}

func TestRedisHistory(t *testing.T) {
	addr := os.Getenv("SOMMELIER_TEST_REDIS")
	if addr == "" {
		t.Skip("SOMMELIER_TEST_REDIS not set")
	}
	ctx := context.Background()
	h, err := NewRedisHistory(ctx, RedisConfig{Addr: addr, KeyPrefix: "sommelier:test"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	require.NoError(t, h.Clear(ctx, "u1"))

	require.NoError(t, h.Append(ctx, "u1", sampleRecord(1, core.FeedbackAccept)))
	require.NoError(t, h.Append(ctx, "u1", sampleRecord(2, core.FeedbackReject)))

	got, err := h.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Index)
	require.NoError(t, h.Clear(ctx, "u1"))
}

func TestBreakerSuccessful(t *testing.T) {
	assert.True(t, breakerSuccessful(nil))
	assert.True(t, breakerSuccessful(context.Canceled))
	assert.True(t, breakerSuccessful(fmt.Errorf("lrange: %w", context.DeadlineExceeded)))
	assert.False(t, breakerSuccessful(errors.New("connection refused")))
}

func TestRedisHistory_CanceledCallsDoNotTripBreaker(t *testing.T) {
	// 不可达地址：已取消的 ctx 在拨号前就返回
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	cfg := RedisConfig{Breaker: BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2}}
	h := NewRedisHistoryWithClient(client, cfg, zerolog.Nop())
	t.Cleanup(func() { h.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := h.History(ctx, "u1")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, h.breaker.State())
}
