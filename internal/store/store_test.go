package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func openTest(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), "salt", WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestHashIP(t *testing.T) {
	s, _ := openTest(t)
	h := s.HashIP("203.0.113.7")
	assert.Len(t, h, 16)
	assert.Equal(t, h, s.HashIP("203.0.113.7"))
	assert.NotEqual(t, h, s.HashIP("203.0.113.8"))
	assert.NotContains(t, h, "203")
}

func TestVisitors(t *testing.T) {
	ctx := context.Background()
	s, clock := openTest(t)

	require.NoError(t, s.RecordVisit(ctx, "10.0.0.1", "curl", "/"))
	clock.Add(time.Minute)
	require.NoError(t, s.RecordVisit(ctx, "10.0.0.2", "firefox", "/sections/about"))

	vs, err := s.RecentVisitors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "/sections/about", vs[0].Path)
	assert.Equal(t, s.HashIP("10.0.0.2"), vs[0].HashedIP)
	assert.Equal(t, clock.Now(), vs[0].Timestamp)

	clock.Add(48 * time.Hour)
	n, err := s.CleanupVisitors(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	vs, err = s.RecentVisitors(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestLinks(t *testing.T) {
	ctx := context.Background()
	s, _ := openTest(t)

	require.NoError(t, s.UpsertLink(ctx, "proj/code", "https://example.com/a", "Code"))
	require.NoError(t, s.UpsertLink(ctx, "resume", "/resume", "Resume"))

	for i := 0; i < 3; i++ {
		url, err := s.Follow(ctx, "proj/code")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", url)
	}

	// Re-registering keeps the click count.
	require.NoError(t, s.UpsertLink(ctx, "proj/code", "https://example.com/b", "Code"))

	links, err := s.Links(ctx, 10)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "proj/code", links[0].Key)
	assert.Equal(t, "https://example.com/b", links[0].URL)
	assert.Equal(t, int64(3), links[0].Clicks)

	_, err = s.Follow(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteLink(ctx, "resume"))
	assert.ErrorIs(t, s.DeleteLink(ctx, "resume"), ErrNotFound)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	s, clock := openTest(t)

	require.NoError(t, s.InsertMessage(ctx, MessageRecord{
		ID: "m1", Name: "Ada", Email: "ada@example.com", Body: "hello", Status: "sending",
	}))
	clock.Add(time.Second)
	require.NoError(t, s.SetMessageStatus(ctx, "m1", "error", "smtp down"))
	assert.ErrorIs(t, s.SetMessageStatus(ctx, "nope", "success", ""), ErrNotFound)

	ms, err := s.Messages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "error", ms[0].Status)
	assert.Equal(t, "smtp down", ms[0].Error)
	assert.True(t, ms[0].UpdatedAt.After(ms[0].CreatedAt))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, clock := openTest(t)

	require.NoError(t, s.RecordVisit(ctx, "10.0.0.1", "ua", "/"))
	clock.Add(-3 * 24 * time.Hour)
	require.NoError(t, s.RecordVisit(ctx, "10.0.0.1", "ua", "/"))
	clock.Add(-10 * 24 * time.Hour)
	require.NoError(t, s.RecordVisit(ctx, "10.0.0.2", "ua", "/"))
	clock.Add(13 * 24 * time.Hour)

	require.NoError(t, s.UpsertLink(ctx, "a", "https://a.example", "A"))
	_, err := s.Follow(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.InsertMessage(ctx, MessageRecord{ID: "x", Name: "n", Email: "e@example.com", Body: "b", Status: "error"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalVisitors)
	assert.Equal(t, int64(2), stats.UniqueVisitors)
	assert.Equal(t, int64(1), stats.VisitorsToday)
	assert.Equal(t, int64(2), stats.VisitorsThisWeek)
	assert.Equal(t, int64(1), stats.TotalLinks)
	assert.Equal(t, int64(1), stats.TotalClicks)
	assert.Equal(t, int64(1), stats.FailedMessages)
	assert.Len(t, stats.TopLinks, 1)
	assert.Len(t, stats.RecentMessages, 1)
}
