package store

import (
	"context"
	"fmt"
	"time"
)

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	TotalLinks       int64           `json:"total_links"`
	TotalClicks      int64           `json:"total_clicks"`
	TotalMessages    int64           `json:"total_messages"`
	FailedMessages   int64           `json:"failed_messages"`
	TopLinks         []LinkStat      `json:"top_links"`
	RecentVisitors   []Visitor       `json:"recent_visitors"`
	RecentMessages   []MessageRecord `json:"recent_messages"`
}

// Stats computes the dashboard summary as of now. "Today" starts at midnight
// UTC.
func (s *Store) Stats(ctx context.Context) (*AdminStats, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &AdminStats{}
	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE ts >= ?`, []any{midnight.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE ts >= ?`, []any{weekAgo.Unix()}},
		{&stats.TotalLinks, `SELECT COUNT(*) FROM links`, nil},
		{&stats.TotalClicks, `SELECT COALESCE(SUM(clicks), 0) FROM links`, nil},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, nil},
		{&stats.FailedMessages, `SELECT COUNT(*) FROM messages WHERE status = 'error'`, nil},
	}
	for _, q := range counts {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	var err error
	if stats.TopLinks, err = s.Links(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentMessages, err = s.Messages(ctx, 10); err != nil {
		return nil, err
	}
	return stats, nil
}
