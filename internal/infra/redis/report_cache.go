package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/domain"
)

// ReportCache serves per-respondent reports out of Redis so repeated lookups
// in serve mode skip recomputation. Misses fall through to the wrapped
// provider; zero-valued reports for unknown respondents are never cached.
type ReportCache struct {
	client *redis.Client
	next   app.ReportProvider
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, next app.ReportProvider, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, next: next, ttl: ttl}
}

func (c *ReportCache) GetReport(ctx context.Context, respondentID string) (domain.RespondentReport, error) {
	key := c.key(respondentID)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var report domain.RespondentReport
		if err := json.Unmarshal(raw, &report); err == nil {
			return report, nil
		}
		// Unreadable cache entry, fall through and overwrite it.
	}

	report, err := c.next.GetReport(ctx, respondentID)
	if err != nil {
		return report, err
	}

	if raw, err := json.Marshal(report); err == nil {
		// best-effort: a cache write failure must not fail the lookup
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return report, nil
}

func (c *ReportCache) key(respondentID string) string {
	return "report:" + respondentID
}
