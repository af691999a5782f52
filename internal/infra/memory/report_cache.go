package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/domain"
)

// ReportCache caches per-respondent reports in process with a TTL, so serve
// mode does not rebuild a report for every request. Concurrent misses for
// the same respondent collapse into a single computation.
type ReportCache struct {
	next  app.ReportProvider
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedReport
}

type cachedReport struct {
	report    domain.RespondentReport
	expiresAt time.Time
}

func NewReportCache(next app.ReportProvider, ttl time.Duration) *ReportCache {
	return &ReportCache{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedReport),
	}
}

func (c *ReportCache) GetReport(ctx context.Context, respondentID string) (domain.RespondentReport, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[respondentID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.report, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(respondentID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[respondentID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.report, nil
		}
		c.mu.RUnlock()

		report, err := c.next.GetReport(ctx, respondentID)
		if err != nil {
			return domain.RespondentReport{}, err
		}

		c.mu.Lock()
		c.cache[respondentID] = cachedReport{
			report:    report,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return domain.RespondentReport{}, err
	}
	return result.(domain.RespondentReport), nil
}

func (c *ReportCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
