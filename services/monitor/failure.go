package monitor

import "time"

// FailureClass buckets portal failures so transient network trouble
// is never counted against credential problems and vice versa.
type FailureClass string

const (
	FailurePortalAuth      FailureClass = "portal-auth"
	FailurePortalTransport FailureClass = "portal-transport"
	FailureNotification    FailureClass = "notification"
)

// FailureCounter tracks a consecutive-failure streak for one class.
// Crossing the limit resets the streak and signals that the single
// degraded-service alert should go out, so repeated failures do not
// turn into an alert storm.
type FailureCounter struct {
	limit         int
	count         int
	lastFailureAt time.Time
}

func NewFailureCounter(limit int) *FailureCounter {
	return &FailureCounter{limit: limit}
}

// Record notes one failure and reports whether the degraded-service
// alert is due. When it is, the streak restarts from zero.
func (c *FailureCounter) Record(now time.Time) (shouldAlert bool) {
	c.count++
	c.lastFailureAt = now
	if c.count >= c.limit {
		c.count = 0
		return true
	}
	return false
}

// Reset clears the streak on the first success that follows it.
func (c *FailureCounter) Reset() {
	c.count = 0
}

func (c *FailureCounter) Count() int {
	return c.count
}

func (c *FailureCounter) LastFailureAt() time.Time {
	return c.lastFailureAt
}
