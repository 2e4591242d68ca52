package monitor

import (
	"testing"

	"portalwatch/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestFailureCounterAlertsAtLimit(t *testing.T) {
	counter := NewFailureCounter(3)

	require.False(t, counter.Record(timezone.Now()))
	require.False(t, counter.Record(timezone.Now()))
	require.Equal(t, 2, counter.Count())

	// the limit-th consecutive failure fires exactly one alert and
	// restarts the count
	require.True(t, counter.Record(timezone.Now()))
	require.Equal(t, 0, counter.Count())

	// the streak after an alert needs the full limit again
	require.False(t, counter.Record(timezone.Now()))
	require.False(t, counter.Record(timezone.Now()))
	require.True(t, counter.Record(timezone.Now()))
}

func TestFailureCounterReset(t *testing.T) {
	counter := NewFailureCounter(3)

	counter.Record(timezone.Now())
	counter.Record(timezone.Now())
	counter.Reset()

	require.Equal(t, 0, counter.Count())
	require.False(t, counter.Record(timezone.Now()))
	require.False(t, counter.Record(timezone.Now()))
	require.True(t, counter.Record(timezone.Now()))
}

func TestFailureCounterRecordsLastFailure(t *testing.T) {
	counter := NewFailureCounter(3)
	require.True(t, counter.LastFailureAt().IsZero())

	now := timezone.Now()
	counter.Record(now)
	require.Equal(t, now, counter.LastFailureAt())
}
