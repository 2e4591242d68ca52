package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitorConfigDefaults(t *testing.T) {
	cfg, err := MonitorConfig{}.Core()
	require.NoError(t, err)
	require.Equal(t, 60*time.Minute, cfg.CheckInterval)
	require.Equal(t, 75.0, cfg.AttendanceThreshold)
	require.Equal(t, 3, cfg.ConsecutiveFailureLimit)
}

func TestMonitorConfigIntervalBounds(t *testing.T) {
	_, err := MonitorConfig{CheckIntervalMinutes: 1}.Core()
	require.Error(t, err)
	_, err = MonitorConfig{CheckIntervalMinutes: 4}.Core()
	require.Error(t, err)
	_, err = MonitorConfig{CheckIntervalMinutes: 1441}.Core()
	require.Error(t, err)
	_, err = MonitorConfig{CheckIntervalMinutes: -10}.Core()
	require.Error(t, err)

	cfg, err := MonitorConfig{CheckIntervalMinutes: 5}.Core()
	require.NoError(t, err)
	require.GreaterOrEqual(t, cfg.CheckInterval, 5*time.Minute)

	cfg, err = MonitorConfig{CheckIntervalMinutes: 1440}.Core()
	require.NoError(t, err)
	require.Equal(t, 1440*time.Minute, cfg.CheckInterval)
}

func TestStartupMessageVariants(t *testing.T) {
	healthy := startupMessage(30*time.Minute, nil)
	require.Contains(t, healthy, "Portal monitor is up")
	require.NotContains(t, healthy, "limited mode")

	degraded := startupMessage(30*time.Minute, errors.New("captcha rejected"))
	require.Contains(t, degraded, "limited mode")
	require.Contains(t, degraded, "keep retrying")
	require.Contains(t, degraded, "30m")
}
