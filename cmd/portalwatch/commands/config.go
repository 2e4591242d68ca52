package commands

import (
	"fmt"
	"time"

	"portalwatch/services/monitor"
	"portalwatch/services/notifier"
)

type PortalConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type MonitorConfig struct {
	CheckIntervalMinutes    int     `json:"check_interval_minutes"`
	AttendanceThreshold     float64 `json:"attendance_threshold"`
	PercentEpsilon          float64 `json:"percent_epsilon"`
	ConsecutiveFailureLimit int     `json:"consecutive_failure_limit"`
	FailureCooldownMinutes  int     `json:"failure_cooldown_minutes"`
	TokenTtlMinutes         int     `json:"token_ttl_minutes"`
}

func (c MonitorConfig) Core() (monitor.Config, error) {
	cfg := monitor.DefaultConfig()
	if c.CheckIntervalMinutes != 0 {
		d := time.Duration(c.CheckIntervalMinutes) * time.Minute
		// same bound the /interval command enforces at runtime
		if d < monitor.MinCheckInterval || d > monitor.MaxCheckInterval {
			return monitor.Config{}, fmt.Errorf(
				"check_interval_minutes must be between %d and %d, got %d",
				int(monitor.MinCheckInterval/time.Minute),
				int(monitor.MaxCheckInterval/time.Minute),
				c.CheckIntervalMinutes,
			)
		}
		cfg.CheckInterval = d
	}
	if c.AttendanceThreshold > 0 {
		cfg.AttendanceThreshold = c.AttendanceThreshold
	}
	if c.PercentEpsilon > 0 {
		cfg.PercentEpsilon = c.PercentEpsilon
	}
	if c.ConsecutiveFailureLimit > 0 {
		cfg.ConsecutiveFailureLimit = c.ConsecutiveFailureLimit
	}
	if c.FailureCooldownMinutes > 0 {
		cfg.FailureCooldown = time.Duration(c.FailureCooldownMinutes) * time.Minute
	}
	if c.TokenTtlMinutes > 0 {
		cfg.TokenTTL = time.Duration(c.TokenTtlMinutes) * time.Minute
	}
	return cfg, nil
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatId int64  `json:"chat_id"`
	// serve webhook updates at /telegram/webhook instead of long
	// polling
	Webhook bool `json:"webhook"`
}

type EmailConfig struct {
	Enabled  bool     `json:"enabled"`
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

func (c EmailConfig) Options() notifier.EmailOptions {
	return notifier.EmailOptions{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
		To:       c.To,
	}
}

type DigestConfig struct {
	Enabled bool `json:"enabled"`
	// cron spec in campus-local time, defaults to 08:00 daily
	Cron string `json:"cron"`
}

type Config struct {
	Port     int            `json:"port"`
	Portal   PortalConfig   `json:"portal"`
	Monitor  MonitorConfig  `json:"monitor"`
	Telegram TelegramConfig `json:"telegram"`
	Email    EmailConfig    `json:"email"`
	Digest   DigestConfig   `json:"digest"`
}
