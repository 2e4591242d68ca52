package monitor

import (
	"time"
)

// Kind names one monitored slice of portal data.
type Kind string

const (
	KindAttendance Kind = "attendance"
	KindMarks      Kind = "marks"
	KindNotices    Kind = "notices"
)

// AllKinds is the fetch order of a scheduled cycle.
var AllKinds = []Kind{KindAttendance, KindMarks, KindNotices}

// Credentials are supplied once at startup and never logged.
type Credentials struct {
	Username string
	Password string
}

// SessionToken is the authentication artifact the portal hands out on
// login. Opaque to everything except the portal client, which embeds
// the headers into requests. Owned exclusively by the SessionManager.
type SessionToken struct {
	Headers  map[string]string
	ClientId string
	IssuedAt time.Time
}

type SubjectAttendance struct {
	Name       string
	Attended   int
	Total      int
	Percentage float64
}

type AttendanceSnapshot struct {
	OverallPercentage float64
	Subjects          []SubjectAttendance
}

type SubjectMarks struct {
	Name    string
	Marks   string
	Grade   string
	Credits int
}

type MarksSnapshot struct {
	CGPA     float64
	SGPA     float64
	Subjects []SubjectMarks
}

type Notice struct {
	Id       string
	Title    string
	PostedAt time.Time
}

type NoticeSnapshot struct {
	Notices []Notice
}

// Snapshot is a kind-tagged point-in-time read of one monitored data
// slice. Exactly one of the payload pointers is set, matching Kind.
type Snapshot struct {
	Kind       Kind
	FetchedAt  time.Time
	Attendance *AttendanceSnapshot
	Marks      *MarksSnapshot
	Notices    *NoticeSnapshot
}

// ChangeDelta is the structured result of comparing two snapshots of
// the same kind.
type ChangeDelta struct {
	Kind Kind
	// subject names whose attendance counts/percentage or marks/grade
	// differ from the previous snapshot, sorted for determinism
	ChangedSubjects []string
	// notices present now but absent previously, ordered by PostedAt
	// descending for presentation
	NewNotices []Notice
	// true iff the current overall attendance sits below the
	// configured threshold, regardless of what changed
	ThresholdBreached bool
}

func (d ChangeDelta) Empty() bool {
	return len(d.ChangedSubjects) == 0 && len(d.NewNotices) == 0 && !d.ThresholdBreached
}

// Config is the policy surface of the monitoring core.
type Config struct {
	// bounded to [5, 1440] minutes, adjustable at runtime
	CheckInterval time.Duration
	// overall attendance below this percentage raises an alert
	AttendanceThreshold float64
	// minimum percentage movement that counts as a change, zero means
	// any difference counts
	PercentEpsilon float64
	// consecutive portal failures before the single degraded-service
	// alert goes out and the counter resets
	ConsecutiveFailureLimit int
	// wait after a failed cycle instead of the full check interval
	FailureCooldown time.Duration
	// how long a login token is trusted before a fresh login, zero
	// reuses the token until the portal signals expiry
	TokenTTL time.Duration
}

const (
	MinCheckInterval = 5 * time.Minute
	MaxCheckInterval = 1440 * time.Minute
)

func DefaultConfig() Config {
	return Config{
		CheckInterval:           60 * time.Minute,
		AttendanceThreshold:     75.0,
		PercentEpsilon:          0.0,
		ConsecutiveFailureLimit: 3,
		FailureCooldown:         5 * time.Minute,
		TokenTTL:                0,
	}
}
