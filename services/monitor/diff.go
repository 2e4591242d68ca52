package monitor

import (
	"math"
	"slices"
	"strings"
)

// DiffConfig is the slice of Config the comparison depends on.
type DiffConfig struct {
	AttendanceThreshold float64
	PercentEpsilon      float64
}

// Diff compares the previous snapshot of a kind against the current
// one. previous == nil means first observation: every subject and
// every notice is reported as new, while ThresholdBreached is computed
// from current alone.
//
// Diff is pure: identical inputs produce identical deltas, no clock
// reads beyond what the snapshots already carry.
func Diff(previous *Snapshot, current Snapshot, cfg DiffConfig) ChangeDelta {
	delta := ChangeDelta{Kind: current.Kind}

	switch current.Kind {
	case KindAttendance:
		delta.ChangedSubjects = changedAttendance(previous, current, cfg.PercentEpsilon)
		delta.ThresholdBreached = current.Attendance.OverallPercentage < cfg.AttendanceThreshold
	case KindMarks:
		delta.ChangedSubjects = changedMarks(previous, current)
	case KindNotices:
		delta.NewNotices = newNotices(previous, current)
	}

	return delta
}

func changedAttendance(previous *Snapshot, current Snapshot, epsilon float64) []string {
	var prev map[string]SubjectAttendance
	if previous != nil && previous.Attendance != nil {
		prev = make(map[string]SubjectAttendance, len(previous.Attendance.Subjects))
		for _, s := range previous.Attendance.Subjects {
			prev[s.Name] = s
		}
	}

	var changed []string
	for _, cur := range current.Attendance.Subjects {
		old, seen := prev[cur.Name]
		if !seen {
			changed = append(changed, cur.Name)
			continue
		}
		// count changes matter even when the percentage rounds the same
		if old.Attended != cur.Attended || old.Total != cur.Total {
			changed = append(changed, cur.Name)
			continue
		}
		if math.Abs(old.Percentage-cur.Percentage) > epsilon {
			changed = append(changed, cur.Name)
		}
	}

	slices.Sort(changed)
	return changed
}

func changedMarks(previous *Snapshot, current Snapshot) []string {
	var prev map[string]SubjectMarks
	if previous != nil && previous.Marks != nil {
		prev = make(map[string]SubjectMarks, len(previous.Marks.Subjects))
		for _, s := range previous.Marks.Subjects {
			prev[s.Name] = s
		}
	}

	var changed []string
	for _, cur := range current.Marks.Subjects {
		old, seen := prev[cur.Name]
		if !seen || old.Marks != cur.Marks || old.Grade != cur.Grade {
			changed = append(changed, cur.Name)
		}
	}

	slices.Sort(changed)
	return changed
}

// set membership on notice ids decides novelty, position in the feed
// does not
func newNotices(previous *Snapshot, current Snapshot) []Notice {
	seen := map[string]bool{}
	if previous != nil && previous.Notices != nil {
		for _, n := range previous.Notices.Notices {
			seen[n.Id] = true
		}
	}

	var fresh []Notice
	for _, n := range current.Notices.Notices {
		if !seen[n.Id] {
			fresh = append(fresh, n)
		}
	}

	slices.SortStableFunc(fresh, func(a, b Notice) int {
		if a.PostedAt.After(b.PostedAt) {
			return -1
		}
		if a.PostedAt.Before(b.PostedAt) {
			return 1
		}
		return strings.Compare(a.Id, b.Id)
	})
	return fresh
}
