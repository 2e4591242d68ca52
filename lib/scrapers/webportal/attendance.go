package webportal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

type AttendanceHeader struct {
	HeaderId string `json:"headerid"`
}

type Semester struct {
	RegistrationId   string `json:"registrationid"`
	RegistrationCode string `json:"registrationcode"`
}

type AttendanceMeta struct {
	Headers   []AttendanceHeader `json:"headerlist"`
	Semesters []Semester         `json:"semlist"`
}

// LatestHeader and LatestSemester pick the most recent entries, the
// portal returns both lists newest-first.
func (m AttendanceMeta) LatestHeader() (AttendanceHeader, error) {
	if len(m.Headers) == 0 {
		return AttendanceHeader{}, fmt.Errorf("portal returned no attendance headers")
	}
	return m.Headers[0], nil
}

func (m AttendanceMeta) LatestSemester() (Semester, error) {
	if len(m.Semesters) == 0 {
		return Semester{}, fmt.Errorf("portal returned no registered semesters")
	}
	return m.Semesters[0], nil
}

func (c *Client) AttendanceMeta(ctx context.Context, s Session) (AttendanceMeta, error) {
	ctx, span := tracer.Start(ctx, "client:AttendanceMeta")
	defer span.End()

	body := map[string]any{
		"clientid": s.ClientId,
		"memberid": s.MemberId,
	}

	var meta AttendanceMeta
	err := c.call(ctx, s, "StudentClassAttendance/getstudentInforegistrationforattendence", body, &meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch attendance meta")
		return AttendanceMeta{}, err
	}
	return meta, nil
}

// AttendanceRecord mirrors the portal's per-subject row, including its
// misspelled "LTpercantage" key for the combined figure.
type AttendanceRecord struct {
	SubjectCode string `json:"Lsubjectcode"`
	SubjectDesc string `json:"Lsubjectdesc"`

	LectureTotal      int     `json:"Ltotalclass"`
	LecturePresent    int     `json:"Ltotalpres"`
	LecturePercentage float64 `json:"Lpercentage"`

	TutorialTotal      int     `json:"LTtotalclass"`
	TutorialPresent    int     `json:"LTtotalpres"`
	TutorialPercentage float64 `json:"LTpercentage"`

	PracticalTotal      int     `json:"Ptotalclass"`
	PracticalPresent    int     `json:"Ptotalpres"`
	PracticalPercentage float64 `json:"Ppercentage"`

	CombinedPercentage float64 `json:"LTpercantage"`
}

// Percentage resolves the figure the portal itself displays for the
// subject, falling back through the component figures when the
// combined one is absent.
func (r AttendanceRecord) Percentage() float64 {
	switch {
	case r.CombinedPercentage > 0:
		return r.CombinedPercentage
	case r.PracticalPercentage > 0:
		return r.PracticalPercentage
	case r.LecturePercentage > 0:
		return r.LecturePercentage
	}
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(r.Present()) / float64(total) * 100
}

func (r AttendanceRecord) Total() int {
	return r.LectureTotal + r.TutorialTotal + r.PracticalTotal
}

func (r AttendanceRecord) Present() int {
	return r.LecturePresent + r.TutorialPresent + r.PracticalPresent
}

func (r AttendanceRecord) Subject() string {
	if r.SubjectCode != "" {
		return r.SubjectCode
	}
	return r.SubjectDesc
}

type AttendanceReport struct {
	CurrentSemester string             `json:"currentSem"`
	Records         []AttendanceRecord `json:"studentattendancelist"`
}

func (r AttendanceReport) OverallPercentage() float64 {
	var total, present int
	for _, record := range r.Records {
		total += record.Total()
		present += record.Present()
	}
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// Attendance fetches the per-subject attendance detail. The portal is
// slow on this endpoint, responses over ten seconds are normal.
func (c *Client) Attendance(ctx context.Context, s Session, header AttendanceHeader, sem Semester) (AttendanceReport, error) {
	ctx, span := tracer.Start(ctx, "client:Attendance")
	defer span.End()

	body := map[string]any{
		"clientid":       s.ClientId,
		"memberid":       s.MemberId,
		"headerid":       header.HeaderId,
		"registrationid": sem.RegistrationId,
	}

	var report AttendanceReport
	err := c.call(ctx, s, "StudentClassAttendance/getstudentattendancedetail", body, &report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch attendance")
		return AttendanceReport{}, err
	}
	return report, nil
}
