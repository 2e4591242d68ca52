package webportal

import (
	"context"

	"go.opentelemetry.io/otel/codes"
)

type SgpaCgpa struct {
	SGPA float64 `json:"sgpa"`
	CGPA float64 `json:"cgpa"`
}

func (c *Client) SgpaCgpa(ctx context.Context, s Session) (SgpaCgpa, error) {
	ctx, span := tracer.Start(ctx, "client:SgpaCgpa")
	defer span.End()

	body := map[string]any{
		"clientid": s.ClientId,
		"memberid": s.MemberId,
	}

	var payload struct {
		Semesters []SgpaCgpa `json:"semesterList"`
	}
	err := c.call(ctx, s, "studentsgpacgpa/getallsemestersgpacgpa", body, &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch sgpa/cgpa")
		return SgpaCgpa{}, err
	}
	if len(payload.Semesters) == 0 {
		return SgpaCgpa{}, nil
	}
	// newest semester first
	return payload.Semesters[0], nil
}

func (c *Client) GradeCardSemesters(ctx context.Context, s Session) ([]Semester, error) {
	ctx, span := tracer.Start(ctx, "client:GradeCardSemesters")
	defer span.End()

	body := map[string]any{
		"clientid": s.ClientId,
		"memberid": s.MemberId,
	}

	var payload struct {
		Semesters []Semester `json:"semesterList"`
	}
	err := c.call(ctx, s, "studentgradecard/getregistrationList", body, &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch grade card semesters")
		return nil, err
	}
	return payload.Semesters, nil
}

type GradeCardEntry struct {
	SubjectCode string  `json:"subjectcode"`
	SubjectDesc string  `json:"subjectdesc"`
	Grade       string  `json:"grade"`
	InternalCA  float64 `json:"internalca"`
	External    float64 `json:"external"`
	Total       float64 `json:"totalmarks"`
	Credits     float64 `json:"coursecreditpoint"`
}

func (e GradeCardEntry) Subject() string {
	if e.SubjectCode != "" {
		return e.SubjectCode
	}
	return e.SubjectDesc
}

func (c *Client) GradeCard(ctx context.Context, s Session, sem Semester) ([]GradeCardEntry, error) {
	ctx, span := tracer.Start(ctx, "client:GradeCard")
	defer span.End()

	body := map[string]any{
		"clientid":       s.ClientId,
		"memberid":       s.MemberId,
		"registrationid": sem.RegistrationId,
	}

	var payload struct {
		Entries []GradeCardEntry `json:"gradecard"`
	}
	err := c.call(ctx, s, "studentgradecard/showstudentgradecard", body, &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch grade card")
		return nil, err
	}
	return payload.Entries, nil
}
