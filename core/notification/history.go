package notification

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/attendance"
)

type (
	Reason  string
	Outcome string
	Kind    string
)

const (
	ReasonAbsence    Reason = "absence"
	ReasonUnrecorded Reason = "unrecorded"

	OutcomeSent  Outcome = "sent"
	OutcomeError Outcome = "error"
	// OutcomeSkipped is returned for sends disabled by configuration; it is never stored.
	OutcomeSkipped Outcome = "skipped"

	KindNotification       Kind = "notification"
	KindAttendanceRecorded Kind = "attendance_recorded"

	DefaultRecentLimit = 10
)

func (r Reason) Valid() bool { return r == ReasonAbsence || r == ReasonUnrecorded }

var objectIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// LogEntry is an immutable audit record of one dispatch attempt.
type LogEntry struct {
	ID                  string    `json:"id"`
	Kind                Kind      `json:"kind"`
	TeacherID           *string   `json:"teacher_id"`
	CourseID            *string   `json:"course_id"`
	RecipientEmail      string    `json:"recipient_email"`
	TeacherName         string    `json:"teacher_name"`
	CourseName          string    `json:"course_name"`
	ClassDate           time.Time `json:"class_date"`
	Reason              Reason    `json:"reason"`
	Outcome             Outcome   `json:"outcome"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	AdministratorNotice bool      `json:"administrator_notice"`
	CreatedAt           time.Time `json:"created_at"`
}

// Filter narrows history queries. Zero values match everything.
type Filter struct {
	TeacherID     string    `query:"teacher"`
	From          time.Time `query:"-"`
	To            time.Time `query:"-"`
	Reason        Reason    `query:"reason"`
	Outcome       Outcome   `query:"outcome"`
	Kind          Kind      `query:"-"`
	TeacherFacing bool      `query:"-"`
	Limit         int       `query:"-"`
}

// Stats are aggregated over notification entries.
type Stats struct {
	Total    int64            `json:"total"`
	Sent     int64            `json:"sent"`
	Errors   int64            `json:"errors"`
	ByReason map[Reason]int64 `json:"by_reason"`
}

type HistoryRepository interface {
	Insert(ctx context.Context, e LogEntry) (LogEntry, error)
	// Find returns the matching entries ordered by newest first.
	Find(ctx context.Context, filter Filter) ([]LogEntry, error)
	Stats(ctx context.Context, kind Kind) (Stats, error)
}

type HistoryService struct {
	repo    HistoryRepository
	loc     *time.Location
	nowFunc func() time.Time
}

func NewHistoryService(repo HistoryRepository, loc *time.Location) *HistoryService {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{repo: repo, loc: loc, nowFunc: time.Now}
}

func optionalRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// normalize nulls course references that are not valid object ids.
func normalize(e *LogEntry) {
	if e.CourseID != nil && !objectIDRegex.MatchString(*e.CourseID) {
		e.CourseID = nil
	}
	if e.TeacherID != nil && *e.TeacherID == "" {
		e.TeacherID = nil
	}
}

// ParseDayRange sets the class date bounds of f from the optional from and to
// values. Dates (YYYY-MM-DD) are days in the history location, both inclusive;
// RFC 3339 timestamps are used as is.
func (svc *HistoryService) ParseDayRange(f *Filter, from, to string) error {
	parse := func(field, s string, endOfDay bool) (time.Time, error) {
		if t, err := time.ParseInLocation("2006-01-02", s, svc.loc); err == nil {
			if endOfDay {
				t = t.AddDate(0, 0, 1)
			}
			return t, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: field, Error: "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"})
		}
		return t, nil
	}

	var err error
	if from != "" {
		if f.From, err = parse("from", from, false); err != nil {
			return err
		}
	}
	if to != "" {
		if f.To, err = parse("to", to, true); err != nil {
			return err
		}
	}
	return nil
}

// Record appends e to the history.
func (svc *HistoryService) Record(ctx context.Context, e LogEntry) (LogEntry, error) {
	if e.Kind == "" {
		e.Kind = KindNotification
	}
	if e.CourseID != nil && *e.CourseID == "" {
		e.CourseID = nil
	}
	if e.TeacherID != nil && *e.TeacherID == "" {
		e.TeacherID = nil
	}
	e.CreatedAt = svc.nowFunc().UTC()
	e, err := svc.repo.Insert(ctx, e)
	return e, errors.Wrap(err, "recording history entry")
}

// Query returns entries matching filter, newest first.
func (svc *HistoryService) Query(ctx context.Context, filter Filter) ([]LogEntry, error) {
	entries, err := svc.repo.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	for i := range entries {
		normalize(&entries[i])
	}
	return entries, nil
}

// Stats counts notification entries by outcome and by reason.
func (svc *HistoryService) Stats(ctx context.Context) (Stats, error) {
	st, err := svc.repo.Stats(ctx, KindNotification)
	if err != nil {
		return Stats{}, errors.Wrap(err, "aggregating history")
	}
	if st.ByReason == nil {
		st.ByReason = make(map[Reason]int64)
	}
	for _, r := range []Reason{ReasonAbsence, ReasonUnrecorded} {
		st.ByReason[r] += 0
	}
	return st, nil
}

// Recent returns the latest entries; limit defaults to DefaultRecentLimit.
func (svc *HistoryService) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return svc.Query(ctx, Filter{Limit: limit})
}

// ForTeacher returns the teacher-facing notifications addressed to teacherID.
func (svc *HistoryService) ForTeacher(ctx context.Context, teacherID string) ([]LogEntry, error) {
	return svc.Query(ctx, Filter{TeacherID: teacherID, Kind: KindNotification, TeacherFacing: true})
}

// Today returns the entries whose class date is today.
func (svc *HistoryService) Today(ctx context.Context) ([]LogEntry, error) {
	start := core.StartOfDay(svc.nowFunc().In(svc.loc))
	return svc.Query(ctx, Filter{From: start, To: start.AddDate(0, 0, 1)})
}

// AttendanceFinalized records that attendance of r was taken.
func (svc *HistoryService) AttendanceFinalized(ctx context.Context, r attendance.Record) error {
	e := LogEntry{
		Kind:      KindAttendanceRecorded,
		TeacherID: optionalRef(r.TeacherID),
		CourseID:  optionalRef(r.CourseID),
		ClassDate: r.Date,
		Reason:    ReasonUnrecorded,
		Outcome:   OutcomeSent,
	}
	if r.Teacher != nil {
		e.TeacherName = r.Teacher.Name
		e.RecipientEmail = r.Teacher.Email
	}
	if r.Course != nil {
		e.CourseName = r.Course.Name
	}
	_, err := svc.Record(ctx, e)
	return err
}
