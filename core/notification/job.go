package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/schedule"
)

// CheckKind identifies one of the daily checks.
type CheckKind string

const (
	CheckPrimary CheckKind = "primary"
	CheckEarly   CheckKind = "early"

	lockKey = "notification-job"
	lockTTL = 10 * time.Minute
)

var ErrJobRunning = errors.New("notification check already running")

type (
	Slots interface {
		ListActiveForDay(ctx context.Context, day string) ([]schedule.Slot, error)
	}
	Records interface {
		FindForDay(ctx context.Context, teacherID, courseID string, day time.Time) (attendance.Record, error)
	}
	Administrators interface {
		ListActive(ctx context.Context) ([]administrator.Administrator, error)
	}

	// WatermarkStore remembers when each check last ran.
	WatermarkStore interface {
		// LastRun returns the zero time when kind never ran.
		LastRun(ctx context.Context, kind CheckKind) (time.Time, error)
		SetLastRun(ctx context.Context, kind CheckKind, t time.Time) error
	}

	// Locker serializes job runs, possibly across processes.
	Locker interface {
		TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), acquired bool, err error)
	}
)

// Report summarizes one check run.
type Report struct {
	Kind       CheckKind `json:"kind"`
	RanAt      time.Time `json:"ran_at"`
	Slots      int       `json:"slots"`
	Flagged    int       `json:"flagged"`
	Deliveries int       `json:"deliveries"`
	Failures   int       `json:"failures"`
}

type JobDeps struct {
	Slots          Slots
	Records        Records
	Administrators Administrators
	Configs        *ConfigService
	Dispatcher     *Dispatcher
	Watermarks     WatermarkStore
	Locker         Locker
	Logger         core.Logger
	Metrics        Metrics
	Location       *time.Location
	Now            func() time.Time
}

// Job looks for classes whose attendance was not taken and notifies about them.
type Job struct {
	JobDeps
}

func NewJob(deps JobDeps) *Job {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Job{JobDeps: deps}
}

func (j *Job) now() time.Time {
	return j.Now().In(j.Location)
}

func (j *Job) config(ctx context.Context) Config {
	conf, err := j.Configs.Active(ctx)
	if err != nil {
		j.Logger.Error("loading notification config, using defaults", err)
		return DefaultConfig()
	}
	return conf
}

// checkInstant is today's instant of a configured time; unparsable times mean midnight.
func checkInstant(now time.Time, hhmm string) time.Time {
	minutes, _ := core.ParseTimeOfDay(hhmm)
	return core.AtTimeOfDay(now, minutes)
}

// Due tells whether a check configured at hhmm must run at now given its last run.
func Due(now, lastRun time.Time, hhmm string) bool {
	at := checkInstant(now, hhmm)
	return !now.Before(at) && lastRun.Before(at)
}

// Tick runs every check that is due. Ticks missed since the check instant are
// caught up by the next tick of the same day.
func (j *Job) Tick(ctx context.Context) {
	unlock, ok, err := j.Locker.TryLock(ctx, lockKey, lockTTL)
	if err != nil {
		j.Logger.Error("acquiring notification job lock", err)
		return
	}
	if !ok {
		j.Logger.Info("notification job already running elsewhere, skipping tick")
		return
	}
	defer unlock()

	now := j.now()
	conf := j.config(ctx)
	checks := []struct {
		kind CheckKind
		at   string
		run  func(context.Context, time.Time, Config) Report
	}{
		{CheckEarly, conf.EarlyCheckTime, j.earlyCheck},
		{CheckPrimary, conf.PrimaryCheckTime, j.primaryCheck},
	}
	for _, c := range checks {
		last, err := j.Watermarks.LastRun(ctx, c.kind)
		if err != nil {
			j.Logger.Error(fmt.Sprintf("reading %s check watermark", c.kind), err)
			continue
		}
		if !Due(now, last, c.at) {
			continue
		}
		c.run(ctx, now, conf)
		if err := j.Watermarks.SetLastRun(ctx, c.kind, now); err != nil {
			j.Logger.Error(fmt.Sprintf("saving %s check watermark", c.kind), err)
		}
	}
}

// RunCheck forces a primary check at the current time, leaving the watermark untouched.
func (j *Job) RunCheck(ctx context.Context) (Report, error) {
	unlock, ok, err := j.Locker.TryLock(ctx, lockKey, lockTTL)
	if err != nil {
		return Report{}, errors.Wrap(err, "acquiring notification job lock")
	}
	if !ok {
		return Report{}, ErrJobRunning
	}
	defer unlock()
	return j.primaryCheck(ctx, j.now(), j.config(ctx)), nil
}

// RunEarlyCheck forces an early check at the current time.
func (j *Job) RunEarlyCheck(ctx context.Context) Report {
	return j.earlyCheck(ctx, j.now(), j.config(ctx))
}

// daySlots returns today's active slots whose teacher and course are known.
func (j *Job) daySlots(ctx context.Context, now time.Time) ([]schedule.Slot, error) {
	slots, err := j.Slots.ListActiveForDay(ctx, schedule.WeekdayName(now))
	if err != nil {
		return nil, errors.Wrap(err, "listing today's slots")
	}
	resolved := slots[:0]
	for _, s := range slots {
		if s.Teacher == nil || s.Course == nil {
			j.Logger.Warn(fmt.Sprintf("skipping slot %s: teacher or course not found", s.ID))
			continue
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}

// record returns the attendance record of s today, or false when there is none.
func (j *Job) record(ctx context.Context, s schedule.Slot, now time.Time) (attendance.Record, bool, error) {
	r, err := j.Records.FindForDay(ctx, s.TeacherID, s.CourseID, now)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return attendance.Record{}, false, nil
		}
		return attendance.Record{}, false, err
	}
	return r, true, nil
}

func (j *Job) primaryCheck(ctx context.Context, now time.Time, conf Config) Report {
	report := Report{Kind: CheckPrimary, RanAt: now}
	slots, err := j.daySlots(ctx, now)
	if err != nil {
		j.Logger.Error("running primary check", err)
		return report
	}
	report.Slots = len(slots)

	nowMinutes := core.MinutesOfDay(now)
	for _, s := range slots {
		end, _ := core.ParseTimeOfDay(s.EndTime)
		if nowMinutes < end {
			continue
		}
		r, found, err := j.record(ctx, s, now)
		if err != nil {
			j.Logger.Error(fmt.Sprintf("looking up attendance of slot %s", s.ID), err)
			continue
		}
		if found && r.Status != attendance.StatusPending {
			continue
		}

		report.Flagged++
		inc := Incident{
			TeacherID:    s.TeacherID,
			TeacherName:  s.Teacher.Name,
			TeacherEmail: s.Teacher.Email,
			CourseID:     s.CourseID,
			CourseName:   s.Course.Name,
			ClassDate:    now,
			Reason:       ReasonUnrecorded,
		}
		j.notify(ctx, conf, inc, &report)
	}
	j.Metrics.CheckRan(CheckPrimary, report.Flagged)
	j.Logger.Info(fmt.Sprintf("primary check done: %d slots, %d flagged, %d sent, %d failed",
		report.Slots, report.Flagged, report.Deliveries, report.Failures))
	return report
}

// notify sends every notice about inc; each send is independent of the others.
func (j *Job) notify(ctx context.Context, conf Config, inc Incident, report *Report) {
	tally := func(d Delivery) {
		switch d.Outcome {
		case OutcomeSent:
			report.Deliveries++
		case OutcomeError:
			report.Failures++
		}
	}

	tally(j.Dispatcher.notifyTeacher(ctx, conf, inc))

	if conf.SendToAdministrators {
		admins, err := j.Administrators.ListActive(ctx)
		if err != nil {
			j.Logger.Error("listing active administrators", err)
		}
		for _, a := range admins {
			tally(j.Dispatcher.notifyStaff(ctx, conf, AudienceAdministrator, inc, a.Email))
		}
	}
	if conf.SendToExtraRecipients {
		for _, email := range conf.ExtraRecipients {
			tally(j.Dispatcher.notifyStaff(ctx, conf, AudienceExtra, inc, email))
		}
	}
}

func (j *Job) earlyCheck(ctx context.Context, now time.Time, _ Config) Report {
	report := Report{Kind: CheckEarly, RanAt: now}
	slots, err := j.daySlots(ctx, now)
	if err != nil {
		j.Logger.Error("running early check", err)
		return report
	}
	report.Slots = len(slots)

	nowMinutes := core.MinutesOfDay(now)
	for _, s := range slots {
		start, _ := core.ParseTimeOfDay(s.StartTime)
		end, _ := core.ParseTimeOfDay(s.EndTime)
		if nowMinutes < start || nowMinutes >= end {
			continue
		}
		_, found, err := j.record(ctx, s, now)
		if err != nil {
			j.Logger.Error(fmt.Sprintf("looking up attendance of slot %s", s.ID), err)
			continue
		}
		if found {
			continue
		}
		report.Flagged++
		j.Logger.Warn(fmt.Sprintf("class %s of %s (%s-%s) is in progress without attendance",
			s.Course.Name, s.Teacher.Name, s.StartTime, s.EndTime))
	}
	j.Metrics.CheckRan(CheckEarly, report.Flagged)
	return report
}
