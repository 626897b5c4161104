package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/attendance"
	. "github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/tests"
)

func TestDue(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 10, 12, h, m, 0, 0, time.UTC) }
	yesterday := day(20, 0).AddDate(0, 0, -1)

	tests := []struct {
		name    string
		now     time.Time
		lastRun time.Time
		at      string
		want    bool
	}{
		{name: "before the check time", now: day(19, 59), lastRun: yesterday, at: "20:00"},
		{name: "at the check time", now: day(20, 0), lastRun: yesterday, at: "20:00", want: true},
		{name: "never ran", now: day(20, 0), at: "20:00", want: true},
		{name: "missed ticks are caught up", now: day(22, 15), lastRun: yesterday, at: "20:00", want: true},
		{name: "already ran today", now: day(22, 15), lastRun: day(20, 1), at: "20:00"},
		{name: "ran earlier today before the check time", now: day(20, 5), lastRun: day(19, 0), at: "20:00", want: true},
		{name: "custom time", now: day(20, 0), lastRun: yesterday, at: "21:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(tt.now, tt.lastRun, tt.at); got != tt.want {
				t.Errorf("Due() = %v; want %v", got, tt.want)
			}
		})
	}
}

type jobFixture struct {
	env        *testutil.Env
	teacherID  string
	courseName string
}

// newJobFixture schedules a Monday class from 08:00 to 10:00 with two active
// administrators and an inactive one.
func newJobFixture(t *testing.T) jobFixture {
	env := testutil.NewEnv(t)
	testutil.CreateAdministrator(t, env, "Ana Torres", "ana@uni.edu", true)
	testutil.CreateAdministrator(t, env, "Raúl Vega", "raul@uni.edu", true)
	testutil.CreateAdministrator(t, env, "Eva Ramos", "eva@uni.edu", false)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	c := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", tch.ID)
	testutil.CreateSlot(t, env, tch.ID, c.ID, "lunes", "08:00", "10:00")
	return jobFixture{env: env, teacherID: tch.ID, courseName: c.Name}
}

func monday(h, m int) time.Time {
	return time.Date(2026, 10, 12, h, m, 0, 0, time.UTC)
}

func sentTo(env *testutil.Env) []string {
	var out []string
	for _, m := range env.Mailer.SentMessages() {
		out = append(out, m.Recipients()...)
	}
	return out
}

func TestJob_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("Unrecorded class notifies the teacher and every active administrator", func(t *testing.T) {
		f := newJobFixture(t)
		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)

		assert.ElementsMatch(t, []string{"luis@uni.edu", "ana@uni.edu", "raul@uni.edu"}, sentTo(f.env))

		entries, err := f.env.History.Query(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, OutcomeSent, e.Outcome)
			assert.Equal(t, ReasonUnrecorded, e.Reason)
			assert.Equal(t, f.courseName, e.CourseName)
			assert.Equal(t, e.RecipientEmail != "luis@uni.edu", e.AdministratorNotice)
		}

		// the next tick of the day does nothing
		f.env.Mailer.Reset()
		f.env.Clock.Set(monday(21, 0))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())
	})

	t.Run("Missed check runs on the next tick", func(t *testing.T) {
		f := newJobFixture(t)
		f.env.Clock.Set(monday(19, 0))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())

		f.env.Clock.Set(monday(23, 0))
		f.env.Job.Tick(ctx)
		assert.Len(t, f.env.Mailer.SentMessages(), 3)
	})

	t.Run("Configured check time is honored", func(t *testing.T) {
		f := newJobFixture(t)
		_, err := f.env.Configs.Create(ctx, NewConfig{PrimaryCheckTime: "21:00"})
		require.NoError(t, err)

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())

		f.env.Clock.Set(monday(21, 0))
		f.env.Job.Tick(ctx)
		assert.Len(t, f.env.Mailer.SentMessages(), 3)
	})

	t.Run("Recorded class is not flagged", func(t *testing.T) {
		f := newJobFixture(t)
		slots, err := f.env.Schedules.ListByTeacher(ctx, f.teacherID)
		require.NoError(t, err)
		testutil.CreateRecord(t, f.env, f.teacherID, slots[0].CourseID, "2026-10-12", "08:00", "10:00", attendance.StatusFinalized)

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())
	})

	t.Run("Pending record is flagged", func(t *testing.T) {
		f := newJobFixture(t)
		slots, err := f.env.Schedules.ListByTeacher(ctx, f.teacherID)
		require.NoError(t, err)
		testutil.CreateRecord(t, f.env, f.teacherID, slots[0].CourseID, "2026-10-12", "08:00", "10:00", attendance.StatusPending)

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)
		assert.Len(t, f.env.Mailer.SentMessages(), 3)
	})

	t.Run("Other days are not checked", func(t *testing.T) {
		f := newJobFixture(t)
		f.env.Clock.Set(monday(20, 0).AddDate(0, 0, 1))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())
	})

	t.Run("Send failures are recorded", func(t *testing.T) {
		f := newJobFixture(t)
		f.env.Mailer.FailWith(errors.New("smtp: 421 service not available"))

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)

		entries, err := f.env.History.Query(ctx, Filter{Outcome: OutcomeError})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, "smtp: 421 service not available", e.ErrorMessage)
		}
	})

	t.Run("Disabled audiences are skipped", func(t *testing.T) {
		f := newJobFixture(t)
		off := false
		_, err := f.env.Configs.Create(ctx, NewConfig{
			SendToAdministrators: &off,
			ExtraRecipients:      []string{"decano@uni.edu"},
		})
		require.NoError(t, err)

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)
		assert.ElementsMatch(t, []string{"luis@uni.edu", "decano@uni.edu"}, sentTo(f.env))
	})

	t.Run("Slot of a deleted teacher is skipped", func(t *testing.T) {
		f := newJobFixture(t)
		require.NoError(t, f.env.Teachers.Delete(ctx, f.teacherID))

		f.env.Clock.Set(monday(20, 0))
		f.env.Job.Tick(ctx)
		assert.Empty(t, f.env.Mailer.SentMessages())
	})
}

func TestJob_RunCheck(t *testing.T) {
	ctx := context.Background()
	f := newJobFixture(t)
	f.env.Clock.Set(monday(12, 0))

	report, err := f.env.Job.RunCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Kind: CheckPrimary, RanAt: monday(12, 0), Slots: 1, Flagged: 1, Deliveries: 3}, report)

	// a forced run leaves the scheduled check due
	f.env.Mailer.Reset()
	f.env.Clock.Set(monday(20, 0))
	f.env.Job.Tick(ctx)
	assert.Len(t, f.env.Mailer.SentMessages(), 3)
}

func TestJob_RunEarlyCheck(t *testing.T) {
	f := newJobFixture(t)

	f.env.Clock.Set(monday(9, 0))
	report := f.env.Job.RunEarlyCheck(context.Background())
	assert.Equal(t, 1, report.Flagged)
	assert.Empty(t, f.env.Mailer.SentMessages())

	f.env.Clock.Set(monday(11, 0))
	report = f.env.Job.RunEarlyCheck(context.Background())
	assert.Equal(t, 0, report.Flagged)
}

type brokenRecords struct{ err error }

func (r brokenRecords) FindForDay(context.Context, string, string, time.Time) (attendance.Record, error) {
	return attendance.Record{}, r.err
}

// errorLog keeps the messages logged at error level.
type errorLog struct {
	core.NopLogger
	msgs []string
}

func (l *errorLog) Error(msg string, _ ...interface{}) { l.msgs = append(l.msgs, msg) }

func TestJob_lookupFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		now   time.Time
		check func(*Job) Report
	}{
		{name: "Early check", now: monday(9, 0), check: func(j *Job) Report { return j.RunEarlyCheck(ctx) }},
		{name: "Primary check", now: monday(20, 0), check: func(j *Job) Report {
			report, err := j.RunCheck(ctx)
			require.NoError(t, err)
			return report
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newJobFixture(t)
			f.env.Clock.Set(tt.now)

			log := &errorLog{}
			deps := f.env.Job.JobDeps
			deps.Records = brokenRecords{err: errors.New("connection reset")}
			deps.Logger = log

			report := tt.check(NewJob(deps))
			assert.Equal(t, 1, report.Slots)
			assert.Equal(t, 0, report.Flagged)
			assert.Empty(t, f.env.Mailer.SentMessages())
			require.Len(t, log.msgs, 1)
			assert.Contains(t, log.msgs[0], "looking up attendance of slot")
		})
	}

	t.Run("Missing record is not an error", func(t *testing.T) {
		f := newJobFixture(t)
		f.env.Clock.Set(monday(9, 0))

		log := &errorLog{}
		deps := f.env.Job.JobDeps
		deps.Records = brokenRecords{err: errors.Wrap(attendance.ErrNotFound, "finding record")}
		deps.Logger = log

		report := NewJob(deps).RunEarlyCheck(ctx)
		assert.Equal(t, 1, report.Flagged)
		assert.Empty(t, log.msgs)
	})
}
