package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/tests"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	c := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", tch.ID)

	r := testutil.CreateRecord(t, env, tch.ID, c.ID, "2026-10-12", "08:00", "10:00", "")
	assert.Equal(t, attendance.StatusPending, r.Status)
	assert.Equal(t, []string{}, r.PresentStudents)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), r.Date)

	_, err := env.Attendance.Create(ctx, attendance.NewRecord{TeacherID: tch.ID, CourseID: c.ID, Date: "2026-10-12", StartTime: "14:00", EndTime: "16:00"})
	assert.True(t, core.IsConflict(err))

	_, err = env.Attendance.Create(ctx, attendance.NewRecord{TeacherID: "65a1b2c3d4e5f6a7b8c9d0e1", CourseID: c.ID, Date: "2026-10-13", StartTime: "08:00", EndTime: "10:00"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.FieldError{{Field: "teacher_id", Error: "teacher does not exist"}}, vErr.Fields)
}

func TestService_FindForDay(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	calc := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", tch.ID)
	alg := testutil.CreateCourse(t, env, "Álgebra", "MAT102", tch.ID)
	monday := testutil.CreateRecord(t, env, tch.ID, calc.ID, "2026-10-12", "08:00", "10:00", attendance.StatusPending)

	evening := time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)
	found, err := env.Attendance.FindForDay(ctx, tch.ID, calc.ID, evening)
	require.NoError(t, err)
	assert.Equal(t, monday.ID, found.ID)

	_, err = env.Attendance.FindForDay(ctx, tch.ID, alg.ID, evening)
	assert.Equal(t, attendance.ErrNotFound, err)

	_, err = env.Attendance.FindForDay(ctx, tch.ID, calc.ID, evening.AddDate(0, 0, 1))
	assert.Equal(t, attendance.ErrNotFound, err)
}

func TestService_Finalize(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	c := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", tch.ID)
	s1 := testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")
	s2 := testutil.CreateStudent(t, env, "Raúl Vega", "raul@uni.edu", "A002")
	r := testutil.CreateRecord(t, env, tch.ID, c.ID, "2026-10-12", "08:00", "10:00", attendance.StatusPending)

	got, err := env.Attendance.Finalize(ctx, r.ID, []string{s1.ID, s2.ID})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusFinalized, got.Status)
	assert.Equal(t, []string{s1.ID, s2.ID}, got.PresentStudents)

	// finalizing again replaces the present students
	got, err = env.Attendance.Finalize(ctx, r.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.PresentStudents)

	entries, err := env.History.Query(ctx, notification.Filter{Kind: notification.KindAttendanceRecorded})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Cálculo I", entries[0].CourseName)
	assert.Equal(t, r.Date, entries[0].ClassDate)

	_, err = env.Attendance.Finalize(ctx, "65a1b2c3d4e5f6a7b8c9d0e1", nil)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	c := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", tch.ID)
	monday := testutil.CreateRecord(t, env, tch.ID, c.ID, "2026-10-12", "08:00", "10:00", attendance.StatusPending)
	tuesday := testutil.CreateRecord(t, env, tch.ID, c.ID, "2026-10-13", "08:00", "10:00", attendance.StatusPending)

	str := func(s string) *string { return &s }

	tests := []struct {
		name     string
		id       string
		data     attendance.UpdateRecord
		wantErr  func(error) bool
		wantDate string
	}{
		{name: "Move onto a taken day", id: tuesday.ID, data: attendance.UpdateRecord{Date: str("2026-10-12")}, wantErr: core.IsConflict},
		{name: "Keep its own day", id: monday.ID, data: attendance.UpdateRecord{Date: str("2026-10-12"), Topic: str("Límites")}, wantDate: "2026-10-12"},
		{name: "Move onto a free day", id: tuesday.ID, data: attendance.UpdateRecord{Date: str("2026-10-14")}, wantDate: "2026-10-14"},
		{name: "Unknown record", id: "65a1b2c3d4e5f6a7b8c9d0e1", data: attendance.UpdateRecord{Topic: str("x")}, wantErr: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.Attendance.Update(ctx, tt.id, tt.data)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, got.Date.Format("2006-01-02"))
		})
	}

	got, err := env.Attendance.Get(ctx, tuesday.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", got.Date.Format("2006-01-02"))
}
