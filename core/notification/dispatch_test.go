package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/tests"
)

func TestDispatcher_NotifyTeacher(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	inc := Incident{
		TeacherID:    "65a1b2c3d4e5f6a7b8c9d0e1",
		TeacherName:  "Luis <Peña>",
		TeacherEmail: "luis@uni.edu",
		CourseID:     "65a1b2c3d4e5f6a7b8c9d0e2",
		CourseName:   "Cálculo I",
		ClassDate:    time.Date(2025, time.May, 5, 20, 0, 0, 0, time.UTC),
		Reason:       ReasonUnrecorded,
	}
	d := env.Dispatcher.NotifyTeacher(ctx, inc)
	require.Equal(t, OutcomeSent, d.Outcome)
	require.NoError(t, d.Err)

	sent := env.Mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Notificación: no registró la asistencia de su clase", sent[0].Subject)
	assert.Equal(t, "Luis <Peña>", sent[0].To[0].Name)
	assert.Contains(t, sent[0].HTMLContent, "Luis &lt;Peña&gt;")
	assert.Contains(t, sent[0].HTMLContent, "lunes, 5 de mayo de 2025")
	assert.NotContains(t, sent[0].HTMLContent, "{{")

	entries, err := env.History.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "luis@uni.edu", entries[0].RecipientEmail)
	assert.False(t, entries[0].AdministratorNotice)
}

func TestDispatcher_disabledAudiences(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	off := false
	_, err := env.Configs.Create(ctx, NewConfig{SendToTeachers: &off, SendToAdministrators: &off})
	require.NoError(t, err)

	inc := Incident{TeacherName: "Luis Peña", TeacherEmail: "luis@uni.edu", CourseName: "Cálculo I", ClassDate: time.Now(), Reason: ReasonAbsence}
	assert.Equal(t, OutcomeSkipped, env.Dispatcher.NotifyTeacher(ctx, inc).Outcome)
	assert.Equal(t, OutcomeSkipped, env.Dispatcher.NotifyAdministrator(ctx, inc, "ana@uni.edu").Outcome)
	assert.Empty(t, env.Mailer.SentMessages())

	entries, err := env.History.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "skipped sends are not logged")
}

func TestDispatcher_SendManual(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)

	res := env.Dispatcher.SendManual(ctx, tch.ID, "", "Recuerde registrar la asistencia.")
	assert.Equal(t, ManualResult{Success: true, Message: "notification sent to luis@uni.edu"}, res)

	entries, err := env.History.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonAbsence, entries[0].Reason, "reason defaults to absence")
	assert.Nil(t, entries[0].CourseID)

	res = env.Dispatcher.SendManual(ctx, "65a1b2c3d4e5f6a7b8c9d0e1", ReasonAbsence, "")
	assert.False(t, res.Success)
	assert.Equal(t, "error sending manual notification: teacher 65a1b2c3d4e5f6a7b8c9d0e1 not found", res.Message)

	env.Mailer.FailWith(errors.New("dial tcp: connection refused"))
	res = env.Dispatcher.SendManual(ctx, tch.ID, ReasonUnrecorded, "")
	assert.False(t, res.Success)
	assert.Equal(t, "error sending manual notification: dial tcp: connection refused", res.Message)

	failed, err := env.History.Query(ctx, Filter{Outcome: OutcomeError})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "dial tcp: connection refused", failed[0].ErrorMessage)
}

func TestReplaceVars(t *testing.T) {
	vars := map[string]string{"teacherName": "Ana & Co", "date": "lunes"}

	assert.Equal(t, "Hola Ana &amp; Co, lunes {{unknown}}", ReplaceVars("Hola {{teacherName}}, {{date}} {{unknown}}", vars, true))
	assert.Equal(t, "Hola Ana & Co", ReplaceVars("Hola {{teacherName}}", vars, false))
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "miércoles, 31 de diciembre de 2025", LongDate(time.Date(2025, time.December, 31, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "domingo, 1 de febrero de 2026", LongDate(time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)))
}
