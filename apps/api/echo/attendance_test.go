package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/user"
	"github.com/uniasistencia/backend/tests"
)

func Test_attendanceApi(t *testing.T) {
	app, env := setup(t)

	luis := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	marta := testutil.CreateTeacher(t, env, "Marta Gil", "marta@uni.edu", "23456789", true)
	sofia := testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")
	calc := testutil.CreateCourse(t, env, "Cálculo I", "MAT101", luis.ID)
	alg := testutil.CreateCourse(t, env, "Álgebra", "MAT102", marta.ID)
	calcMonday := testutil.CreateRecord(t, env, luis.ID, calc.ID, "2026-10-12", "08:00", "10:00", attendance.StatusPending)
	algMonday := testutil.CreateRecord(t, env, marta.ID, alg.ID, "2026-10-12", "10:00", "12:00", attendance.StatusFinalized)

	teacherToken := getToken(t, user.Account{Role: account.RoleTeacher, Teacher: &luis}.Principal())
	studentToken := getToken(t, user.Account{Role: account.RoleStudent, Student: &sofia}.Principal())

	newRecord := func(date string) []byte {
		return marchallObj(t, attendance.NewRecord{
			TeacherID: luis.ID, CourseID: calc.ID, Date: date, StartTime: "08:00", EndTime: "10:00",
		})
	}

	tests := []httpTest{
		{name: "Auth required", path: "/api/attendance", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "List", path: "/api/attendance", token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, calcMonday, algMonday)},
		{name: "By teacher", path: "/api/attendance/teacher/" + marta.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, algMonday)},
		{name: "By course", path: "/api/attendance/course/" + calc.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, calcMonday)},
		{name: "Retrieve", path: "/api/attendance/" + calcMonday.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, calcMonday)},
		{
			name: "Retrieve unknown", path: "/api/attendance/65a1b2c3d4e5f6a7b8c9d0e1", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "attendance record not found"}),
		},
		{
			name: "Students cannot create", method: http.MethodPost, path: "/api/attendance", token: studentToken,
			body: newRecord("2026-10-13"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Create with invalid date", method: http.MethodPost, path: "/api/attendance", token: teacherToken,
			body: newRecord("13/10/2026"), wantCode: http.StatusBadRequest,
		},
		{
			name: "Create twice on the same day", method: http.MethodPost, path: "/api/attendance", token: teacherToken,
			body: newRecord("2026-10-12"), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: `date "2026-10-12" is already in use`}),
		},
		{
			name: "Students cannot finalize", method: http.MethodPut, path: "/api/attendance/" + calcMonday.ID + "/finalize", token: studentToken,
			body: []byte(`{"present_students":[]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Finalize with a malformed student id", method: http.MethodPut, path: "/api/attendance/" + calcMonday.ID + "/finalize", token: teacherToken,
			body: []byte(`{"present_students":["s-001"]}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"present_students[0]": "present_students[0] must be a valid id"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run(t, app, tt)
		})
	}

	t.Run("Create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance", teacherToken, newRecord("2026-10-13"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got attendance.Record
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, attendance.StatusPending, got.Status)
		assert.Equal(t, []string{}, got.PresentStudents)
		assert.Equal(t, "2026-10-13", got.Date.Format("2006-01-02"))
		require.NotNil(t, got.Course)
		assert.Equal(t, "Cálculo I", got.Course.Name)
	})

	t.Run("Finalize", func(t *testing.T) {
		body := marchallObj(t, attendance.Finalize{PresentStudents: []string{sofia.ID}})
		req, rec := newAuthRequest(http.MethodPut, "/api/attendance/"+calcMonday.ID+"/finalize", teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got attendance.Record
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, attendance.StatusFinalized, got.Status)
		assert.Equal(t, []string{sofia.ID}, got.PresentStudents)

		entries, err := env.History.Query(context.Background(), notification.Filter{Kind: notification.KindAttendanceRecorded})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, luis.ID, *entries[0].TeacherID)
		assert.Equal(t, calc.ID, *entries[0].CourseID)
		assert.Equal(t, "Cálculo I", entries[0].CourseName)
		assert.Equal(t, "luis@uni.edu", entries[0].RecipientEmail)
	})

	t.Run("Delete", func(t *testing.T) {
		run(t, app, httpTest{method: http.MethodDelete, path: "/api/attendance/" + algMonday.ID, token: teacherToken, wantCode: http.StatusNoContent})
		run(t, app, httpTest{path: "/api/attendance/course/" + alg.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t)})
	})
}
