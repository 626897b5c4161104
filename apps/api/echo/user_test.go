package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/user"
	"github.com/uniasistencia/backend/tests"
)

func Test_userApi(t *testing.T) {
	app, env := setup(t)

	admin := testutil.CreateAdministrator(t, env, "Ana Torres", "ana@uni.edu", true)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	sofia := testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")

	adminAcc := user.Account{Role: account.RoleAdministrator, Administrator: &admin}
	teacherAcc := user.Account{Role: account.RoleTeacher, Teacher: &tch}
	studentAcc := user.Account{Role: account.RoleStudent, Student: &sofia}
	adminToken := getToken(t, adminAcc.Principal())
	teacherToken := getToken(t, teacherAcc.Principal())

	badRole := marchallObj(t, httpErr{Error: "invalid role: must be one of administrator, teacher, student"})

	tests := []httpTest{
		{name: "Auth required", path: "/api/users?role=teacher", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Role is required", path: "/api/users", token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "role query parameter is required"}),
		},
		{name: "Unknown role", path: "/api/users?role=dean", token: teacherToken, wantCode: http.StatusBadRequest, wantData: badRole},
		{name: "role=teacher", path: "/api/users?role=teacher", token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, teacherAcc)},
		{name: "role=Student", path: "/api/users?role=Student", token: teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, studentAcc)},
		{name: "Search administrator", path: "/api/users/search/ana@uni.edu", token: teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, adminAcc)},
		{name: "Search student", path: "/api/users/search/SOFIA@uni.edu", token: teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, studentAcc)},
		{
			name: "Search unknown", path: "/api/users/search/nadie@uni.edu", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{name: "Get by role", path: "/api/users/teacher/" + tch.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, teacherAcc)},
		{
			name: "Get from the wrong store", path: "/api/users/student/" + tch.ID, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "Get with unknown role", path: "/api/users/dean/" + tch.ID, token: teacherToken, wantCode: http.StatusBadRequest, wantData: badRole},
		{
			name: "Create requires administrator", method: http.MethodPost, path: "/api/users", token: teacherToken,
			body: []byte(`{"role":"student"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Create student without its fields", method: http.MethodPost, path: "/api/users", token: adminToken,
			body:     []byte(`{"role":"student","name":"Raúl","email":"raul@uni.edu"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_number": "this field is required",
				"career":         "this field is required",
				"semester":       "this field is required",
			}),
		},
		{
			name: "Create teacher with a student's email", method: http.MethodPost, path: "/api/users", token: adminToken,
			body:     []byte(`{"role":"teacher","name":"Pedro Soto","email":"sofia@uni.edu","password":"Zt7&pQ4!rW","national_id":"34567890","department":"Física"}`),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: `email "sofia@uni.edu" is already in use`}),
		},
		{
			name: "Update requires administrator", method: http.MethodPut, path: "/api/users/student/" + sofia.ID, token: teacherToken,
			body: []byte(`{"career":"Física"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run(t, app, tt)
		})
	}

	t.Run("Create student", func(t *testing.T) {
		body := []byte(`{"role":"student","name":"Raúl","email":"Raul@uni.edu","student_number":"A002","career":"Sistemas","semester":2}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/users", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "student", got["role"])
		assert.Equal(t, "raul@uni.edu", got["email"])
		assert.Equal(t, "A002", got["student_number"])
	})

	t.Run("Update and delete student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/users/student/"+sofia.ID, adminToken, []byte(`{"career":"Física"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated, err := env.Students.Get(req.Context(), sofia.ID)
		require.NoError(t, err)
		assert.Equal(t, "Física", updated.Career)

		run(t, app, httpTest{method: http.MethodDelete, path: "/api/users/student/" + sofia.ID, token: adminToken, wantCode: http.StatusNoContent})
		run(t, app, httpTest{
			path: "/api/users/student/" + sofia.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		})
	})
}
