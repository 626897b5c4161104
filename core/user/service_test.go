package user_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/core/user"
	"github.com/uniasistencia/backend/tests"
)

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	admin := testutil.CreateAdministrator(t, env, "Ana Torres", "ana@uni.edu", true)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	testutil.CreateTeacher(t, env, "Old Timer", "old@uni.edu", "87654321", false)
	testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")

	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
		wantRole account.Role
	}{
		{name: "administrator", email: "ana@uni.edu", password: testutil.Password, wantID: admin.ID, wantRole: account.RoleAdministrator},
		{name: "teacher with messy email", email: " LUIS@uni.edu", password: testutil.Password, wantID: tch.ID, wantRole: account.RoleTeacher},
		{name: "wrong password", email: "luis@uni.edu", password: "nope"},
		{name: "inactive", email: "old@uni.edu", password: testutil.Password},
		{name: "student", email: "sofia@uni.edu", password: testutil.Password},
		{name: "unknown", email: "who@uni.edu", password: testutil.Password},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := env.Users.Authenticate(ctx, tt.email, tt.password)
			if tt.wantID == "" {
				assert.Equal(t, core.ErrUnauthorized, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, acc.ID())
			assert.Equal(t, tt.wantRole, acc.Role)
		})
	}
}

func TestService_emailUniqueness(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")
	testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)

	for _, role := range account.Roles {
		t.Run(role.String(), func(t *testing.T) {
			_, err := env.Users.Create(ctx, user.NewAccount{
				Role:          role.String(),
				Name:          "Pedro Soto",
				Email:         "sofia@uni.edu",
				Password:      "Zt7&pQ4!rW",
				NationalID:    "34567890",
				Department:    "Física",
				StudentNumber: "A009",
				Career:        "Física",
				Semester:      1,
			})
			require.Error(t, err)
			assert.True(t, core.IsConflict(err))
			assert.Equal(t, `email "sofia@uni.edu" is already in use`, err.Error())
		})
	}

	t.Run("own email is not a conflict", func(t *testing.T) {
		luis, err := env.Users.FindByEmail(ctx, "luis@uni.edu")
		require.NoError(t, err)
		email := "luis@uni.edu"
		_, err = env.Users.Update(ctx, account.RoleTeacher, luis.ID(), user.UpdateAccount{Email: &email})
		assert.NoError(t, err)
	})
}

func TestService_FindByEmail(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	s := testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")

	acc, err := env.Users.FindByEmail(ctx, "Sofia@UNI.edu")
	require.NoError(t, err)
	assert.Equal(t, account.RoleStudent, acc.Role)
	assert.Equal(t, s.ID, acc.ID())

	_, err = env.Users.FindByEmail(ctx, "nadie@uni.edu")
	assert.True(t, core.IsNotFound(err))
}

func TestAccount_MarshalJSON(t *testing.T) {
	tch := teacher.Teacher{ID: "65a1b2c3d4e5f6a7b8c9d0e1", Name: "Luis Peña", Email: "luis@uni.edu", PasswordHash: []byte("secret")}
	data, err := json.Marshal(user.Account{Role: account.RoleTeacher, Teacher: &tch})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "teacher", got["role"])
	assert.Equal(t, "luis@uni.edu", got["email"])
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, got, "password_hash")
}
