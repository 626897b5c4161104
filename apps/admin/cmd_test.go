package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/user"
	"github.com/uniasistencia/backend/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)

	// start CLI
	return &commandLine{
		users:    env.Users,
		admins:   env.Administrators,
		validate: env.Validate,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"adduser", "-name", "Ana Torres"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Ana Torres", "-email", "ana@uni.edu"}, wantErr: errHelp},
		{
			name:       "email taken by a teacher",
			args:       []string{"adduser", "-name", "Ana Torres", "-email", "LUIS@uni.edu"},
			extra:      extra{pwd: "Zt7&pQ4!rW"},
			wantErrStr: `email "luis@uni.edu" is already in use`,
		},
		{name: "create", args: []string{"adduser", "-name", "Ana Torres", "-email", "Ana@uni.edu", "-position", "Decana"}, extra: extra{pwd: "Zt7&pQ4!rW"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}

	acc, err := env.Users.Authenticate(context.Background(), "ana@uni.edu", "Zt7&pQ4!rW")
	if err != nil {
		t.Fatalf("Authenticate() failed, %v", err)
	}
	if acc.Role != account.RoleAdministrator || acc.Administrator.Position != "Decana" {
		t.Errorf("created account = %+v", acc.Administrator)
	}
}

func Test_commandLine_addUser_weakPassword(t *testing.T) {
	cli, _ := setup(t)
	mockPassword(cliTest{extra: extra{pwd: "abc"}})

	err := cli.run([]string{"admin", "adduser", "-name", "Ana Torres", "-email", "ana@uni.edu"})
	if _, ok := err.(validator.ValidationErrors); !ok {
		t.Fatalf("cli.run() error = %v, want validation errors", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)

	adm := testutil.CreateAdministrator(t, env, "Ana Torres", "ana@uni.edu", true)
	tch := testutil.CreateTeacher(t, env, "Luis Peña", "luis@uni.edu", "12345678", true)
	testutil.CreateStudent(t, env, "Sofía Ruiz", "sofia@uni.edu", "A001")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@uni.edu"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@uni.edu"}, extra: extra{pwd: "Zt7&pQ4!rW"}, wantErr: user.ErrNotFound},
		{name: "student", args: []string{"resetpassword", "-email", "sofia@uni.edu"}, extra: extra{pwd: "Zt7&pQ4!rW"}, wantErr: errNoLogin},
		{name: "reset administrator", args: []string{"resetpassword", "-email", adm.Email}, extra: extra{pwd: "Zt7&pQ4!rW"}},
		{name: "reset teacher", args: []string{"resetpassword", "-email", "LUIS@uni.edu"}, extra: extra{pwd: "Hq3$wN8@yB"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	ctx := context.Background()
	refreshedAdm, err := env.Administrators.Get(ctx, adm.ID)
	if err != nil {
		t.Fatalf("Get() failed, %v", err)
	}
	if bytes.Equal(refreshedAdm.PasswordHash, adm.PasswordHash) {
		t.Error("failed to update administrator password")
	}
	if _, err := env.Users.Authenticate(ctx, tch.Email, "Hq3$wN8@yB"); err != nil {
		t.Errorf("Authenticate() with the new teacher password failed, %v", err)
	}
}
