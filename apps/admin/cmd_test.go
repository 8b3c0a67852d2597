package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

const strongPwd = "Tr0ub4dor&3"

func setup(t *testing.T) (*commandLine, user.Repository) {
	t.Helper()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return &commandLine{
		usrRepo:    repo,
		validate:   testutil.Validator(),
		translator: core.NewTranslator(),
		out:        io.Discard,
	}, repo
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.wantErrStr)
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	orig := gooseRunFunc
	gooseRunFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}
	t.Cleanup(func() { gooseRunFunc = orig })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(context.Background(), append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repo := setup(t)
	existing := testutil.CreateUser(t, repo, "kim", "", user.RoleStudent)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "joe"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "joe", "-email", "joe@campus.test"}, wantErr: errHelp},
		{name: "bad username", args: []string{"adduser", "-username", "jo e", "-email", "joe@campus.test"}, pwd: strongPwd, wantErrStr: "username"},
		{name: "weak password", args: []string{"adduser", "-username", "joe", "-email", "joe@campus.test"}, pwd: "12345678", wantErrStr: "password cannot be entirely numeric"},
		{name: "create student", args: []string{"adduser", "-username", "Joe", "-email", "JOE@campus.test"}, pwd: strongPwd},
		{name: "create admin", args: []string{"adduser", "-username", "boss", "-email", "boss@campus.test", "-admin"}, pwd: strongPwd},
		{name: "promote existing", args: []string{"adduser", "-username", "kim", "-email", "kim@campus.test", "-admin"}, pwd: strongPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			tt.check(t, cli.run(context.Background(), append([]string{"admin"}, tt.args...)))
		})
	}

	ctx := context.Background()

	joe, err := repo.GetUser(ctx, user.GetFilter{Username: "joe"})
	require.NoError(t, err)
	assert.Equal(t, "joe@campus.test", joe.Email)
	assert.Equal(t, user.RoleStudent, joe.Role)
	assert.True(t, joe.IsActive)
	assert.NoError(t, joe.CheckPassword(strongPwd))

	boss, err := repo.GetUser(ctx, user.GetFilter{Username: "boss"})
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())

	kim, err := repo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.True(t, kim.IsAdmin())
	assert.NoError(t, kim.CheckPassword(strongPwd))

	_, err = repo.GetUser(ctx, user.GetFilter{Username: "jo e"})
	assert.True(t, core.IsNotFound(err))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repo := setup(t)
	usr := testutil.CreateUser(t, repo, "awe", "Old-Pa55word!", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: strongPwd, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-username", usr.Username}, pwd: "short", wantErrStr: "password must contain at least 8 characters"},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: strongPwd},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "N3w-Secret-Phrase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			before, err := repo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)

			err = cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			tt.check(t, err)

			after, gErr := repo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, gErr)
			if err == nil {
				assert.False(t, bytes.Equal(before.PasswordHash, after.PasswordHash), "password not updated")
				assert.NoError(t, after.CheckPassword(tt.pwd))
			} else {
				assert.Equal(t, before.PasswordHash, after.PasswordHash)
			}
		})
	}
}
