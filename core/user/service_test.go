package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	emailsvc "github.com/trezcool/campus/services/email"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

const pwd = "Tr0ub4dor&3"

func newTestService(t *testing.T, conf *core.Config) (user.Service, user.Repository) {
	t.Helper()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.Logger())
	emailsvc.ClearSentMessages()
	return user.NewService(conf, repo, mailSvc, testutil.Clock()), repo
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	conf := testutil.Config()
	svc, _ := newTestService(t, conf)

	usr, err := svc.Register(ctx, user.NewUser{Username: "kim", Email: "kim@campus.test", Password: pwd})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(pwd))

	t.Run("uniqueness", func(t *testing.T) {
		err := svc.CheckUniqueness(ctx, "kim", "other@campus.test")
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "username", vErr.Fields[0].Field)

		err = svc.CheckUniqueness(ctx, "other", "kim@campus.test")
		vErr, ok = errors.Cause(err).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "email", vErr.Fields[0].Field)

		assert.NoError(t, svc.CheckUniqueness(ctx, "kim", "kim@campus.test", usr), "excluded user")
	})

	t.Run("admin signup", func(t *testing.T) {
		_, err := svc.Register(ctx, user.NewUser{Username: "boss", Email: "boss@campus.test", Password: pwd, Role: user.RoleAdmin})
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "role", vErr.Fields[0].Field)

		conf := testutil.Config()
		conf.AllowAdminSignup = true
		svc, _ := newTestService(t, conf)
		boss, err := svc.Register(ctx, user.NewUser{Username: "boss", Email: "boss@campus.test", Password: pwd, Role: user.RoleAdmin})
		require.NoError(t, err)
		assert.True(t, boss.IsAdmin())
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, testutil.Config())
	usr := testutil.CreateUser(t, repo, "kim", pwd, user.RoleStudent)
	inactive := testutil.CreateUser(t, repo, "gone", pwd, user.RoleStudent)
	inactive.IsActive = false
	_, err := repo.UpdateUser(ctx, inactive)
	require.NoError(t, err)

	tests := []struct {
		name    string
		login   string
		pwd     string
		wantErr error
	}{
		{name: "username", login: "kim", pwd: pwd},
		{name: "email any case", login: " KIM@campus.test ", pwd: pwd},
		{name: "wrong password", login: "kim", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "unknown user", login: "nobody", pwd: pwd, wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", login: "gone", pwd: pwd, wantErr: user.ErrAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.login, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
			assert.Equal(t, testutil.Epoch, got.LastLogin)
		})
	}
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, testutil.Config())
	usr := testutil.CreateUser(t, repo, "kim", pwd, user.RoleStudent)

	assert.True(t, core.IsNotFound(svc.RequestPasswordReset(ctx, "nobody@campus.test")))
	assert.Empty(t, emailsvc.SentMessages)

	require.NoError(t, svc.RequestPasswordReset(ctx, "kim@campus.test"))
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "kim@campus.test", msg.To[0].Address)
	tplData, _ := msg.TemplateData.(map[string]interface{})
	uid, _ := tplData["UID"].(string)
	token, _ := tplData["Token"].(string)
	assert.Equal(t, user.EncodeUID(usr), uid)

	newPwd := "C0rrect-H0rse"
	tests := []struct {
		name    string
		data    user.ResetUserPassword
		wantErr error
	}{
		{name: "bad uid", data: user.ResetUserPassword{UID: "%%%", Token: token, Password: newPwd}, wantErr: user.ErrInvalidResetLink},
		{name: "unknown uid", data: user.ResetUserPassword{UID: "dW5rbm93bg", Token: token, Password: newPwd}, wantErr: user.ErrInvalidResetLink},
		{name: "bad token", data: user.ResetUserPassword{UID: uid, Token: "abc-def", Password: newPwd}, wantErr: user.ErrInvalidResetLink},
		{name: "valid", data: user.ResetUserPassword{UID: uid, Token: token, Password: newPwd}},
		{name: "token used", data: user.ResetUserPassword{UID: uid, Token: token, Password: "An0ther-0ne"}, wantErr: user.ErrInvalidResetLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tt.data)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	_, err := svc.Authenticate(ctx, "kim", newPwd)
	assert.NoError(t, err)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, testutil.Config())
	testutil.CreateUser(t, repo, "zed", "", user.RoleStudent)
	testutil.CreateUser(t, repo, "amy", "", user.RoleAdmin, testutil.Epoch.Add(time.Hour))

	list, err := svc.Query(ctx, user.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amy", list[0].Username, "username order by default")

	list, err = svc.Query(ctx, user.QueryFilter{}, core.DBOrdering{Field: "created_at"})
	require.NoError(t, err)
	assert.Equal(t, "amy", list[0].Username, "newest first")

	list, err = svc.Query(ctx, user.QueryFilter{Search: "ZE"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "zed", list[0].Username)
}
