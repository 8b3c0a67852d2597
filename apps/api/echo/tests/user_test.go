package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core/user"
	emailsvc "github.com/trezcool/campus/services/email"
)

const pwdResetSent = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

func profileOf(usr user.User) echoapi.UserResponse {
	return echoapi.UserResponse{User: user.Profile{User: usr, SkillsOffered: []string{}}}
}

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	env.createUser(t, "taken", user.RoleStudent)

	body := func(uname, email, pwd, role string) []byte {
		return marchallObj(t, user.NewUser{Username: uname, Email: email, Password: pwd, Role: role})
	}

	env.run(t, []httpTest{
		{
			name: "username required", method: http.MethodPost, path: "/api/auth/register",
			body: body("", "kim@campus.test", "Tr0ub4dor&3", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "username is a required field"}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/api/auth/register",
			body: body("kim", "kim@campus.test", "12345678", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "username taken", method: http.MethodPost, path: "/api/auth/register",
			body: body("Taken", "kim@campus.test", "Tr0ub4dor&3", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/api/auth/register",
			body: body("kim", "taken@campus.test", "Tr0ub4dor&3", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "admin signup", method: http.MethodPost, path: "/api/auth/register",
			body: body("kim", "kim@campus.test", "Tr0ub4dor&3", user.RoleAdmin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "admin accounts cannot be created by registration"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := env.serve(newAuthRequest(http.MethodPost, "/api/auth/register", "", body(" Kim ", "KIM@campus.test", "Tr0ub4dor&3", "")))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[echoapi.UserResponse](t, rec)
		assert.NotEmpty(t, resp.User.ID)
		assert.Equal(t, "kim", resp.User.Username)
		assert.Equal(t, "kim@campus.test", resp.User.Email)
		assert.Equal(t, user.RoleStudent, resp.User.Role)
		assert.True(t, resp.User.IsActive)
		assert.Equal(t, []string{}, resp.User.SkillsOffered)
	})
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	kim := env.createUser(t, "kim", user.RoleStudent)
	gone := env.createUser(t, "gone", user.RoleStudent)
	gone.IsActive = false
	_, err := env.usrRepo.UpdateUser(context.Background(), gone)
	require.NoError(t, err)

	body := func(login, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: login, Password: pwd})
	}

	env.run(t, []httpTest{
		{
			name: "password required", method: http.MethodPost, path: "/api/auth/login",
			body: body("kim", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password is a required field"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body: body("kim", "nope-nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login",
			body: body("nobody", "Tr0ub4dor&3"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/api/auth/login",
			body: body("gone@campus.test", "Tr0ub4dor&3"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	for _, login := range []string{"kim", "KIM@campus.test"} {
		t.Run("success with "+login, func(t *testing.T) {
			rec := env.serve(newAuthRequest(http.MethodPost, "/api/auth/login", "", body(login, "Tr0ub4dor&3")))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			resp := decode[echoapi.LoginResponse](t, rec)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, kim.ID, resp.User.ID)
			assert.WithinDuration(t, env.clock.Now(), resp.User.LastLogin, 0)

			// the token is usable right away
			rec = env.serve(newAuthRequest(http.MethodGet, "/api/auth/me", resp.Token))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	kim := env.createUser(t, "kim", user.RoleStudent)
	token := env.getToken(t, kim)

	env.run(t, []httpTest{
		{name: "auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/api/auth/me", token: token + "x", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "profile", path: "/api/auth/me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, profileOf(kim))},
	})

	t.Run("expired token", func(t *testing.T) {
		env.clock.Advance(env.conf.Server.JWTExpirationDelta + time.Second)
		rec := env.serve(newAuthRequest(http.MethodGet, "/api/auth/me", token))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	kim := env.createUser(t, "kim", user.RoleStudent)

	staleClaims := echoapi.GetUserClaims(env.conf, env.clock, kim, env.clock.Now().Add(-31*24*time.Hour).Unix())
	stale, err := echoapi.GenerateToken(env.conf, staleClaims)
	require.NoError(t, err)

	env.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{
			name: "refresh expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: stale,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		env.clock.Advance(time.Hour)
		rec := env.serve(newAuthRequest(http.MethodPost, "/api/auth/token-refresh", env.getToken(t, kim)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, decode[echoapi.TokenResponse](t, rec).Token)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	kim := env.createUser(t, "kim", user.RoleStudent)

	env.run(t, []httpTest{
		{
			name: "email required", method: http.MethodPost, path: "/api/auth/password-reset",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email is a required field"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/password-reset",
			body: []byte(`{"email":"nobody@campus.test"}`), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: pwdResetSent}),
		},
	})
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	rec := env.serve(newAuthRequest(http.MethodPost, "/api/auth/password-reset", "", []byte(`{"email":"KIM@campus.test"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	data := msg.TemplateData.(map[string]interface{})
	assert.Equal(t, kim.Email, msg.To[0].Address)

	confirm := func(token, pwd string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: data["UID"].(string), Token: token, Password: pwd, PasswordConfirm: pwd})
	}

	env.run(t, []httpTest{
		{
			name: "bad token", method: http.MethodPost, path: "/api/auth/password-reset-confirm",
			body: confirm("nope-nope", "N3w-passw0rd!"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid password reset link"}),
		},
		{
			name: "confirm", method: http.MethodPost, path: "/api/auth/password-reset-confirm",
			body: confirm(data["Token"].(string), "N3w-passw0rd!"), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "login with the new password", method: http.MethodPost, path: "/api/auth/login",
			body: marchallObj(t, echoapi.LoginRequest{Email: "kim", Password: "N3w-passw0rd!"}), wantCode: http.StatusOK,
		},
	})
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	bob := env.createUser(t, "bob", user.RoleStudent)
	carl := env.createUser(t, "carl", user.RoleStudent)
	carl.IsActive = false
	carl, err := env.usrRepo.UpdateUser(context.Background(), carl)
	require.NoError(t, err)

	adminToken := env.getToken(t, admin)

	env.run(t, []httpTest{
		{name: "auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/users", token: env.getToken(t, bob), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "order by username", path: "/api/users?ordering=username", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, bob, carl),
		},
		{
			name: "order by -username", path: "/api/users?ordering=-username", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, carl, bob, admin),
		},
		{
			name: "role", path: "/api/users?role=student&ordering=username", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, bob, carl),
		},
		{
			name: "isActive", path: "/api/users?isActive=false", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, carl),
		},
		{
			name: "search", path: "/api/users?search=B", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, bob),
		},
		{
			name: "no match", path: "/api/users?search=zed", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList[user.User](t),
		},
		{
			name: "bad isActive", path: "/api/users?isActive=maybe", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"isActive": "must be a boolean"}),
		},
	})
}
