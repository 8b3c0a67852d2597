package user

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	timeout := 3 * 24 * time.Hour
	now := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	tg := newTokenGenerator("secret", timeout, clock)

	usr := User{
		ID:        "5e0f7fd4-7b0c-4b57-8a3e-3f4d2b3c9a10",
		Username:  "t",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	require.NoError(t, usr.SetPassword("pwd"))

	validToken := tg.makeToken(usr)

	// generate an expired token
	dayLate := timeout + (24 * time.Hour)
	expiredToken := newTokenGenerator("secret", timeout, clockwork.NewFakeClockAt(now.Add(-dayLate))).makeToken(usr)
	otherKeyToken := newTokenGenerator("other", timeout, clock).makeToken(usr)

	// password changed after the token was issued
	changedUsr := usr
	require.NoError(t, changedUsr.SetPassword("new-pwd"))

	// logged in after the token was issued
	loggedInUsr := usr
	loggedInUsr.LastLogin = now.Add(time.Hour)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "other secret key", usr: usr, token: otherKeyToken, wantErr: errInvalidToken},
		{name: "password changed", usr: changedUsr, token: validToken, wantErr: errInvalidToken},
		{name: "logged in since", usr: loggedInUsr, token: validToken, wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tg.verifyToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "5e0f7fd4-7b0c-4b57-8a3e-3f4d2b3c9a10"}

	id, err := decodeUID(EncodeUID(usr))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("not base64 !")
	assert.Error(t, err)
}
