package client

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/user"
)

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token string       `json:"token"`
		User  user.Profile `json:"user"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}

	userResponse struct {
		User user.Profile `json:"user"`
	}

	emailRequest struct {
		Email string `json:"email"`
	}

	successResponse struct {
		Success string `json:"success"`
	}

	// UserQuery filters the admin users listing.
	UserQuery struct {
		Search   string
		Role     string
		IsActive *bool
		Ordering string
	}
)

// Login authenticates with a username or an email and stores the token.
func (c *Client) Login(ctx context.Context, login, pwd string) (user.Profile, error) {
	var resp loginResponse
	if err := c.post(ctx, "/auth/login", loginRequest{Email: login, Password: pwd}, &resp); err != nil {
		return user.Profile{}, err
	}
	if err := c.tokens.SetToken(resp.Token); err != nil {
		return user.Profile{}, errors.Wrap(err, "storing token")
	}
	return resp.User, nil
}

func (c *Client) Register(ctx context.Context, nu user.NewUser) (user.Profile, error) {
	if err := checkRegistration(nu); err != nil {
		return user.Profile{}, err
	}
	var resp userResponse
	err := c.post(ctx, "/auth/register", nu, &resp)
	return resp.User, err
}

func (c *Client) Me(ctx context.Context) (user.Profile, error) {
	var resp userResponse
	err := c.get(ctx, "/auth/me", nil, &resp)
	return resp.User, err
}

// RefreshToken swaps the stored token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context) error {
	var resp tokenResponse
	if err := c.post(ctx, "/auth/token-refresh", nil, &resp); err != nil {
		return err
	}
	return errors.Wrap(c.tokens.SetToken(resp.Token), "storing token")
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var resp successResponse
	err := c.post(ctx, "/auth/password-reset", emailRequest{Email: email}, &resp)
	return resp.Success, err
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, data user.ResetUserPassword) (string, error) {
	var resp successResponse
	err := c.post(ctx, "/auth/password-reset-confirm", data, &resp)
	return resp.Success, err
}

// Users lists the users. Admin only.
func (c *Client) Users(ctx context.Context, q UserQuery) ([]user.User, error) {
	params := queryParams("search", q.Search, "role", q.Role, "ordering", q.Ordering)
	if q.IsActive != nil {
		if params == nil {
			params = map[string]string{}
		}
		params["isActive"] = strconv.FormatBool(*q.IsActive)
	}
	var users []user.User
	err := c.get(ctx, "/users", params, &users)
	return users, err
}

// Session tracks the signed in user of a Client.
type Session struct {
	client *Client

	mu   sync.RWMutex
	user *user.Profile
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

func (s *Session) Client() *Client { return s.client }

func (s *Session) Login(ctx context.Context, login, pwd string) (user.Profile, error) {
	usr, err := s.client.Login(ctx, login, pwd)
	if err != nil {
		return user.Profile{}, err
	}
	s.setUser(&usr)
	return usr, nil
}

// Register creates the account then signs in with it.
func (s *Session) Register(ctx context.Context, nu user.NewUser) (user.Profile, error) {
	if _, err := s.client.Register(ctx, nu); err != nil {
		return user.Profile{}, err
	}
	return s.Login(ctx, nu.Username, nu.Password)
}

// RefreshUser reloads the signed in user. The session is dropped when the token is rejected.
func (s *Session) RefreshUser(ctx context.Context) (user.Profile, error) {
	usr, err := s.client.Me(ctx)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
			_ = s.Logout()
		}
		return user.Profile{}, err
	}
	s.setUser(&usr)
	return usr, nil
}

func (s *Session) Logout() error {
	s.setUser(nil)
	return s.client.tokens.Clear()
}

// User returns the signed in user, if any.
func (s *Session) User() (user.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return user.Profile{}, false
	}
	return *s.user, true
}

func (s *Session) IsAdmin() bool {
	usr, ok := s.User()
	return ok && usr.IsAdmin()
}

func (s *Session) setUser(usr *user.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = usr
}
