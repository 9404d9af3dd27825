// Package gotrue implements ports.IdentityStore against a hosted GoTrue
// (Supabase Auth) instance.
package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// usersPerPage is the page size requested from /admin/users.
const usersPerPage = 50

// Options configures the GoTrue client.
type Options struct {
	BaseURL string
	AnonKey string
	// ServiceKey authorizes admin calls (invite, list users).
	ServiceKey string
	Timeout    time.Duration
}

// Client talks to the GoTrue REST API.
type Client struct {
	http       *resty.Client
	anonKey    string
	serviceKey string
	log        zerolog.Logger
	now        func() time.Time
}

var _ ports.IdentityStore = (*Client)(nil)

func New(opts Options, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", opts.AnonKey)

	return &Client{
		http:       client,
		anonKey:    opts.AnonKey,
		serviceKey: opts.ServiceKey,
		log:        log,
		now:        time.Now,
	}
}

type userResponse struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	CreatedAt        time.Time      `json:"created_at"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	Identities       []struct {
		Provider string `json:"provider"`
	} `json:"identities"`
}

type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
}

type usersResponse struct {
	Users []userResponse `json:"users"`
}

// errorResponse covers both the current and the legacy GoTrue error shapes.
type errorResponse struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Account, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"email": email, "password": password, "data": metadata}).
		Post("/signup")
	if err := c.check("signup", resp, err); err != nil {
		return nil, err
	}

	// With email confirmation on GoTrue returns the bare user; with
	// auto-confirm it returns a session wrapping the user.
	raw := resp.Body()
	var user userResponse
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, domain.NewBackendError(fmt.Errorf("decode signup: %w", err))
	}
	if user.ID == "" {
		var session sessionResponse
		if err := json.Unmarshal(raw, &session); err != nil || session.User == nil {
			return nil, domain.NewBackendError(errors.New("decode signup: unexpected response"))
		}
		user = *session.User
	}
	account := user.toDomain()
	return &account, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthGrant, error) {
	var session sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&session).
		Post("/token")
	if err := c.check("sign in", resp, err); err != nil {
		return nil, err
	}
	return c.grant(session)
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	return c.check("sign out", resp, err)
}

func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("redirect_to", redirectTo).
		SetBody(map[string]any{"email": email, "create_user": false}).
		Post("/otp")
	return c.check("send magic link", resp, err)
}

// SetSession validates the access token, falling back to a refresh when the
// access token is rejected and a refresh token is available.
func (c *Client) SetSession(ctx context.Context, tokens domain.Tokens) (*domain.AuthGrant, error) {
	account, err := c.GetUser(ctx, tokens.AccessToken)
	if err == nil {
		return &domain.AuthGrant{Tokens: tokens, Account: *account}, nil
	}
	if domain.KindOf(err) != domain.KindAuthentication || tokens.RefreshToken == "" {
		return nil, err
	}

	var session sessionResponse
	resp, rerr := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": tokens.RefreshToken}).
		SetResult(&session).
		Post("/token")
	if rerr := c.check("refresh session", resp, rerr); rerr != nil {
		return nil, rerr
	}
	return c.grant(session)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	if accessToken == "" {
		return nil, domain.NewAuthenticationError(domain.MsgNoSession)
	}
	var user userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		Get("/user")
	if err := c.check("get user", resp, err); err != nil {
		return nil, err
	}
	account := user.toDomain()
	return &account, nil
}

// ResolveFragment reads the implicit-grant tokens GoTrue appends to the
// redirect URL after a magic link is followed.
func (c *Client) ResolveFragment(ctx context.Context, fragment string) (*domain.AuthGrant, bool, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return nil, false, nil
	}
	access := values.Get("access_token")
	if access == "" {
		return nil, false, nil
	}

	tokens := domain.Tokens{
		AccessToken:  access,
		RefreshToken: values.Get("refresh_token"),
		ExpiresAt:    c.expiry(parseInt(values.Get("expires_at")), parseInt(values.Get("expires_in"))),
	}
	account, err := c.GetUser(ctx, access)
	if err != nil {
		return nil, false, err
	}
	return &domain.AuthGrant{Tokens: tokens, Account: *account}, true, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*domain.Account, error) {
	var user userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{"password": password}).
		SetResult(&user).
		Put("/user")
	if err := c.check("update password", resp, err); err != nil {
		return nil, err
	}
	account := user.toDomain()
	return &account, nil
}

// InviteByEmail asks GoTrue to create the account and mail the invitation.
// GoTrue does not return the link, so ActionLink is empty.
func (c *Client) InviteByEmail(ctx context.Context, email, redirectTo string, metadata map[string]string) (*ports.InviteResult, error) {
	var user userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.adminToken()).
		SetQueryParam("redirect_to", redirectTo).
		SetBody(map[string]any{"email": email, "data": metadata}).
		SetResult(&user).
		Post("/invite")
	if err := c.check("invite", resp, err); err != nil {
		return nil, err
	}
	return &ports.InviteResult{Account: user.toDomain()}, nil
}

// ListUsers walks every page of /admin/users. GoTrue advertises further
// pages with a rel="next" Link header and the total in X-Total-Count.
func (c *Client) ListUsers(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	for page := 1; ; page++ {
		var out usersResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.adminToken()).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("per_page", strconv.Itoa(usersPerPage)).
			SetResult(&out).
			Get("/admin/users")
		if err := c.check("list users", resp, err); err != nil {
			return nil, err
		}
		for _, u := range out.Users {
			accounts = append(accounts, u.toDomain())
		}
		if len(out.Users) == 0 || !hasNextPage(resp.Header(), len(accounts)) {
			return accounts, nil
		}
	}
}

// hasNextPage prefers the Link header and falls back to X-Total-Count.
func hasNextPage(h http.Header, seen int) bool {
	for _, link := range h.Values("Link") {
		if strings.Contains(link, `rel="next"`) {
			return true
		}
	}
	if total, err := strconv.Atoi(h.Get("X-Total-Count")); err == nil {
		return seen < total
	}
	return false
}

func (c *Client) adminToken() string {
	if c.serviceKey != "" {
		return c.serviceKey
	}
	return c.anonKey
}

func (c *Client) grant(session sessionResponse) (*domain.AuthGrant, error) {
	if session.AccessToken == "" || session.User == nil {
		return nil, domain.NewAuthenticationError(domain.MsgNoSession)
	}
	return &domain.AuthGrant{
		Tokens: domain.Tokens{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			ExpiresAt:    c.expiry(session.ExpiresAt, session.ExpiresIn),
		},
		Account: session.User.toDomain(),
	}, nil
}

func (c *Client) expiry(expiresAt, expiresIn int64) time.Time {
	switch {
	case expiresAt > 0:
		return time.Unix(expiresAt, 0).UTC()
	case expiresIn > 0:
		return c.now().UTC().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}

// check turns a transport failure or a non-2xx response into a *domain.Error.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("identity store unreachable")
		return domain.NewBackendError(fmt.Errorf("%s: %w", op, err))
	}
	if !resp.IsError() {
		return nil
	}
	mapped := mapError(resp.StatusCode(), resp.Body())
	if domain.KindOf(mapped) == domain.KindBackend {
		c.log.Error().Int("status", resp.StatusCode()).Str("op", op).Msg(mapped.Error())
	}
	return mapped
}

func mapError(status int, body []byte) error {
	var e errorResponse
	_ = json.Unmarshal(body, &e)
	msg := firstNonEmpty(e.Msg, e.Message, e.ErrorDescription, e.Error, http.StatusText(status))

	switch {
	case e.ErrorCode == domain.ErrorCodeOTPExpired:
		return domain.NewLinkExpiredError(domain.MsgLinkExpired)
	case e.ErrorCode == "invalid_credentials" || e.Error == "invalid_grant":
		return domain.NewAuthenticationError(msg)
	case e.ErrorCode == "user_already_exists" || e.ErrorCode == "email_exists":
		return domain.NewValidationError(msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewAuthenticationError(msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.NewValidationError(msg)
	}
	return domain.NewBackendError(errors.New(msg))
}

func (u userResponse) toDomain() domain.Account {
	meta := make(map[string]string, len(u.UserMetadata))
	for k, v := range u.UserMetadata {
		if s, ok := v.(string); ok {
			meta[k] = s
			continue
		}
		meta[k] = fmt.Sprint(v)
	}
	hasPassword := false
	for _, id := range u.Identities {
		if id.Provider == "email" {
			hasPassword = true
		}
	}
	return domain.Account{
		ID:               u.ID,
		Email:            u.Email,
		HasPassword:      hasPassword,
		Metadata:         meta,
		CreatedAt:        u.CreatedAt,
		LastSignInAt:     u.LastSignInAt,
		EmailConfirmedAt: u.EmailConfirmedAt,
	}
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
