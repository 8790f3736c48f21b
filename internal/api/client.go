// Package api implements the HTTP client for the burger API. Each endpoint is
// one method; the state containers consume them through their own narrow
// interfaces. Responses use the {"success":true,...} envelope of the original
// service, errors carry the body message when there is one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasiliy-maslov/stellar-burgers/internal/auth"
	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
)

var (
	// ErrUnauthorized marks 401/403-class failures. During session bootstrap
	// it means "not logged in", not a fatal error.
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// AuthResult is the login/register response: identity plus both tokens. The
// caller decides where the tokens go (the session flow hands them to the
// credential store).
type AuthResult struct {
	User         model.User
	AccessToken  string
	RefreshToken string
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.Tokens
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens auth.Tokens, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// envelope covers every response shape of the API; unused fields stay zero.
type envelope struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Data         []model.Ingredient `json:"data"`
	User         *model.User        `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	Name         string             `json:"name"`
	Order        *model.Order       `json:"order"`
	Orders       []model.Order      `json:"orders"`
	Total        int                `json:"total"`
	TotalToday   int                `json:"totalToday"`
}

func (c *Client) FetchIngredients(ctx context.Context) ([]model.Ingredient, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/ingredients", nil, false)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false)
	if err != nil {
		return AuthResult{}, err
	}
	return authResult(env)
}

func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", body, false)
	if err != nil {
		return AuthResult{}, err
	}
	return authResult(env)
}

func (c *Client) Logout(ctx context.Context) error {
	refresh, ok := c.tokens.Refresh()
	if !ok {
		return nil
	}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"token": refresh}, false)
	return err
}

func (c *Client) FetchUser(ctx context.Context) (model.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, true)
	if err != nil {
		return model.User{}, err
	}
	if env.User == nil {
		return model.User{}, fmt.Errorf("api: user missing in response")
	}
	return *env.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, name, email, password string) (model.User, error) {
	body := map[string]string{"name": name, "email": email}
	if password != "" {
		body["password"] = password
	}
	env, err := c.do(ctx, http.MethodPatch, "/api/auth/user", body, true)
	if err != nil {
		return model.User{}, err
	}
	if env.User == nil {
		return model.User{}, fmt.Errorf("api: user missing in response")
	}
	return *env.User, nil
}

func (c *Client) SubmitOrder(ctx context.Context, ingredientIDs []string) (model.Order, error) {
	body := map[string][]string{"ingredients": ingredientIDs}
	env, err := c.do(ctx, http.MethodPost, "/api/orders", body, true)
	if err != nil {
		return model.Order{}, err
	}
	if env.Order == nil {
		return model.Order{}, fmt.Errorf("api: order missing in response")
	}
	return *env.Order, nil
}

func (c *Client) FetchOrderByNumber(ctx context.Context, number int) (model.Order, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/orders/"+strconv.Itoa(number), nil, false)
	if err != nil {
		return model.Order{}, err
	}
	if len(env.Orders) == 0 {
		return model.Order{}, ErrNotFound
	}
	return env.Orders[0], nil
}

func (c *Client) FetchFeed(ctx context.Context) (model.FeedSnapshot, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/orders/all", nil, false)
	if err != nil {
		return model.FeedSnapshot{}, err
	}
	return model.FeedSnapshot{Orders: env.Orders, Total: env.Total, TotalToday: env.TotalToday}, nil
}

func (c *Client) FetchUserOrders(ctx context.Context) ([]model.Order, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/orders", nil, true)
	if err != nil {
		return nil, err
	}
	return env.Orders, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/password-reset", map[string]string{"email": email}, false)
	return err
}

func (c *Client) ResetPassword(ctx context.Context, password, token string) error {
	body := map[string]string{"password": password, "token": token}
	_, err := c.do(ctx, http.MethodPost, "/api/password-reset/reset", body, false)
	return err
}

func authResult(env *envelope) (AuthResult, error) {
	if env.User == nil {
		return AuthResult{}, fmt.Errorf("api: user missing in response")
	}
	return AuthResult{
		User:         *env.User,
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
	}, nil
}

// do performs one request. Authorized requests attach the access token; when
// it is missing, expired or rejected, the token pair is refreshed once and the
// request replayed — the original client's fetchWithRefresh behavior.
func (c *Client) do(ctx context.Context, method, path string, body any, authorized bool) (*envelope, error) {
	if !authorized {
		return c.roundTrip(ctx, method, path, body, "")
	}

	access, ok := c.tokens.Access()
	if !ok {
		if err := c.refreshTokens(ctx); err != nil {
			return nil, err
		}
		access, _ = c.tokens.Access()
	}

	env, err := c.roundTrip(ctx, method, path, body, access)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return env, err
	}

	if err := c.refreshTokens(ctx); err != nil {
		return nil, err
	}
	access, _ = c.tokens.Access()
	return c.roundTrip(ctx, method, path, body, access)
}

func (c *Client) refreshTokens(ctx context.Context) error {
	refresh, ok := c.tokens.Refresh()
	if !ok {
		return ErrUnauthorized
	}

	env, err := c.roundTrip(ctx, http.MethodPost, "/api/auth/token", map[string]string{"token": refresh}, "")
	if err != nil {
		return err
	}
	if saveErr := c.tokens.Save(env.AccessToken, env.RefreshToken); saveErr != nil {
		c.log.Warn().Err(saveErr).Msg("api: failed to persist refreshed tokens")
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, access string) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		if !strings.HasPrefix(access, "Bearer ") {
			access = "Bearer " + access
		}
		req.Header.Set("Authorization", access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, envMessage(&env, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= 400:
		return nil, errors.New(envMessage(&env, resp.StatusCode))
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("api: failed to decode response: %w", decodeErr)
	}
	if !env.Success {
		return nil, errors.New(envMessage(&env, resp.StatusCode))
	}
	return &env, nil
}

func envMessage(env *envelope, status int) string {
	if env != nil && env.Message != "" {
		return env.Message
	}
	return http.StatusText(status)
}
