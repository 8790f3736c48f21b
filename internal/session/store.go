// Package session holds authentication state: the current user identity, the
// one-shot authentication-checked latch and the independent login and
// registration flows. Token persistence is delegated to the auth package.
package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/stellar-burgers/internal/api"
	"github.com/vasiliy-maslov/stellar-burgers/internal/auth"
	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
	"github.com/vasiliy-maslov/stellar-burgers/internal/store"
)

const (
	DefaultLoginError    = "Ошибка входа"
	DefaultRegisterError = "Ошибка регистрации"
)

type API interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, name, email, password string) (api.AuthResult, error)
	FetchUser(ctx context.Context) (model.User, error)
	Logout(ctx context.Context) error
}

type State struct {
	User            *model.User
	IsAuthenticated bool
	IsAuthChecked   bool
	LoginRequest    bool
	LoginErr        string
	RegisterRequest bool
	RegisterErr     string
}

type Store struct {
	bus    *store.Bus
	api    API
	tokens auth.Tokens

	user            *model.User
	isAuthenticated bool
	isAuthChecked   bool
	loginRequest    bool
	loginErr        string
	registerRequest bool
	registerErr     string
}

func New(bus *store.Bus, api API, tokens auth.Tokens) *Store {
	return &Store{bus: bus, api: api, tokens: tokens}
}

// Bootstrap runs once per application load. With no persisted refresh token
// there is nothing to check and the latch closes immediately; otherwise the
// current user is fetched and the latch closes on either outcome.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, ok := s.tokens.Refresh(); !ok {
		s.bus.Dispatch("user/setAuthChecked", func() {
			s.isAuthChecked = true
		})
		return nil
	}
	return s.fetchUser(ctx)
}

func (s *Store) fetchUser(ctx context.Context) error {
	user, err := s.api.FetchUser(ctx)
	if err != nil {
		// 401-class here means a stale session, not a fatal error. Drop the
		// dead credentials so the next load skips the round-trip.
		if clearErr := s.tokens.Clear(); clearErr != nil {
			log.Warn().Err(clearErr).Msg("session: failed to clear stale credentials")
		}
		s.bus.Dispatch("user/getUser/rejected", func() {
			s.user = nil
			s.isAuthenticated = false
			s.isAuthChecked = true
		})
		if !errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		return nil
	}

	s.bus.Dispatch("user/getUser/fulfilled", func() {
		s.user = &user
		s.isAuthenticated = true
		s.isAuthChecked = true
	})
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	s.bus.Dispatch("user/login/pending", func() {
		s.loginRequest = true
		s.loginErr = ""
	})

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.bus.Dispatch("user/login/rejected", func() {
			s.loginRequest = false
			s.loginErr = store.ErrorText(err, DefaultLoginError)
		})
		return err
	}

	if saveErr := s.tokens.Save(res.AccessToken, res.RefreshToken); saveErr != nil {
		log.Warn().Err(saveErr).Msg("session: failed to persist credentials after login")
	}

	s.bus.Dispatch("user/login/fulfilled", func() {
		s.loginRequest = false
		s.loginErr = ""
		user := res.User
		s.user = &user
		s.isAuthenticated = true
		s.isAuthChecked = true
	})
	return nil
}

// Register mirrors Login with its own request/error pair, so the two flows
// never clobber each other's error text.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.bus.Dispatch("user/register/pending", func() {
		s.registerRequest = true
		s.registerErr = ""
	})

	res, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		s.bus.Dispatch("user/register/rejected", func() {
			s.registerRequest = false
			s.registerErr = store.ErrorText(err, DefaultRegisterError)
		})
		return err
	}

	if saveErr := s.tokens.Save(res.AccessToken, res.RefreshToken); saveErr != nil {
		log.Warn().Err(saveErr).Msg("session: failed to persist credentials after registration")
	}

	s.bus.Dispatch("user/register/fulfilled", func() {
		s.registerRequest = false
		s.registerErr = ""
		user := res.User
		s.user = &user
		s.isAuthenticated = true
		s.isAuthChecked = true
	})
	return nil
}

// Logout drops the identity and stored credentials. The API call is best
// effort: a failed revocation still ends the local session.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("session: logout request failed")
	}
	if err := s.tokens.Clear(); err != nil {
		log.Warn().Err(err).Msg("session: failed to clear credentials")
	}

	s.bus.Dispatch("user/logout", func() {
		s.user = nil
		s.isAuthenticated = false
	})
}

// ClearErrors resets both error fields without touching request flags or
// identity.
func (s *Store) ClearErrors() {
	s.bus.Dispatch("user/clearUserErrors", func() {
		s.loginErr = ""
		s.registerErr = ""
	})
}

func (s *Store) SetUser(user *model.User) {
	s.bus.Dispatch("user/setUser", func() {
		if user == nil {
			s.user = nil
			return
		}
		u := *user
		s.user = &u
	})
}

func (s *Store) SetAuthenticated(v bool) {
	s.bus.Dispatch("user/setAuthenticated", func() {
		s.isAuthenticated = v
	})
}

func (s *Store) SetAuthChecked(v bool) {
	s.bus.Dispatch("user/setAuthChecked", func() {
		s.isAuthChecked = v
	})
}

func (s *Store) Snapshot() State {
	var state State
	s.bus.View(func() {
		state = State{
			IsAuthenticated: s.isAuthenticated,
			IsAuthChecked:   s.isAuthChecked,
			LoginRequest:    s.loginRequest,
			LoginErr:        s.loginErr,
			RegisterRequest: s.registerRequest,
			RegisterErr:     s.registerErr,
		}
		if s.user != nil {
			user := *s.user
			state.User = &user
		}
	})
	return state
}
