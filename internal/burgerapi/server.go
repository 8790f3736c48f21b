// Package burgerapi is the reference backend for the application core: the
// same wire API the production service speaks, backed by pluggable storage.
// It exists for local development and integration tests — the client never
// depends on it.
package burgerapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
)

type ctxKey int

const accountKey ctxKey = 0

type Server struct {
	storage   Storage
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewServer(storage Storage, secret string, accessTTL time.Duration) *Server {
	return &Server{
		storage:   storage,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/api/ingredients", s.handleIngredients)
	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/token", s.handleRefresh)
	r.Post("/api/auth/logout", s.handleLogout)
	r.Post("/api/password-reset", s.handleForgotPassword)
	r.Post("/api/password-reset/reset", s.handleResetPassword)
	r.Get("/api/orders/all", s.handleFeed)
	r.Get("/api/orders/{number}", s.handleOrderByNumber)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/auth/user", s.handleCurrentUser)
		r.Patch("/api/auth/user", s.handleUpdateUser)
		r.Post("/api/orders", s.handleCreateOrder)
		r.Get("/api/orders", s.handleUserOrders)
	})

	return r
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Email == "" || creds.Password == "" || creds.Name == "" {
		writeError(w, http.StatusForbidden, "Email, password and name are required fields")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to hash password")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	acc := Account{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         creds.Name,
		Email:        creds.Email,
		PasswordHash: string(hash),
	}
	if err := s.storage.CreateAccount(r.Context(), acc); err != nil {
		if errors.Is(err, ErrEmailExists) {
			writeError(w, http.StatusForbidden, "User already exists")
			return
		}
		log.Error().Err(err).Msg("burgerapi: failed to create account")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.issueSession(w, r, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := s.storage.AccountByEmail(r.Context(), creds.Email)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(creds.Password))
	}
	if err != nil {
		writeError(w, http.StatusUnauthorized, "email or password are incorrect")
		return
	}

	s.issueSession(w, r, acc)
}

// issueSession rotates the refresh token, signs a fresh access token and
// writes the auth envelope.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, acc Account) {
	acc.RefreshToken = uuid.Must(uuid.NewV4()).String()
	if err := s.storage.UpdateAccount(r.Context(), acc); err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to store refresh token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	access, err := s.signAccessToken(acc.ID)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to sign access token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user":         model.User{Email: acc.Email, Name: acc.Name},
		"accessToken":  "Bearer " + access,
		"refreshToken": acc.RefreshToken,
	})
}

type refreshRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := s.storage.AccountByRefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusForbidden, "Token is invalid")
		return
	}

	acc.RefreshToken = uuid.Must(uuid.NewV4()).String()
	if err := s.storage.UpdateAccount(r.Context(), acc); err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to rotate refresh token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	access, err := s.signAccessToken(acc.ID)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to sign access token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"accessToken":  "Bearer " + access,
		"refreshToken": acc.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := s.storage.AccountByRefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusForbidden, "Token is invalid")
		return
	}

	acc.RefreshToken = ""
	if err := s.storage.UpdateAccount(r.Context(), acc); err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to drop refresh token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successful logout"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := uuid.Must(uuid.NewV4()).String()
	if err := s.storage.CreateResetCode(r.Context(), req.Email, code); err != nil {
		// Не раскрываем, существует ли такой email.
		log.Debug().Str("email", req.Email).Msg("burgerapi: reset requested for unknown email")
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Reset email sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to hash password")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.storage.ConsumeResetCode(r.Context(), req.Token, string(hash)); err != nil {
		writeError(w, http.StatusNotFound, "Incorrect reset token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password successfully reset"})
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := s.storage.Ingredients(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to list ingredients")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": ingredients})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    model.User{Email: acc.Email, Name: acc.Name},
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc := accountFrom(r.Context())
	if req.Name != "" {
		acc.Name = req.Name
	}
	if req.Email != "" {
		acc.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("burgerapi: failed to hash password")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		acc.PasswordHash = string(hash)
	}

	if err := s.storage.UpdateAccount(r.Context(), acc); err != nil {
		if errors.Is(err, ErrEmailExists) {
			writeError(w, http.StatusForbidden, "User with this email already exists")
			return
		}
		log.Error().Err(err).Msg("burgerapi: failed to update account")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    model.User{Email: acc.Email, Name: acc.Name},
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Ingredients) == 0 {
		writeError(w, http.StatusBadRequest, "Ingredient ids must be provided")
		return
	}

	catalog, err := s.storage.Ingredients(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to list ingredients")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	byID := make(map[string]model.Ingredient, len(catalog))
	for _, ing := range catalog {
		byID[ing.ID] = ing
	}
	for _, id := range req.Ingredients {
		if _, ok := byID[id]; !ok {
			writeError(w, http.StatusBadRequest, "One or more ids provided are incorrect")
			return
		}
	}

	acc := accountFrom(r.Context())
	order, err := s.storage.CreateOrder(r.Context(), acc.ID, orderName(byID, req.Ingredients), req.Ingredients)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to create order")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info().Int("number", order.Number).Str("user", acc.Email).Msg("burgerapi: order created")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": order.Name, "order": order})
}

func (s *Server) handleOrderByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "order number must be an integer")
		return
	}

	order, err := s.storage.OrderByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("burgerapi: failed to fetch order")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": []model.Order{order}})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.storage.Feed(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to build feed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"orders":     feed.Orders,
		"total":      feed.Total,
		"totalToday": feed.TotalToday,
	})
}

func (s *Server) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	orders, err := s.storage.OrdersByUser(r.Context(), acc.ID)
	if err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to list user orders")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"orders":     orders,
		"total":      len(orders),
		"totalToday": 0,
	})
}

func (s *Server) signAccessToken(accountID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// requireAuth validates the Bearer access token and loads the account into
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "You should be authorised")
			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeError(w, http.StatusForbidden, "jwt expired")
			return
		}

		id, err := uuid.FromString(claims.Subject)
		if err != nil {
			writeError(w, http.StatusForbidden, "Token is invalid")
			return
		}
		acc, err := s.storage.AccountByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusForbidden, "Token is invalid")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acc)))
	})
}

func accountFrom(ctx context.Context) Account {
	acc, _ := ctx.Value(accountKey).(Account)
	return acc
}

// orderName builds a display name from the distinct ingredients, bun-adjacent
// words first — close enough to the production naming.
func orderName(byID map[string]model.Ingredient, ids []string) string {
	seen := make(map[string]bool, len(ids))
	var words []string
	for _, id := range ids {
		ing := byID[id]
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true
		if first, _, _ := strings.Cut(ing.Name, " "); first != "" {
			words = append(words, first)
		}
	}
	if len(words) == 0 {
		return "Бургер"
	}
	return strings.Join(words, " ") + " бургер"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("burgerapi: failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
