package burgerapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/stellar-burgers/internal/burgerapi"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	storage := burgerapi.NewMemoryStorage()
	require.NoError(t, storage.SeedIngredients(context.Background(), burgerapi.DefaultIngredients()))
	return burgerapi.NewServer(storage, "test-secret", 20*time.Minute).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func registerUser(t *testing.T, h http.Handler, email string) (access, refresh string) {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	return body["accessToken"].(string), body["refreshToken"].(string)
}

func TestIngredients(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/ingredients", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, data)
}

func TestRegister(t *testing.T) {
	h := newTestServer(t)

	access, refresh := registerUser(t, h, "user@example.com")

	assert.True(t, len(access) > len("Bearer "))
	assert.Contains(t, access, "Bearer ")
	assert.NotEmpty(t, refresh)
}

func TestRegister_Validation(t *testing.T) {
	h := newTestServer(t)

	testCases := []struct {
		name    string
		payload map[string]string
		status  int
		message string
	}{
		{
			name:    "missing password",
			payload: map[string]string{"name": "User", "email": "a@b.c"},
			status:  http.StatusForbidden,
			message: "Email, password and name are required fields",
		},
		{
			name:    "missing name",
			payload: map[string]string{"email": "a@b.c", "password": "pass"},
			status:  http.StatusForbidden,
			message: "Email, password and name are required fields",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", tc.payload)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "user@example.com", "password": "pass",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User already exists", body["message"])
}

func TestLogin(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "password123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user@example.com", user["email"])
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "email or password are incorrect", body["message"])
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newTestServer(t)
	_, refresh := registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/token", "", map[string]string{"token": refresh})

	require.Equal(t, http.StatusOK, rec.Code)
	newRefresh := body["refreshToken"].(string)
	assert.NotEqual(t, refresh, newRefresh)

	// Старый refresh больше не работает.
	rec, body = doJSON(t, h, http.MethodPost, "/api/auth/token", "", map[string]string{"token": refresh})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Token is invalid", body["message"])
}

func TestLogout(t *testing.T) {
	h := newTestServer(t)
	_, refresh := registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/logout", "", map[string]string{"token": refresh})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successful logout", body["message"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/auth/token", "", map[string]string{"token": refresh})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCurrentUser(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodGet, "/api/auth/user", access, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Test User", user["name"])
}

func TestCurrentUser_AuthFailures(t *testing.T) {
	h := newTestServer(t)

	testCases := []struct {
		name   string
		token  string
		status int
	}{
		{name: "no token", token: "", status: http.StatusUnauthorized},
		{name: "garbage token", token: "Bearer not-a-jwt", status: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodGet, "/api/auth/user", tc.token, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestUpdateUser(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPatch, "/api/auth/user", access, map[string]string{
		"name": "Renamed",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Renamed", user["name"])
	assert.Equal(t, "user@example.com", user["email"])
}

func TestCreateOrder(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")
	ids := []string{
		"643d69a5c3f7b9001cfa093c",
		"643d69a5c3f7b9001cfa0941",
		"643d69a5c3f7b9001cfa093c",
	}

	rec, body := doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{"ingredients": ids})

	require.Equal(t, http.StatusOK, rec.Code)
	order := body["order"].(map[string]any)
	first := int(order["number"].(float64))
	assert.GreaterOrEqual(t, first, 1000)
	assert.NotEmpty(t, order["name"])

	// Номера растут монотонно.
	rec, body = doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{"ingredients": ids})
	require.Equal(t, http.StatusOK, rec.Code)
	second := int(body["order"].(map[string]any)["number"].(float64))
	assert.Equal(t, first+1, second)
}

func TestCreateOrder_Validation(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{"ingredients": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Ingredient ids must be provided", body["message"])

	rec, body = doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{"ingredients": []string{"unknown"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "One or more ids provided are incorrect", body["message"])
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/orders", "", map[string]any{"ingredients": []string{"x"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderByNumber(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")
	_, body := doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{
		"ingredients": []string{"643d69a5c3f7b9001cfa093c"},
	})
	number := int(body["order"].(map[string]any)["number"].(float64))

	rec, body := doJSON(t, h, http.MethodGet, "/api/orders/"+strconv.Itoa(number), "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	assert.Equal(t, float64(number), orders[0].(map[string]any)["number"])
}

func TestOrderByNumber_NotFound(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/api/orders/99999", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", body["message"])
}

func TestFeed(t *testing.T) {
	h := newTestServer(t)
	access, _ := registerUser(t, h, "user@example.com")
	doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{
		"ingredients": []string{"643d69a5c3f7b9001cfa093c"},
	})
	doJSON(t, h, http.MethodPost, "/api/orders", access, map[string]any{
		"ingredients": []string{"643d69a5c3f7b9001cfa0941"},
	})

	rec, body := doJSON(t, h, http.MethodGet, "/api/orders/all", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["totalToday"])
	orders := body["orders"].([]any)
	require.Len(t, orders, 2)
	// Свежие заказы первыми.
	first := orders[0].(map[string]any)["number"].(float64)
	second := orders[1].(map[string]any)["number"].(float64)
	assert.Greater(t, first, second)
}

func TestUserOrders(t *testing.T) {
	h := newTestServer(t)
	access1, _ := registerUser(t, h, "first@example.com")
	access2, _ := registerUser(t, h, "second@example.com")
	doJSON(t, h, http.MethodPost, "/api/orders", access1, map[string]any{
		"ingredients": []string{"643d69a5c3f7b9001cfa093c"},
	})
	doJSON(t, h, http.MethodPost, "/api/orders", access2, map[string]any{
		"ingredients": []string{"643d69a5c3f7b9001cfa0941"},
	})

	rec, body := doJSON(t, h, http.MethodGet, "/api/orders", access1, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1, "only the caller's orders")
}

func TestPasswordResetFlow(t *testing.T) {
	storage := burgerapi.NewMemoryStorage()
	require.NoError(t, storage.SeedIngredients(context.Background(), burgerapi.DefaultIngredients()))
	h := burgerapi.NewServer(storage, "test-secret", 20*time.Minute).Router()
	registerUser(t, h, "user@example.com")

	rec, body := doJSON(t, h, http.MethodPost, "/api/password-reset", "", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reset email sent", body["message"])

	acc, err := storage.AccountByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, acc.ResetCode)

	rec, body = doJSON(t, h, http.MethodPost, "/api/password-reset/reset", "", map[string]string{
		"password": "new-password", "token": acc.ResetCode,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password successfully reset", body["message"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "new-password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Код одноразовый.
	rec, body = doJSON(t, h, http.MethodPost, "/api/password-reset/reset", "", map[string]string{
		"password": "another", "token": acc.ResetCode,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Incorrect reset token", body["message"])
}

// Неизвестный email не раскрывается: ответ одинаково успешный.
func TestForgotPassword_UnknownEmail(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/password-reset", "", map[string]string{"email": "nobody@example.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}
