package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/stellar-burgers/internal/api"
	"github.com/vasiliy-maslov/stellar-burgers/internal/auth"
)

func newClient(t *testing.T, handler http.Handler) (*api.Client, *auth.Memory) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := auth.NewMemory()
	return api.NewClient(srv.URL, 5*time.Second, tokens, zerolog.Nop()), tokens
}

func TestFetchIngredients(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/ingredients", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"_id": "643d69a5c3f7b9001cfa093c", "name": "Краторная булка N-200i", "type": "bun", "price": 1255},
			},
		})
	}))

	ingredients, err := client.FetchIngredients(context.Background())

	require.NoError(t, err)
	require.Len(t, ingredients, 1)
	assert.Equal(t, "643d69a5c3f7b9001cfa093c", ingredients[0].ID)
	assert.Equal(t, 1255, ingredients[0].Price)
}

func TestErrorMessagePropagated(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "email or password are incorrect"})
	}))

	_, err := client.Login(context.Background(), "user@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, "email or password are incorrect", err.Error())
}

func TestEnvelopeFailureWithoutStatusIsError(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "something went wrong"})
	}))

	_, err := client.FetchIngredients(context.Background())

	require.EqualError(t, err, "something went wrong")
}

func TestLoginReturnsTokens(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"user":         map[string]string{"email": "user@example.com", "name": "User"},
			"accessToken":  "Bearer access-1",
			"refreshToken": "refresh-1",
		})
	}))

	result, err := client.Login(context.Background(), "user@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "User", result.User.Name)
	assert.Equal(t, "Bearer access-1", result.AccessToken)
	assert.Equal(t, "refresh-1", result.RefreshToken)
}

func TestAuthorizedRequestAttachesBearer(t *testing.T) {
	var gotAuth string
	client, tokens := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]string{"email": "user@example.com", "name": "User"},
		})
	}))
	require.NoError(t, tokens.Save("access-1", "refresh-1"))

	_, err := client.FetchUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer access-1", gotAuth)
}

// 401 на авторизованном запросе: один refresh и повтор исходного запроса.
func TestRefreshOnUnauthorizedAndReplay(t *testing.T) {
	var userCalls, refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		userCalls++
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "jwt expired"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]string{"email": "user@example.com", "name": "User"},
		})
	})
	mux.HandleFunc("/api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-1", body["token"])

		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"accessToken":  "Bearer access-2",
			"refreshToken": "refresh-2",
		})
	})

	client, tokens := newClient(t, mux)
	require.NoError(t, tokens.Save("access-1", "refresh-1"))

	user, err := client.FetchUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, 2, userCalls, "original request replayed once")
	assert.Equal(t, 1, refreshCalls)

	refresh, ok := tokens.Refresh()
	require.True(t, ok)
	assert.Equal(t, "refresh-2", refresh, "rotated refresh token persisted")
}

func TestAuthorizedWithoutCredentials(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without credentials")
	}))

	_, err := client.FetchUser(context.Background())

	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestFetchOrderByNumber(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders/12345", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"orders":  []map[string]any{{"number": 12345, "name": "Тестовый бургер", "status": "done"}},
		})
	}))

	order, err := client.FetchOrderByNumber(context.Background(), 12345)

	require.NoError(t, err)
	assert.Equal(t, 12345, order.Number)
}

func TestFetchOrderByNumber_Empty(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "orders": []any{}})
	}))

	_, err := client.FetchOrderByNumber(context.Background(), 99999)

	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestLogoutWithoutRefreshTokenIsNoop(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	require.NoError(t, client.Logout(context.Background()))
}

func TestFetchFeed(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders/all", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"orders":     []map[string]any{{"number": 1, "status": "done"}},
			"total":      1000,
			"totalToday": 50,
		})
	}))

	snap, err := client.FetchFeed(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Orders, 1)
	assert.Equal(t, 1000, snap.Total)
	assert.Equal(t, 50, snap.TotalToday)
}
