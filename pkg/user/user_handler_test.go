package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*Handler, User) {
	service := NewUserService(NewStubUserRepository())
	u, err := service.EnsureUser(context.Background(), Identity{Uid: "sub-1", Email: "jane@example.com", DisplayName: "Jane"})
	require.NoError(t, err)
	return NewHandler(service), u
}

func TestHandler_CurrentUser(t *testing.T) {
	t.Run("should return current user", func(t *testing.T) {
		handler, u := setupHandlerTest(t)
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		w := httptest.NewRecorder()

		handler.CurrentUser(w, req.WithContext(WithUser(req.Context(), u)))

		assert.Equal(t, http.StatusOK, w.Code)
		var body UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "sub-1", body.Uid)
		assert.Equal(t, "Jane", body.DisplayName)
		assert.Equal(t, "USD", body.Settings.Currency)
	})

	t.Run("should answer 401 without user", func(t *testing.T) {
		handler, _ := setupHandlerTest(t)
		w := httptest.NewRecorder()

		handler.CurrentUser(w, httptest.NewRequest(http.MethodGet, "/api/user/current", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_UpdateUser(t *testing.T) {
	t.Run("should update user", func(t *testing.T) {
		handler, u := setupHandlerTest(t)
		body, _ := json.Marshal(UserDTO{DisplayName: "Jane Doe", Settings: SettingsDTO{Currency: "PLN", Timezone: "Europe/Warsaw"}})
		req := httptest.NewRequest(http.MethodPut, "/api/user/current", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.UpdateUser(w, req.WithContext(WithUser(req.Context(), u)))

		assert.Equal(t, http.StatusOK, w.Code)
		var updated UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, "Jane Doe", updated.DisplayName)
		assert.Equal(t, "PLN", updated.Settings.Currency)
	})

	t.Run("should answer 400 on invalid body", func(t *testing.T) {
		handler, u := setupHandlerTest(t)
		req := httptest.NewRequest(http.MethodPut, "/api/user/current", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()

		handler.UpdateUser(w, req.WithContext(WithUser(req.Context(), u)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should answer 400 on invalid data", func(t *testing.T) {
		handler, u := setupHandlerTest(t)
		body, _ := json.Marshal(UserDTO{DisplayName: ""})
		req := httptest.NewRequest(http.MethodPut, "/api/user/current", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.UpdateUser(w, req.WithContext(WithUser(req.Context(), u)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid user data")
	})
}

func TestHandler_DeleteCurrentUser(t *testing.T) {
	handler, u := setupHandlerTest(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/user/current", nil)
	w := httptest.NewRecorder()

	handler.DeleteCurrentUser(w, req.WithContext(WithUser(req.Context(), u)))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
