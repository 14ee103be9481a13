package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"chatbot-service/internal/service"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"user_exists", service.ErrUserExists, http.StatusConflict, "already_exists"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated"},
		{"invalid_token", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"token_expired", service.ErrTokenExpired, http.StatusUnauthorized, "unauthenticated"},
		{"user_not_found", service.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"session_not_found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "internal"},
		{"nil", nil, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
			require.Empty(t, resp.Error.RequestID)
		})
	}
}

func TestToHTTP_WrappedSentinel(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.auth.LoginUser: %w", service.ErrInvalidCredentials)
	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthenticated", resp.Error.Code)
}

func TestToHTTP_DoesNotLeakInternalDetails(t *testing.T) {
	t.Parallel()

	_, resp := ToHTTP(errors.New("pq: connection refused host=10.0.0.5"))
	require.NotContains(t, resp.Error.Message, "10.0.0.5")
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-789")

	rr := httptest.NewRecorder()
	WriteError(rr, req, service.ErrNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "not_found", resp.Error.Code)
	require.Equal(t, "rid-789", resp.Error.RequestID)
}

func TestWriteError_NoRequestIDHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rr := httptest.NewRecorder()
	WriteError(rr, req, service.ErrInvalidArgument)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	_, present := raw["error"]["request_id"]
	require.False(t, present, "request_id must be omitted when absent")
}
