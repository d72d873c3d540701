package bc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bcsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials(authBase string) Credentials {
	return Credentials{
		TenantID:     "tenant-1",
		Environment:  "production",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CompanyID:    "company-1",
		BaseURL:      "https://example.invalid",
		APIVersion:   "v2.0",
		AuthBaseURL:  authBase,
	}
}

func TestGetValidToken_CachesUntilMargin(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager(testCredentials(server.URL), logger.New("error"))
	m.now = func() time.Time { return now }

	tok, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)

	// Second call before expiry minus margin returns the cached token.
	now = now.Add(30 * time.Minute)
	tok, err = m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)

	// Past expiry minus margin triggers exactly one new acquisition.
	now = now.Add(26 * time.Minute)
	_, err = m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetValidToken_RefreshFallsBackToClientCredentials(t *testing.T) {
	var grants []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grant := r.Form.Get("grant_type")
		grants = append(grants, grant)
		if grant == "refresh_token" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "cc-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	m := NewTokenManager(testCredentials(server.URL), logger.New("error"))
	m.refreshToken = "stale-refresh"

	tok, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cc-token", tok)
	assert.Equal(t, []string{"refresh_token", "client_credentials"}, grants)
	// The failed refresh attempt does not discard the stored refresh token.
	assert.Equal(t, "stale-refresh", m.refreshToken)
}

func TestGetValidToken_RefreshGrantPreferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "refreshed",
			"expires_in":    3600,
			"refresh_token": "refresh-2",
		})
	}))
	defer server.Close()

	m := NewTokenManager(testCredentials(server.URL), logger.New("error"))
	m.refreshToken = "refresh-1"

	tok, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok)
	assert.Equal(t, "refresh-2", m.refreshToken)
}

func TestGetValidToken_MissingCredentials(t *testing.T) {
	m := NewTokenManager(Credentials{}, logger.New("error"))

	_, err := m.GetValidToken(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestGetValidToken_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	m := NewTokenManager(testCredentials(server.URL), logger.New("error"))

	_, err := m.GetValidToken(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestInvalidate_KeepsRefreshToken(t *testing.T) {
	m := NewTokenManager(testCredentials("https://example.invalid"), logger.New("error"))
	m.token = &Token{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	m.refreshToken = "refresh-1"

	m.Invalidate()

	assert.Nil(t, m.token)
	assert.Equal(t, "refresh-1", m.refreshToken)
}
