package bc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bcsync/internal/logger"
)

// tokenSafetyMargin keeps a cached token from being used right up to its
// expiry instant. The same margin applies to both grant flows.
const tokenSafetyMargin = 5 * time.Minute

const defaultScope = "https://api.businesscentral.dynamics.com/.default"

// TokenManager acquires and caches OAuth2 bearer tokens for the Business
// Central API. Not safe for concurrent use; the engine is single-threaded
// and overlapping runs would need an external guard around GetValidToken.
type TokenManager struct {
	creds      Credentials
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time

	token        *Token
	refreshToken string
}

func NewTokenManager(creds Credentials, logger *logger.Logger) *TokenManager {
	return &TokenManager{
		creds: creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// GetValidToken returns a cached token while it is still fresh, otherwise
// acquires a new one. A cached refresh token is tried first; any failure of
// that attempt falls through to a client-credentials grant, since revoked
// refresh tokens are expected.
func (m *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	if m.creds.ClientID == "" || m.creds.ClientSecret == "" || m.creds.TenantID == "" {
		return "", &AuthError{Reason: "missing client credentials"}
	}

	if m.token != nil && m.now().Before(m.token.ExpiresAt.Add(-tokenSafetyMargin)) {
		return m.token.AccessToken, nil
	}

	if m.refreshToken != "" {
		tok, err := m.requestToken(ctx, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {m.refreshToken},
			"client_id":     {m.creds.ClientID},
			"client_secret": {m.creds.ClientSecret},
		})
		if err == nil {
			return tok, nil
		}
		m.logger.Debug("Refresh token grant failed, falling back to client credentials: %v", err)
	}

	tok, err := m.requestToken(ctx, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.creds.ClientID},
		"client_secret": {m.creds.ClientSecret},
		"scope":         {defaultScope},
	})
	if err != nil {
		return "", &AuthError{Reason: "token request failed", Err: err}
	}
	return tok, nil
}

// Invalidate drops the cached access token. The refresh token survives so the
// next acquisition can still attempt the refresh grant.
func (m *TokenManager) Invalidate() {
	m.token = nil
}

func (m *TokenManager) tokenURL() string {
	base := strings.TrimRight(m.creds.AuthBaseURL, "/")
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", base, m.creds.TenantID)
}

func (m *TokenManager) requestToken(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d - %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	m.token = &Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   m.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}
	// A grant response that omits the refresh token does not revoke the one
	// we already hold.
	if tokenResp.RefreshToken != "" {
		m.refreshToken = tokenResp.RefreshToken
	}

	return m.token.AccessToken, nil
}
