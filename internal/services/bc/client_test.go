package bc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bcsync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up one server that answers both the token endpoint and
// the API routes given in handle.
func newTestClient(t *testing.T, handle http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/oauth2/") {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "test-token",
				"expires_in":   3600,
			})
			return
		}
		handle(w, r)
	}))
	t.Cleanup(server.Close)

	creds := testCredentials(server.URL)
	creds.BaseURL = server.URL
	tokens := NewTokenManager(creds, logger.New("error"))
	return NewClient(creds, tokens, logger.New("error")), server
}

func TestListItems_FilterAndTop(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{
				{"id": "item-1", "number": "A100", "displayName": "Widget"},
			},
		})
	})

	items, next, err := client.ListItems(context.Background(), "company-1", "lastModifiedDateTime gt 2026-01-01T00:00:00Z", 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A100", items[0].Number)
	assert.Empty(t, next)
	assert.Equal(t, []string{"50"}, gotQuery["$top"])
	assert.Equal(t, []string{"lastModifiedDateTime gt 2026-01-01T00:00:00Z"}, gotQuery["$filter"])
}

func TestListItems_PaginationFollowsOpaqueLink(t *testing.T) {
	var server *httptest.Server
	var paths []string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch {
		case strings.Contains(r.URL.Path, "opaque-page-2"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{{"id": "item-2", "number": "B200"}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value":           []map[string]interface{}{{"id": "item-1", "number": "A100"}},
				"@odata.nextLink": server.URL + "/opaque-page-2",
			})
		}
	})

	items, next, err := client.ListItems(context.Background(), "company-1", "", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotEmpty(t, next)

	items, next, err = client.ListItemsPage(context.Background(), next)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B200", items[0].Number)
	assert.Empty(t, next)
	// The next-page link is called exactly as the server sent it.
	assert.Equal(t, "/opaque-page-2", paths[len(paths)-1])
}

func TestDoAuthenticated_SingleRetryOn401(t *testing.T) {
	var apiCalls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		if apiCalls == 1 {
			http.Error(w, "token expired", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{"id": "item-1", "number": "A100"}},
		})
	})

	items, _, err := client.ListItems(context.Background(), "company-1", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, apiCalls)
}

func TestDoAuthenticated_SecondUnauthorizedIsTerminal(t *testing.T) {
	var apiCalls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	_, _, err := client.ListItems(context.Background(), "company-1", "", 10)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 2, apiCalls)
}

func TestListItems_ApiErrorCarriesStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad filter"}}`, http.StatusBadRequest)
	})

	_, _, err := client.ListItems(context.Background(), "company-1", "garbage filter", 10)
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad filter")
}

func TestGetItemPictures_And_Download(t *testing.T) {
	var server *httptest.Server
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/picture"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{
					{
						"id":                          "pic-1",
						"contentType":                 "image/jpeg",
						"content@odata.mediaReadLink": server.URL + "/media/pic-1",
					},
					{"id": "pic-2"},
				},
			})
		case strings.Contains(r.URL.Path, "/media/"):
			w.Header().Set("Content-Type", "image/jpeg")
			fmt.Fprint(w, "jpeg-bytes")
		default:
			http.NotFound(w, r)
		}
	})

	pictures, err := client.GetItemPictures(context.Background(), "company-1", "item-1")
	require.NoError(t, err)
	require.Len(t, pictures, 2)

	data, contentType, err := client.DownloadPicture(context.Background(), pictures[0])
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	// A ref without a stream-read URL carries no binary.
	_, _, err = client.DownloadPicture(context.Background(), pictures[1])
	require.Error(t, err)
}
