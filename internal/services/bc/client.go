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

// Client is the authenticated HTTP surface of the Business Central OData API.
// Pagination follows the opaque @odata.nextLink embedded in each envelope;
// the link is never reconstructed from offsets.
type Client struct {
	creds      Credentials
	tokens     *TokenManager
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(creds Credentials, tokens *TokenManager, logger *logger.Logger) *Client {
	return &Client{
		creds:  creds,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("%s/v2.0/%s/%s/api/%s",
		strings.TrimRight(c.creds.BaseURL, "/"),
		c.creds.TenantID,
		c.creds.Environment,
		c.creds.APIVersion,
	)
}

// ListItems fetches the first page of the items collection. The filter is a
// caller-supplied OData predicate and is passed through unvalidated; a 4xx
// for a malformed filter surfaces as an ApiError.
func (c *Client) ListItems(ctx context.Context, companyID, filter string, pageSize int) ([]ExternalItem, string, error) {
	u := fmt.Sprintf("%s/companies(%s)/items", c.baseURL(), companyID)

	q := url.Values{}
	q.Set("$top", fmt.Sprintf("%d", pageSize))
	if filter != "" {
		q.Set("$filter", filter)
	}

	return c.fetchItems(ctx, u+"?"+q.Encode())
}

// ListItemsPage follows a next-page link exactly as the server returned it.
func (c *Client) ListItemsPage(ctx context.Context, nextLink string) ([]ExternalItem, string, error) {
	return c.fetchItems(ctx, nextLink)
}

func (c *Client) fetchItems(ctx context.Context, url string) ([]ExternalItem, string, error) {
	resp, err := c.doAuthenticated(ctx, http.MethodGet, url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var envelope itemsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, "", fmt.Errorf("failed to decode items response: %w", err)
	}

	return envelope.Value, envelope.NextLink, nil
}

// GetItemPictures lists the picture refs attached to one item.
func (c *Client) GetItemPictures(ctx context.Context, companyID, itemID string) ([]Picture, error) {
	u := fmt.Sprintf("%s/companies(%s)/items(%s)/picture", c.baseURL(), companyID, itemID)

	resp, err := c.doAuthenticated(ctx, http.MethodGet, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope picturesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode pictures response: %w", err)
	}

	return envelope.Value, nil
}

// DownloadPicture resolves the binary behind a picture ref. Refs without a
// stream-read URL carry no binary; callers skip those before getting here.
func (c *Client) DownloadPicture(ctx context.Context, pic Picture) ([]byte, string, error) {
	if pic.MediaReadLink == "" {
		return nil, "", fmt.Errorf("picture %s has no media read link", pic.ID)
	}

	link := pic.MediaReadLink
	if !strings.HasPrefix(link, "http") {
		link = strings.TrimRight(c.creds.BaseURL, "/") + "/" + strings.TrimLeft(link, "/")
	}

	resp, err := c.doAuthenticated(ctx, http.MethodGet, link)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read picture stream: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = pic.ContentType
	}

	return data, contentType, nil
}

// doAuthenticated attaches the bearer token and performs the call. A single
// 401 forces one token invalidation and one retry; a second 401 is terminal.
func (c *Client) doAuthenticated(ctx context.Context, method, url string) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Debug("Received 401, invalidating token and retrying: %s", url)
		c.tokens.Invalidate()

		resp, err = c.doOnce(ctx, method, url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, &AuthError{Reason: fmt.Sprintf("request rejected twice: %s", strings.TrimSpace(string(body)))}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &ApiError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, url string) (*http.Response, error) {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}
