package bc

import "time"

// Credentials is the immutable connection configuration for one
// Business Central environment, loaded once per sync run.
type Credentials struct {
	TenantID     string
	Environment  string
	ClientID     string
	ClientSecret string
	CompanyID    string
	BaseURL      string
	APIVersion   string
	AuthBaseURL  string
}

// Token is a cached OAuth2 bearer token. Owned exclusively by TokenManager.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// ExternalItem is Business Central's view of one catalog entry, decoded once
// at the API boundary. Optional fields stay pointers so downstream logic can
// tell "absent" from "zero".
type ExternalItem struct {
	ID               string    `json:"id"`
	Number           string    `json:"number"`
	DisplayName      string    `json:"displayName"`
	Description      *string   `json:"description"`
	UnitPrice        *float64  `json:"unitPrice"`
	Inventory        *float64  `json:"inventory"`
	Blocked          bool      `json:"blocked"`
	ItemCategoryID   *string   `json:"itemCategoryId"`
	ItemCategoryCode *string   `json:"itemCategoryCode"`
	LastModified     time.Time `json:"lastModifiedDateTime"`
}

type itemsEnvelope struct {
	Value    []ExternalItem `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

// Picture is one picture reference on an item. MediaReadLink is the embedded
// stream-read URL; a ref without one carries no binary and is skipped.
type Picture struct {
	ID            string `json:"id"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ContentType   string `json:"contentType"`
	MediaReadLink string `json:"content@odata.mediaReadLink"`
}

type picturesEnvelope struct {
	Value []Picture `json:"value"`
}
