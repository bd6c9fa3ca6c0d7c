package models

// ShortLinkResponse is returned by the get-link endpoint.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// TokenResponse is returned by token login.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// AvatarResponse is returned after setting an avatar.
type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

// Page is a page-number paginated listing.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Database string `json:"database"`
}
