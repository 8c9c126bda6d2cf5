package api

// CallbackRequest carries the authorization code returned by the provider
type CallbackRequest struct {
	Code string `json:"code"`
}

// LoginResponse represents a completed SSO login
type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenResponse carries a valid external access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse represents a simple success message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
