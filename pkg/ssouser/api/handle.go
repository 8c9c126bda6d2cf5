package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-sso/pkg/externaltoken"
	"github.com/tendant/simple-sso/pkg/idtoken"
	"github.com/tendant/simple-sso/pkg/loginconfig"
	"github.com/tendant/simple-sso/pkg/ssouser"
)

// Handler exposes the SSO login flow over HTTP
type Handler struct {
	tokenService *externaltoken.ExternalTokenService
	userService  *ssouser.UserService
}

// NewHandler creates a new SSO API handler
func NewHandler(tokenService *externaltoken.ExternalTokenService, userService *ssouser.UserService) *Handler {
	return &Handler{
		tokenService: tokenService,
		userService:  userService,
	}
}

// RegisterRoutes registers the public callback route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sso", func(r chi.Router) {
		r.Post("/callback", h.Callback)
	})
}

// RegisterProtectedRoutes registers the routes that require an authenticated user
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Route("/sso/token", func(r chi.Router) {
		r.Get("/", h.GetExternalToken)
		r.Delete("/", h.RemoveExternalToken)
	})
}

// Callback handles POST /sso/callback
//
// It exchanges the authorization code with the provider, validates the id
// token and reconciles the external identity with a local account.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Code == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Authorization code is required"})
		return
	}

	tokenResult, err := h.tokenService.GetUserToken(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, loginconfig.ErrLoginConfigurationNotFound) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, ErrorResponse{Error: "SSO login is not configured"})
			return
		}
		slog.Error("Failed to exchange authorization code", "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, ErrorResponse{Error: "Failed to exchange authorization code"})
		return
	}

	authUser, err := h.userService.GetAndUpdateUserByExternalToken(r.Context(), tokenResult)
	if err != nil {
		status := http.StatusInternalServerError
		message := "An error occurred while completing login"

		switch {
		case errors.Is(err, ssouser.ErrUserNotFound):
			status = http.StatusForbidden
			message = "No local account matches this identity"
		case errors.Is(err, ssouser.ErrOAuthUserExists):
			status = http.StatusConflict
			message = "This identity or account is already linked"
		case errors.Is(err, idtoken.ErrInvalidIDToken):
			status = http.StatusUnauthorized
			message = "Identity token validation failed"
		default:
			slog.Error("Failed to complete SSO login", "error", err)
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		UserID: authUser.UserID.String(),
		Email:  authUser.Email,
	})
}

// GetExternalToken handles GET /sso/token
//
// It returns a valid external access token for the authenticated user,
// refreshing it through the provider when the stored one has expired.
func (h *Handler) GetExternalToken(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	accessToken, err := h.userService.GetRefreshedExternalTokenForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ssouser.ErrTokenNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: "No external token stored for this user"})
			return
		}
		slog.Error("Failed to get external token", "error", err, "user_id", userID)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, ErrorResponse{Error: "Failed to refresh external token"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, TokenResponse{AccessToken: accessToken})
}

// RemoveExternalToken handles DELETE /sso/token
func (h *Handler) RemoveExternalToken(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.userService.RemoveExternalToken(r.Context(), userID); err != nil {
		if errors.Is(err, ssouser.ErrTokenNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: "No external token stored for this user"})
			return
		}
		slog.Error("Failed to remove external token", "error", err, "user_id", userID)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while removing the token"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "External token removed"})
}

// getUserIDFromContext extracts the user ID from the JWT claims set by the
// jwtauth middleware
func getUserIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok || userIDStr == "" {
		return uuid.Nil, errors.New("user_id not found in JWT claims")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid user_id in JWT claims")
	}

	return userID, nil
}
