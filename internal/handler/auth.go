package handler

import (
	"log/slog"
	"net/http"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/handler/dto"
	"github.com/optiwealth/optiwealth/internal/middleware"
	"github.com/optiwealth/optiwealth/internal/service"
)

// AuthHandler handles registration, login, logout and the caller profile.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
	errs   errorMapper
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
		errs:   errorMapper{logger: logger},
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  middleware.ClientIP(r),
		RequestID: middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_registered", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  middleware.ClientIP(r),
		RequestID: middleware.GetRequestID(r.Context()),
	})
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("login_succeeded", slog.String("user_id", result.User.ID))

	writeJSON(w, http.StatusOK, dto.ToLoginResponse(result.User, result.Token))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.svc.Logout(r.Context(), auth.ClaimsFromContext(r.Context()))
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LogoutResponse{Revoked: revoked})
}

// Me handles GET /api/v1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		h.errs.handleServiceError(w, r, auth.ErrUnauthenticated)
		return
	}

	response := dto.MeResponse{
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		response.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusOK, response)
}
