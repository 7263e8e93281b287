// Package http provides the account endpoints. Every handler runs behind a policy gate
// and receives the refined capability context.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/gatekeeper/internal/httputil"
	"github.com/allisson/gatekeeper/internal/identity/http/dto"
	"github.com/allisson/gatekeeper/internal/identity/usecase"
	"github.com/allisson/gatekeeper/internal/policy"
	customValidation "github.com/allisson/gatekeeper/internal/validation"
)

// Sessions writes and clears the caller's session.
type Sessions interface {
	Login(ctx context.Context, w http.ResponseWriter, r *http.Request, identity policy.Identity) error
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AccountHandler serves registration, login and account endpoints.
type AccountHandler struct {
	userUseCase usecase.UseCase
	sessions    Sessions
	logger      *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(userUseCase usecase.UseCase, sessions Sessions, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		userUseCase: userUseCase,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterHandler creates a member account.
// POST /v1/register - chain: request, validation.
// Returns 201 Created with the public user view.
func (h *AccountHandler) RegisterHandler(c *gin.Context, _ *policy.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		Message: "REGISTERED!",
		User:    dto.MapUserToResponse(user),
	})
}

// LoginHandler verifies credentials and starts a fresh session.
// POST /v1/login - chain: request, validation.
func (h *AccountHandler) LoginHandler(c *gin.Context, _ *policy.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()
	user, err := h.userUseCase.Login(ctx, req.Username, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.sessions.Login(ctx, c.Writer, c.Request, user.ToIdentity()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// LogoutHandler clears the caller's session.
// POST /v1/logout - chain: request, identity.
func (h *AccountHandler) LogoutHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	if err := h.sessions.Clear(c.Request.Context(), c.Writer, c.Request); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("user logged out", slog.String("user_id", identity.UserID.String()))
	c.Status(http.StatusNoContent)
}

// DeregisterHandler removes the caller's account and ends the session.
// DELETE /v1/account - chain: request, identity.
func (h *AccountHandler) DeregisterHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)
	ctx := c.Request.Context()

	if err := h.userUseCase.Deregister(ctx, identity.UserID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.sessions.Clear(ctx, c.Writer, c.Request); err != nil {
		h.logger.Warn("failed to clear session after deregistration",
			slog.String("user_id", identity.UserID.String()),
			slog.Any("error", err))
	}

	c.Status(http.StatusNoContent)
}

// MeHandler returns the caller's account.
// GET /v1/me - chain: request, identity.
func (h *AccountHandler) MeHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)

	user, err := h.userUseCase.Get(c.Request.Context(), identity.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}

// ListUsersHandler pages through every account.
// GET /v1/admin/users?offset=0&limit=50 - chain: request, identity, attestation:admin.
func (h *AccountHandler) ListUsersHandler(c *gin.Context, _ *policy.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	users, err := h.userUseCase.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUsersToListResponse(users))
}

// StaffPingHandler confirms the caller holds a staff attestation.
// GET /v1/staff/ping - chain: request, identity, attestation:staff.
func (h *AccountHandler) StaffPingHandler(c *gin.Context, pc *policy.Context) {
	identity := policy.MustGet[policy.Identity](pc)
	c.JSON(http.StatusOK, gin.H{
		"message":  "pong",
		"username": identity.Username,
		"role":     identity.Role,
	})
}
