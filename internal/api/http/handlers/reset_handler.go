package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/api/dto"
	"github.com/pronet/recovery-portal/internal/api/http/views"
	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/recovery"
	"github.com/pronet/recovery-portal/internal/repository"
	"github.com/pronet/recovery-portal/internal/service"
	"github.com/pronet/recovery-portal/pkg/util/errorutil"
)

const expiredHandoffText = "Your reset session has expired. Please request a new code."

// ResetHandler serves the reset-password entry point.
type ResetHandler struct {
	recovery *service.RecoveryService
	loginURL string
	logger   *zap.Logger
}

// NewResetHandler constructs handler.
func NewResetHandler(recoveryService *service.RecoveryService, loginURL string, logger *zap.Logger) *ResetHandler {
	return &ResetHandler{recovery: recoveryService, loginURL: loginURL, logger: logger}
}

// Show handles GET /reset-password. It consumes the hand-off left by an accepted
// forgot-password submission; without one the user is sent back to the form.
func (h *ResetHandler) Show(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}

	handoff, err := h.recovery.TakeHandoff(c.UserContext(), sessionID)
	if errors.Is(err, repository.ErrHandoffNotFound) {
		h.recovery.Flash(c.UserContext(), sessionID, domain.Notification{Kind: domain.NotificationError, Message: expiredHandoffText})
		return c.Redirect(forgotPasswordPath, http.StatusSeeOther)
	}
	if err != nil {
		return errorutil.NewInternalError(err)
	}

	page := views.ResetPasswordPage{
		Notifications: h.drainQuiet(c, sessionID),
		Email:         handoff.Email,
	}
	if handoff.OTP != nil {
		page.OTP = *handoff.OTP
	}
	return views.Render(c, http.StatusOK, "reset_password.html", page)
}

// Submit handles POST /reset-password.
func (h *ResetHandler) Submit(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewBadRequest("invalid payload")
	}
	if req.Email == "" {
		return c.Redirect(forgotPasswordPath, http.StatusSeeOther)
	}

	err = h.recovery.ResetPassword(c.UserContext(), sessionID, service.ResetPasswordInput{
		Email:           req.Email,
		OTP:             req.OTP,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err == nil {
		return c.Redirect(h.loginURL, http.StatusSeeOther)
	}

	status, message := describeResetError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("reset password failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return views.Render(c, status, "reset_password.html", views.ResetPasswordPage{
		Email: req.Email,
		OTP:   req.OTP,
		Error: message,
	})
}

func (h *ResetHandler) drainQuiet(c *fiber.Ctx, sessionID string) []domain.Notification {
	notifications, err := h.recovery.Notifications(c.UserContext(), sessionID)
	if err != nil {
		h.logger.Warn("drain notifications", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	return notifications
}

func describeResetError(err error) (int, string) {
	var (
		verr *recovery.ValidationError
		rerr *recovery.RejectedError
		terr *recovery.TransportError
		derr *errorutil.DomainError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Error()
	case errors.As(err, &derr):
		return derr.HTTPStatus, derr.Message
	case errors.As(err, &rerr):
		return http.StatusBadRequest, rerr.Message
	case errors.As(err, &terr):
		if terr.Message != "" {
			return http.StatusBadGateway, terr.Message
		}
		return http.StatusBadGateway, "Failed to reset password. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}
