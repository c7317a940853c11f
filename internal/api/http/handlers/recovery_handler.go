package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/api/dto"
	"github.com/pronet/recovery-portal/internal/api/http/views"
	"github.com/pronet/recovery-portal/internal/auth"
	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/recovery"
	"github.com/pronet/recovery-portal/internal/service"
	"github.com/pronet/recovery-portal/pkg/util/errorutil"
)

const (
	forgotPasswordPath = "/forgot-password"
	resetPasswordPath  = "/reset-password"
	inFlightText       = "A reset request is already in progress. Please wait."
)

// RecoveryHandler serves the forgot-password form and its JSON twin.
type RecoveryHandler struct {
	recovery *service.RecoveryService
	logger   *zap.Logger
}

// NewRecoveryHandler constructs handler.
func NewRecoveryHandler(recoveryService *service.RecoveryService, logger *zap.Logger) *RecoveryHandler {
	return &RecoveryHandler{recovery: recoveryService, logger: logger}
}

// Show handles GET /forgot-password.
func (h *RecoveryHandler) Show(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}
	notifications := h.drain(c, sessionID)
	state := h.recovery.State(sessionID)
	return views.Render(c, http.StatusOK, "forgot_password.html", views.ForgotPasswordPage{
		Notifications: notifications,
		Submitting:    state.Phase == recovery.PhaseSubmitting,
	})
}

// Submit handles POST /forgot-password. Every branch redirects with 303 so the
// browser history never holds the form post.
func (h *RecoveryHandler) Submit(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}

	result, err := h.recovery.Submit(c.UserContext(), sessionID, c.FormValue("email"))
	var verr *recovery.ValidationError
	switch {
	case errors.Is(err, recovery.ErrInFlight):
		h.recovery.Flash(c.UserContext(), sessionID, domain.Notification{Kind: domain.NotificationError, Message: inFlightText})
		return c.Redirect(forgotPasswordPath, http.StatusSeeOther)
	case errors.As(err, &verr):
		return c.Redirect(forgotPasswordPath, http.StatusSeeOther)
	case err != nil:
		return errorutil.NewInternalError(err)
	}

	if result.Outcome.Accepted() {
		return c.Redirect(resetPasswordPath, http.StatusSeeOther)
	}
	return c.Redirect(forgotPasswordPath, http.StatusSeeOther)
}

// SubmitAPI handles POST /api/forgot-password.
func (h *RecoveryHandler) SubmitAPI(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewBadRequest("invalid payload")
	}

	result, err := h.recovery.Submit(c.UserContext(), sessionID, req.Email)
	notifications := h.drain(c, sessionID)

	var verr *recovery.ValidationError
	switch {
	case errors.Is(err, recovery.ErrInFlight):
		return errorutil.NewConflict("RECOVERY_IN_FLIGHT", "a recovery request is already in progress")
	case errors.As(err, &verr):
		return errorutil.NewValidationError(verr.Error(), map[string]any{"reason": string(verr.Reason)})
	case err != nil:
		return errorutil.NewInternalError(err)
	}

	switch result.Outcome.Kind {
	case domain.OutcomeRejected:
		return errorutil.NewDomainError("RECOVERY_REJECTED", result.Outcome.Message, http.StatusBadRequest, nil)
	case domain.OutcomeTransportError:
		return errorutil.NewUpstreamError("ACCOUNT_SERVICE_UNAVAILABLE", result.Outcome.Message, nil)
	}

	state := h.recovery.State(sessionID)
	return c.JSON(fiber.Map{
		"data": dto.SubmitResponse{
			StateResponse: dto.StateResponse{
				State:   state.Phase.String(),
				Outcome: dto.NewOutcomeResponse(result.Outcome),
			},
			Notifications: notifications,
			Next:          resetPasswordPath,
		},
	})
}

// StateAPI handles GET /api/forgot-password.
func (h *RecoveryHandler) StateAPI(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStateResponse(h.recovery.State(sessionID))})
}

// ResetAPI handles DELETE /api/forgot-password.
func (h *RecoveryHandler) ResetAPI(c *fiber.Ctx) error {
	sessionID, err := sessionOf(c)
	if err != nil {
		return err
	}
	if err := h.recovery.Reset(sessionID); err != nil {
		return errorutil.NewConflict("RECOVERY_IN_FLIGHT", "a recovery request is already in progress")
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *RecoveryHandler) drain(c *fiber.Ctx, sessionID string) []domain.Notification {
	notifications, err := h.recovery.Notifications(c.UserContext(), sessionID)
	if err != nil {
		h.logger.Warn("drain notifications", zap.String("session_id", sessionID), zap.Error(err))
		return []domain.Notification{}
	}
	return notifications
}

func sessionOf(c *fiber.Ctx) (string, error) {
	sessionID, ok := auth.SessionFromContext(c)
	if !ok {
		return "", errorutil.NewInternalError(errors.New("session middleware not installed"))
	}
	return sessionID, nil
}
