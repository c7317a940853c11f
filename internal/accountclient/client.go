// Package accountclient talks to the account recovery backend over HTTP.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/config"
	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/recovery"
)

const userAgent = "pronet-recovery-portal"

// Client calls the account recovery endpoints.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a client from configuration.
func New(cfg config.AccountServiceConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURLOrDefault(), "/"),
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestRecovery posts the email to /forgot-password.
func (c *Client) RequestRecovery(ctx context.Context, req domain.RecoveryRequest) (domain.ServiceReply, error) {
	return c.post(ctx, "/forgot-password", req)
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp,omitempty"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword posts the new password together with the one-time code to /reset-password.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (domain.ServiceReply, error) {
	return c.post(ctx, "/reset-password", resetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword})
}

func (c *Client) post(ctx context.Context, path string, payload any) (domain.ServiceReply, error) {
	timeout, err := c.effectiveTimeout(ctx)
	if err != nil {
		return domain.ServiceReply{}, &recovery.TransportError{Err: err}
	}

	agent := fiber.Post(c.baseURL + path)
	agent.JSON(payload)
	agent.UserAgent(userAgent)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	started := time.Now()
	code, body, errs := agent.Bytes()
	c.logger.Debug("account service call",
		zap.String("path", path),
		zap.Int("status", code),
		zap.Duration("duration", time.Since(started)))

	if len(errs) > 0 {
		return domain.ServiceReply{}, &recovery.TransportError{Err: errors.Join(errs...)}
	}
	return decodeReply(code, body)
}

// effectiveTimeout narrows the configured timeout to the context deadline.
func (c *Client) effectiveTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

type wireReply struct {
	Status  *flexStatus     `json:"status"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	OTP     flexString      `json:"otp"`
	Data    json.RawMessage `json:"data"`
}

type wireData struct {
	OTP flexString `json:"otp"`
}

func decodeReply(code int, body []byte) (domain.ServiceReply, error) {
	var wire wireReply
	decodeErr := json.Unmarshal(body, &wire)

	if code < 200 || code > 299 {
		te := &recovery.TransportError{Status: code}
		if decodeErr == nil {
			te.Message = strings.TrimSpace(wire.Message)
		}
		return domain.ServiceReply{}, te
	}
	if decodeErr != nil {
		return domain.ServiceReply{}, &recovery.TransportError{Status: code, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if wire.Status == nil && wire.Success == nil {
		return domain.ServiceReply{}, &recovery.TransportError{Status: code, Err: errors.New("response carries no status flag")}
	}

	reply := domain.ServiceReply{
		Success: wire.Success,
		Message: wire.Message,
		OTP:     string(wire.OTP),
	}
	if wire.Status != nil {
		status := int(*wire.Status)
		reply.Status = &status
	}

	// data may be absent, null or an unrelated scalar; only an object can carry the code.
	if trimmed := bytes.TrimSpace(wire.Data); len(trimmed) > 0 && trimmed[0] == '{' {
		var data wireData
		if err := json.Unmarshal(trimmed, &data); err == nil {
			reply.DataOTP = string(data.OTP)
		}
	}
	return reply, nil
}

// flexStatus accepts 1, "1" and true as the same success flag.
type flexStatus int

const statusUnrecognized flexStatus = -1

func (s *flexStatus) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch raw {
	case "true":
		*s = 1
		return nil
	case "false", "null":
		*s = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*s = 0
		return nil
	}
	// 1.5 or 1e300 is not the success flag 1.
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		*s = statusUnrecognized
		return nil
	}
	*s = flexStatus(f)
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}
