// Package views holds the server-rendered recovery pages.
package views

import (
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/pronet/recovery-portal/internal/domain"
)

//go:embed *.html
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.html"))

// ForgotPasswordPage is the data of forgot_password.html.
type ForgotPasswordPage struct {
	Notifications []domain.Notification
	Submitting    bool
}

// ResetPasswordPage is the data of reset_password.html.
type ResetPasswordPage struct {
	Notifications []domain.Notification
	Email         string
	OTP           string
	Error         string
}

// Render writes the named template with the given status.
func Render(c *fiber.Ctx, status int, name string, data any) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return templates.ExecuteTemplate(c, name, data)
}
