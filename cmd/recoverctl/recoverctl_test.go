package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/recovery"
)

func TestTerminalSinkAndNavigator(t *testing.T) {
	var buf bytes.Buffer
	(&terminalSink{w: &buf}).Notify(domain.NotificationSuccess, "sent")
	(&terminalSink{w: &buf}).Notify(domain.NotificationError, "failed")

	otp := "123456"
	require.NoError(t, (&terminalNavigator{w: &buf}).Handoff(context.Background(), domain.Handoff{Email: "a@b.co", OTP: &otp}))
	require.NoError(t, (&terminalNavigator{w: &buf}).Handoff(context.Background(), domain.Handoff{Email: "a@b.co"}))

	assert.Equal(t, "✓ sent\n✗ failed\n"+
		"next: recoverctl reset --email a@b.co --otp 123456\n"+
		"next: recoverctl reset --email a@b.co --otp <code>\n", buf.String())
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "  User@Example.COM "})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "user@example.com\n", out.String())

	rootCmd.SetArgs([]string{"validate", "nope"})
	var verr *recovery.ValidationError
	require.ErrorAs(t, rootCmd.Execute(), &verr)
}

func TestRequestCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":1,"data":{"otp":"424242"}}`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"request", "--api-url", srv.URL, "user@example.com"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "✓ Password reset code sent! Check your email. Your code: 424242")
	assert.Contains(t, out.String(), "next: recoverctl reset --email user@example.com --otp 424242")
}

func TestSetup_KeepsSubSecondTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCOUNT_SERVICE_TIMEOUT_SECONDS", "")
	t.Cleanup(func() { timeout = 0 })

	timeout = 400 * time.Millisecond
	cfg, _, _, err := setup()
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, cfg.AccountService.Timeout())

	timeout = 1400 * time.Millisecond
	cfg, _, _, err = setup()
	require.NoError(t, err)
	assert.Equal(t, 1400*time.Millisecond, cfg.AccountService.Timeout())
}

func TestRequestCommand_TimeoutBoundsCall(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Cleanup(func() { timeout = 0 })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"request", "--api-url", srv.URL, "--timeout", "100ms", "user@example.com"})

	started := time.Now()
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, errRecoveryFailed)
	assert.Less(t, time.Since(started), 800*time.Millisecond)
	assert.Contains(t, out.String(), "✗ Failed to send reset link. Please try again.")
}
