package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/events"
	"github.com/pronet/recovery-portal/internal/observability"
	"github.com/pronet/recovery-portal/internal/recovery"
	"github.com/pronet/recovery-portal/internal/worker"
)

var errRecoveryFailed = errors.New("recovery request failed")

var requestCmd = &cobra.Command{
	Use:   "request <email>",
	Short: "Ask the account service to issue a reset code",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequest,
}

func runRequest(cmd *cobra.Command, args []string) error {
	_, logger, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, logger, observability.NewMetrics())

	out := cmd.OutOrStdout()
	orch := recovery.New(recovery.Options{
		Service:   client,
		Sink:      &terminalSink{w: out},
		Navigator: &terminalNavigator{w: out},
		Events:    dispatcher,
		Logger:    logger,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	outcome, err := orch.Submit(ctx, args[0])
	if err != nil {
		// the sink already printed the validation message
		return errRecoveryFailed
	}
	if !outcome.Accepted() {
		return errRecoveryFailed
	}
	return nil
}

// terminalSink prints notifications as they arrive.
type terminalSink struct {
	w io.Writer
}

func (s *terminalSink) Notify(kind domain.NotificationKind, message string) {
	mark := "✓"
	if kind == domain.NotificationError {
		mark = "✗"
	}
	fmt.Fprintf(s.w, "%s %s\n", mark, message)
}

// terminalNavigator prints the command that continues the flow.
type terminalNavigator struct {
	w io.Writer
}

func (n *terminalNavigator) Handoff(_ context.Context, h domain.Handoff) error {
	otp := "<code>"
	if h.OTP != nil {
		otp = *h.OTP
	}
	_, err := fmt.Fprintf(n.w, "next: recoverctl reset --email %s --otp %s\n", h.Email, otp)
	return err
}
