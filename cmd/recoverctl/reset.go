package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pronet/recovery-portal/internal/recovery"
)

var (
	resetEmail    string
	resetOTP      string
	resetPassword string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set a new password with a previously issued code",
	Long: `Set a new password with the code issued by "recoverctl request".

The password is read from --password or, when omitted, from RECOVERCTL_PASSWORD.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetEmail, "email", "", "Account email")
	resetCmd.Flags().StringVar(&resetOTP, "otp", "", "One-time code")
	resetCmd.Flags().StringVar(&resetPassword, "password", "", "New password")
	_ = resetCmd.MarkFlagRequired("email")
	_ = resetCmd.MarkFlagRequired("otp")
}

func runReset(cmd *cobra.Command, _ []string) error {
	_, logger, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	email, err := recovery.Validate(resetEmail)
	if err != nil {
		return err
	}
	password := resetPassword
	if password == "" {
		password = os.Getenv("RECOVERCTL_PASSWORD")
	}
	if password == "" {
		return errors.New("a new password is required (--password or RECOVERCTL_PASSWORD)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	reply, err := client.ResetPassword(ctx, email, strings.TrimSpace(resetOTP), password)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !recovery.ReplySucceeded(reply) {
		msg := strings.TrimSpace(reply.Message)
		if msg == "" {
			msg = "the account service refused the reset"
		}
		return &recovery.RejectedError{Message: msg}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ password updated for %s\n", email)
	return nil
}
