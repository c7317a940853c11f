package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pronet/recovery-portal/internal/recovery"
)

var validateCmd = &cobra.Command{
	Use:   "validate <email>",
	Short: "Normalize and check an email address without contacting the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := recovery.Validate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), email)
		return nil
	},
}
