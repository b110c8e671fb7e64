package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/services/auth"
)

var hashCodeCmd = &cobra.Command{
	Use:   "hash-code <access code>",
	Short: "Print the bcrypt hash for auth.access_code_hash",
	Long: `Hash an access code for the login endpoint. Put the output into
auth.access_code_hash in config.yaml.

Examples:
  assistantctl hash-code "s3cret-code"`,
	Args: cobra.ExactArgs(1),
	RunE: runHashCode,
}

func init() {
	rootCmd.AddCommand(hashCodeCmd)
}

func runHashCode(cmd *cobra.Command, args []string) error {
	if len(args[0]) < 6 {
		return fmt.Errorf("access code must be at least 6 characters")
	}
	hash, err := auth.HashAccessCode(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
