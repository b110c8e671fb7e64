package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/services/query"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Run the analytic template a question resolves to",
	Long: `Resolve a question and execute the matching template against the database.
The output is the same text the chat endpoint returns for a direct answer.

Examples:
  assistantctl query "most efficient client in Valencia"
  assistantctl query --format json "highest savings potential"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Duration("timeout", 30*time.Second, "query timeout")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	question := strings.Join(args, " ")

	_, repo, err := openRepository()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc := query.NewService(query.DefaultLibrary(), repo)
	result := svc.ResolveAndExecute(ctx, question)
	if result == nil {
		return fmt.Errorf("no template matched %q", question)
	}

	out := cmd.OutOrStdout()
	if outputFormat == formatJSON {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, query.Format(result))
		fmt.Fprintln(out, result.Summary)
	}

	if result.IsError() {
		return fmt.Errorf("%s", result.Summary)
	}
	return nil
}
