package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/models"
)

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Check the database connection and read a few clients",
	Long: `Connect with the configured credentials, ping the database and
read the first rows of client_summary.

Examples:
  assistantctl dbcheck
  assistantctl dbcheck --limit 3`,
	Args: cobra.NoArgs,
	RunE: runDBCheck,
}

func init() {
	dbcheckCmd.Flags().IntP("limit", "n", 10, "number of clients to read")
	rootCmd.AddCommand(dbcheckCmd)
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	cfg, repo, err := openRepository()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	host := cfg.Database.Host
	if cfg.Database.URL != "" {
		host = "DATABASE_URL"
	}
	fmt.Fprintf(out, "Connected to %s\n", host)

	clients, err := repo.GetClients(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading client_summary: %w", err)
	}

	if outputFormat == formatJSON {
		return printJSON(out, clients)
	}
	fmt.Fprintf(out, "Read %d clients:\n", len(clients))
	for _, c := range clients {
		fmt.Fprintf(out, "  %s  %-20s %-15s %s\n",
			c.ClientID,
			models.StringOr(c.City, "N/A"),
			models.StringOr(c.Channel, "N/A"),
			models.StringOr(c.ClusterName, "N/A"),
		)
	}
	return nil
}
