package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute financial metrics for one client or the whole base",
	Long: `Compute metrics straight from the database, bypassing the cache.

Examples:
  assistantctl metrics
  assistantctl metrics --client 653025
  assistantctl metrics --format json`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringP("client", "c", "", "client ID (default: all clients)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetString("client")

	cfg, repo, err := openRepository()
	if err != nil {
		return err
	}

	engine := metrics.NewEngine(metrics.Costs{
		VisitCost:     cfg.Metrics.VisitCost,
		LogisticsCost: cfg.Metrics.LogisticsCost,
	})
	svc := metrics.NewService(repo, engine, nil, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var m *metrics.Metrics
	if clientID != "" {
		m, err = svc.ComputeForClient(ctx, clientID)
	} else {
		m, err = svc.RefreshGlobal(ctx)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == formatJSON {
		return printJSON(out, m)
	}
	printMetrics(out, m)
	return nil
}

func printMetrics(w io.Writer, m *metrics.Metrics) {
	fmt.Fprintf(w, "Median ticket:     €%s\n", query.FormatMoney(m.MedianTicket))
	fmt.Fprintf(w, "Order frequency:   %.2f\n", m.OrderFrequency)
	fmt.Fprintf(w, "Total income:      €%s\n", query.FormatMoney(m.TotalIncome))
	fmt.Fprintf(w, "Visit cost:        €%s\n", query.FormatMoney(m.VisitCost))
	fmt.Fprintf(w, "Logistics cost:    €%s\n", query.FormatMoney(m.LogisticsCost))
	fmt.Fprintf(w, "Profit:            €%s\n", query.FormatMoney(m.Profit))
	fmt.Fprintf(w, "ROI:               %.2f%%\n", m.ROIPercent)
	fmt.Fprintf(w, "Potential savings: €%s\n", query.FormatMoney(m.PotentialSavings))

	if len(m.ChannelShare) > 0 {
		fmt.Fprintln(w, "\nChannel share:")
		for _, cs := range m.ChannelShare {
			fmt.Fprintf(w, "  %-20s %6.2f%%\n", cs.Channel, cs.Percentage)
		}
	}
	if len(m.TopCities) > 0 {
		fmt.Fprintln(w, "\nTop cities by profit:")
		for i, c := range m.TopCities {
			fmt.Fprintf(w, "  %d. %s €%s\n", i+1, c.City, query.FormatMoney(c.Profit))
		}
	}
	if len(m.TopIncomeCities) > 0 {
		fmt.Fprintln(w, "\nTop cities by income:")
		for i, c := range m.TopIncomeCities {
			fmt.Fprintf(w, "  %d. %s €%s\n", i+1, c.City, query.FormatMoney(c.Income))
		}
	}
	if len(m.TopSavingsCities) > 0 {
		fmt.Fprintln(w, "\nTop cities by savings:")
		for i, c := range m.TopSavingsCities {
			fmt.Fprintf(w, "  %d. %s €%s\n", i+1, c.City, query.FormatMoney(c.Savings))
		}
	}
}
