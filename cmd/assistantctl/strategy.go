package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/services/strategy"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy [cluster label]",
	Short: "Show the commercial strategy for a cluster label",
	Long: `Classify a cluster label and print the strategy and the rule that matched.
Without arguments the whole catalog is listed.

Examples:
  assistantctl strategy "CloudCastle_3"
  assistantctl strategy "HighTicket_Efficient_Valencia"
  assistantctl strategy`,
	RunE: runStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}

// classification - результат классификации метки
type classification struct {
	Label     string            `json:"label"`
	MatchedBy string            `json:"matched_by"`
	Strategy  strategy.Strategy `json:"strategy"`
}

func runStrategy(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		all := strategy.All()
		if outputFormat == formatJSON {
			return printJSON(out, all)
		}
		for _, s := range all {
			fmt.Fprintf(out, "%-26s %s\n", s.Key, s.Label)
		}
		return nil
	}

	label := strings.Join(args, " ")
	key, matchedBy := strategy.Resolve(label)
	c := classification{Label: label, MatchedBy: matchedBy, Strategy: strategy.Get(key)}

	if outputFormat == formatJSON {
		return printJSON(out, c)
	}
	printClassification(out, c)
	return nil
}

func printClassification(w io.Writer, c classification) {
	fmt.Fprintf(w, "Label:       %q\n", c.Label)
	fmt.Fprintf(w, "Matched by:  %s\n", c.MatchedBy)
	fmt.Fprintf(w, "Strategy:    %s (%s)\n", c.Strategy.Label, c.Strategy.Key)
	fmt.Fprintf(w, "Profile:     %s\n", c.Strategy.Description)
	fmt.Fprintf(w, "Tactic:      %s\n", c.Strategy.Tactic)
	fmt.Fprintf(w, "Rationale:   %s\n", c.Strategy.Reason)
	fmt.Fprintf(w, "Target gap:  %s\n", c.Strategy.TargetGap)
	fmt.Fprintf(w, "Risk:        %s\n", c.Strategy.RiskNote)
}
