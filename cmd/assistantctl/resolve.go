package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/services/query"
)

// Вопросы для прогона без аргументов
var sampleQuestions = []string{
	"cliente más eficiente en Madrid",
	"clients with the better median ticket in Almería",
	"most efficient client in Barcelona",
	"cliente más eficiente",
	"top 5 cities with the best median ticket",
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [question]",
	Short: "Show which analytic template a question resolves to",
	Long: `Match a question against the template library and print the template,
its captured parameters and the bound query arguments. Nothing is executed.

Without arguments a set of sample questions is checked.

Examples:
  assistantctl resolve "statistics for Valencia"
  assistantctl resolve --format json "best 3 cities by median ticket"
  assistantctl resolve`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

// resolution - результат сопоставления для вывода
type resolution struct {
	Question    string         `json:"question"`
	Matched     bool           `json:"matched"`
	Template    string         `json:"template,omitempty"`
	Description string         `json:"description,omitempty"`
	Params      []string       `json:"params,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
	SQL         string         `json:"sql,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	questions := sampleQuestions
	if len(args) > 0 {
		questions = []string{strings.Join(args, " ")}
	}

	lib := query.DefaultLibrary()
	results := make([]resolution, 0, len(questions))
	for _, q := range questions {
		results = append(results, resolveQuestion(lib, q))
	}

	out := cmd.OutOrStdout()
	if outputFormat == formatJSON {
		return printJSON(out, results)
	}
	for _, r := range results {
		printResolution(out, r)
	}
	return nil
}

func resolveQuestion(lib *query.Library, question string) resolution {
	r := resolution{Question: question}
	resolved, ok := lib.Resolve(question)
	if !ok {
		return r
	}
	r.Matched = true
	r.Template = resolved.Template.Key
	r.Description = resolved.Template.Description
	r.Params = resolved.Params
	r.Args = query.BuildArgs(resolved.Template, resolved.Params)
	r.SQL = strings.TrimSpace(resolved.Template.Query)
	return r
}

func printResolution(w io.Writer, r resolution) {
	fmt.Fprintf(w, "Question: %q\n", r.Question)
	if !r.Matched {
		fmt.Fprintln(w, "  no template matched")
		fmt.Fprintln(w, "---")
		return
	}
	fmt.Fprintf(w, "  template: %s (%s)\n", r.Template, r.Description)
	fmt.Fprintf(w, "  params:   [%s]\n", strings.Join(r.Params, ", "))
	for i := range r.Params {
		key := fmt.Sprintf("p%d", i+1)
		fmt.Fprintf(w, "  @%s = %v\n", key, r.Args[key])
	}
	fmt.Fprintln(w, "---")
}
