package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/route-optimizer-api/internal/config"
	"github.com/user/route-optimizer-api/internal/repository"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "assistantctl",
	Short: "Operator tool for the route optimization assistant",
	Long: `assistantctl checks how questions are routed to analytic templates,
runs them against the client_summary table and prints metrics and
cluster strategies without going through the HTTP API.

Examples:
  assistantctl resolve "most efficient client in Madrid"
  assistantctl query "best 5 cities by median ticket"
  assistantctl metrics --client 653025
  assistantctl strategy "CloudCastle_3"
  assistantctl dbcheck`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != formatText && outputFormat != formatJSON {
			return fmt.Errorf("unknown output format %q (text, json)", outputFormat)
		}
		return nil
	},
}

// Execute запускает корневую команду
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatText, "output format (text, json)")
}

// loadConfig читает .env и конфигурацию так же, как сервер
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return config.Load(cfgFile)
}

// openRepository подключается к БД из конфигурации
func openRepository() (*config.Config, *repository.Repository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, repository.NewRepository(db), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
