package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/v13/optimizer/pkg/config"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Aegis v13 - 유전 알고리즘 포트폴리오 최적화",
	Long: `Aegis v13 Portfolio Optimizer CLI

유전 알고리즘으로 자산 배분을 탐색합니다.
선택 → 교차 → 돌연변이 → 보유 한도 수정 → 엘리트 보존.

Usage:
  go run ./cmd/evolve [command]

Examples:
  go run ./cmd/evolve run --config configs/example.yaml
  go run ./cmd/evolve permute --codes SPY,TLT,GLD --total 100 --count 5
  go run ./cmd/evolve validate --config configs/example.yaml
  go run ./cmd/evolve api --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "로그 포맷 (json|console), 기본값은 LOG_FORMAT")
}

// setup loads environment config and builds the logger honoring global flags
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	return cfg, logger.New(cfg), nil
}
