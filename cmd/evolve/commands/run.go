package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/v13/optimizer/internal/evolve"
	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "최적화 실행",
	Long: `실행 파일(YAML)을 읽어 유전 알고리즘 최적화를 실행합니다.

이 명령어는:
- 수익률 로드 (returns_file CSV 또는 mu/sigma 합성)
- 설정된 세대 수만큼 진화
- 세대별 진행 상황과 최종 배분 출력

Ctrl+C로 중단하면 진행 중인 세대가 끝난 뒤 종료합니다.

Example:
  go run ./cmd/evolve run --config configs/example.yaml
  go run ./cmd/evolve run --config configs/example.yaml --generations 500 --seed 7
  go run ./cmd/evolve run --config configs/example.yaml --json > result.json`,
	RunE: runOptimize,
}

var (
	runConfigPath  string
	runGenerations int
	runSeed        int64
	runEvery       int
	runJSON        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "실행 파일 경로 (YAML)")
	runCmd.Flags().IntVar(&runGenerations, "generations", 0, "세대 수 (설정 파일 값 대체)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "난수 시드 (설정 파일 값 대체)")
	runCmd.Flags().IntVar(&runEvery, "every", 10, "진행 상황 출력 간격 (세대)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "결과를 JSON으로 출력")
	runCmd.MarkFlagRequired("config")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	appCfg, log, err := setup()
	if err != nil {
		return err
	}

	cfg, _, err := runconfig.LoadOnto(runConfigPath, runconfig.WithEnv(appCfg.Evolution))
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}
	if cmd.Flags().Changed("generations") {
		cfg.Evolution.Generations = runGenerations
	}
	if cmd.Flags().Changed("seed") {
		cfg.Evolution.Seed = runSeed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !runJSON {
		PrintHeader("Portfolio Optimization", []string{"Run", "Assets", "Population", "Generations", "Objective"},
			map[string]string{
				"Run":         cfg.Meta.RunID,
				"Assets":      strings.Join(cfg.Codes(), ","),
				"Population":  fmt.Sprintf("%d", cfg.Evolution.PopulationSize),
				"Generations": fmt.Sprintf("%d", cfg.Evolution.Generations),
				"Objective":   cfg.Evaluation.Objective,
			})
	}

	total := cfg.Evolution.Generations
	progress := func(st evolve.GenerationStats) {
		if runJSON || runEvery <= 0 {
			return
		}
		if st.Generation%runEvery == 0 || st.Generation == total {
			PrintProgress("Evolve",
				fmt.Sprintf("best=%.4f mean=%.4f std=%.4f real=%s",
					st.BestScore, st.MeanScore, st.StdDevScore, formatPct(st.BestRealScore)),
				st.Generation, total)
		}
	}

	result, err := optimizer.NewService(log).RunWithProgress(ctx, cfg, progress)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println()
	PrintAllocation(result.Best)
	fmt.Println()
	PrintMetrics(result.Best)
	fmt.Println()
	PrintKeyValue("Run ID", result.RunID, 14)
	PrintKeyValue("Config hash", result.ConfigHash[:12], 14)
	PrintKeyValue("Seed", fmt.Sprintf("%d", result.Seed), 14)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d generations completed in %.2fs", result.Generations, result.Duration.Seconds()))

	return nil
}
