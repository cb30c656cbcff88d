package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
	"github.com/wonny/aegis/v13/optimizer/internal/scheduler"
	"github.com/wonny/aegis/v13/optimizer/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "주기적 재최적화",
	Long: `실행 파일을 cron 일정에 따라 반복 최적화합니다.
매 실행마다 파일을 다시 읽으므로 수정 사항이 다음 실행에 반영됩니다.

cron 표현식은 초 필드를 포함합니다 (6필드) 또는 @every 형식.

Example:
  go run ./cmd/evolve schedule --config configs/example.yaml --cron "0 0 * * * *"
  go run ./cmd/evolve schedule --config configs/example.yaml --cron "@every 30m" --run-now`,
	RunE: runSchedule,
}

var (
	scheduleConfigPaths []string
	scheduleCron        string
	scheduleRunNow      bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringSliceVarP(&scheduleConfigPaths, "config", "c", nil, "실행 파일 경로 (여러 개 가능)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "0 0 * * * *", "cron 일정 (초 포함)")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "시작 시 즉시 1회 실행")
	scheduleCmd.MarkFlagRequired("config")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	appCfg, log, err := setup()
	if err != nil {
		return err
	}
	base := runconfig.WithEnv(appCfg.Evolution)

	service := optimizer.NewService(log)
	sched := scheduler.New(log)

	for _, path := range scheduleConfigPaths {
		// 시작 전에 한 번 검증 → 잘못된 파일은 즉시 실패
		if _, _, err := runconfig.LoadOnto(path, base); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		job := jobs.NewOptimizeJob(name, scheduleCron, path, base, service, printScheduledResult(name), log)
		if err := sched.AddJob(job); err != nil {
			return err
		}
	}

	sched.Start()
	defer sched.Stop()

	PrintInfo(fmt.Sprintf("Scheduled %s on %q", strings.Join(sched.Jobs(), ", "), scheduleCron))

	if scheduleRunNow {
		for _, name := range sched.Jobs() {
			if _, err := sched.RunNow(name); err != nil {
				return err
			}
		}
	}

	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	for name, st := range sched.Stats() {
		PrintKeyValue(name, fmt.Sprintf("runs=%d failed=%d", st.TotalRuns, st.FailureCount), 16)
	}
	return nil
}

// printScheduledResult prints a compact summary of every scheduled run
func printScheduledResult(name string) jobs.Sink {
	return func(result *optimizer.Result) {
		fmt.Println()
		PrintDoubleSeparator()
		fmt.Printf("  %s  %s\n", name, result.StartedAt.Format("2006-01-02 15:04:05"))
		PrintSeparator()
		PrintAllocation(result.Best)
		PrintMetrics(result.Best)
	}
}
