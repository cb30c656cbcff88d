package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis/v13/optimizer/internal/api"
	"github.com/wonny/aegis/v13/optimizer/internal/api/handlers"
	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 최적화 실행 엔드포인트 제공 (동기 / WebSocket 스트리밍)
- 무작위 배분 샘플링 제공

Endpoints:
  GET  /health          - Health check
  POST /api/optimize    - 최적화 실행 (body: run config JSON)
  POST /api/permute     - 무작위 배분 샘플링
  GET  /ws/optimize     - 세대별 진행 스트리밍 (첫 메시지: run config JSON)

Example:
  go run ./cmd/evolve api
  go run ./cmd/evolve api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값은 PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis v13 Optimizer API Server ===")

	// 1. Load config & logger
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Create service & handlers
	service := optimizer.NewService(log)
	optimizeHandler := handlers.NewOptimizeHandler(service, runconfig.WithEnv(cfg.Evolution), cfg.API.MaxGenerations, log)
	permuteHandler := handlers.NewPermuteHandler(log)

	// 3. Create router (optimize 요청만 rate limit)
	limiter := rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateBurst)
	router := api.NewRouter(optimizeHandler, permuteHandler, limiter, log)

	// 4. Create server
	server := api.New(cfg, log, router)

	// 5. Start server; Ctrl+C triggers graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("API server stopped")
		}
		return err
	case <-server.Ready():
	}

	fmt.Printf("\n✅ Server running on http://%s\n", server.Addr())
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/optimize")
	fmt.Println("  POST /api/permute")
	fmt.Println("  GET  /ws/optimize")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := <-errCh; err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
