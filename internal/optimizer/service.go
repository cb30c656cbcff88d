package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis/v13/optimizer/internal/evaluation"
	"github.com/wonny/aegis/v13/optimizer/internal/evolve"
	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// ProgressFunc receives the statistics of every completed generation
type ProgressFunc func(evolve.GenerationStats)

// Service runs complete optimizations from a run configuration
// ⭐ SSOT: 설정 → 평가기 → 진화기 → 결과 조립은 여기서만
type Service struct {
	logger *logger.Logger
}

// Result holds one optimization run
type Result struct {
	RunID       string                   `json:"run_id"`
	Name        string                   `json:"name,omitempty"`
	ConfigHash  string                   `json:"config_hash"`
	Seed        int64                    `json:"seed"`
	StartedAt   time.Time                `json:"started_at"`
	Duration    time.Duration            `json:"duration_ns"`
	Generations int                      `json:"generations"`
	Best        Allocation               `json:"best"`
	History     []evolve.GenerationStats `json:"history"`
}

// Allocation is the best portfolio found with its scores
type Allocation struct {
	Holdings  []Holding          `json:"holdings"`
	Score     float64            `json:"score"`
	RealScore float64            `json:"real_score"`
	Metrics   evaluation.Metrics `json:"metrics"`
}

// Holding is one line of an allocation
type Holding struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
	Weight float64 `json:"weight"`
}

// NewService creates an optimization service
func NewService(log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{logger: log.WithComponent("optimizer")}
}

// Run executes cfg.Evolution.Generations generations
func (s *Service) Run(ctx context.Context, cfg *runconfig.Config) (*Result, error) {
	return s.RunWithProgress(ctx, cfg, nil)
}

// RunWithProgress is Run with a per-generation callback
func (s *Service) RunWithProgress(ctx context.Context, cfg *runconfig.Config, progress ProgressFunc) (*Result, error) {
	if err := runconfig.Validate(cfg); err != nil {
		return nil, err
	}

	hash, err := runconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	seed := cfg.Evolution.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// 합성 수익률과 진화가 같은 시드 스트림을 공유 → seed 고정 시 재현 가능
	rng := portfolio.NewRand(seed)

	returns, err := loadReturns(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("returns: %w", err)
	}

	eval, err := evaluation.NewMeanVariance(returns, cfg.EvaluationConfig())
	if err != nil {
		return nil, fmt.Errorf("evaluator: %w", err)
	}

	result := &Result{
		RunID:      uuid.NewString(),
		Name:       cfg.Meta.RunID,
		ConfigHash: hash,
		Seed:       seed,
		StartedAt:  time.Now(),
		History:    make([]evolve.GenerationStats, 0, cfg.Evolution.Generations+1),
	}

	log := s.logger.WithField("run_id", result.RunID)
	log.WithFields(map[string]interface{}{
		"name":        cfg.Meta.RunID,
		"assets":      len(cfg.Universe.Assets),
		"population":  cfg.Evolution.PopulationSize,
		"generations": cfg.Evolution.Generations,
		"objective":   cfg.Evaluation.Objective,
		"config_hash": hash,
	}).Info("Starting optimization")

	evolver, err := evolve.New(cfg.EvolveConfig(), cfg.Template(), eval, rng, log)
	if err != nil {
		return nil, fmt.Errorf("evolver: %w", err)
	}
	result.History = append(result.History, evolver.Stats())

	err = evolver.Run(ctx, cfg.Evolution.Generations, func(st evolve.GenerationStats) {
		result.History = append(result.History, st)
		if progress != nil {
			progress(st)
		}
	})
	if err != nil {
		log.WithError(err).WithField("generation", evolver.Generation()).Error("Optimization aborted")
		return nil, err
	}

	best := evolver.Best()
	metrics, err := eval.Measure(best.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("measure best: %w", err)
	}

	result.Generations = evolver.Generation()
	result.Duration = time.Since(result.StartedAt)
	result.Best = Allocation{
		Holdings:  holdings(best.Portfolio),
		Score:     best.Score,
		RealScore: best.RealScore,
		Metrics:   metrics,
	}

	log.WithFields(map[string]interface{}{
		"duration":      result.Duration.Seconds(),
		"generations":   result.Generations,
		"annual_return": fmt.Sprintf("%.2f%%", metrics.AnnualReturn*100),
		"volatility":    fmt.Sprintf("%.2f%%", metrics.AnnualVolatility*100),
		"sharpe_ratio":  fmt.Sprintf("%.2f", metrics.Sharpe),
	}).Info("Optimization completed")

	return result, nil
}

func loadReturns(cfg *runconfig.Config, rng *rand.Rand) (*evaluation.Returns, error) {
	if cfg.Evaluation.ReturnsFile != "" {
		returns, err := evaluation.LoadReturnsCSV(cfg.Evaluation.ReturnsFile)
		if err != nil {
			return nil, err
		}
		for _, code := range cfg.Codes() {
			if _, ok := returns.Series(code); !ok {
				return nil, fmt.Errorf("%s: no column for %s", cfg.Evaluation.ReturnsFile, code)
			}
		}
		return returns, nil
	}

	return evaluation.SimulateReturns(
		cfg.AssetSpecs(),
		cfg.Evaluation.SyntheticPeriods,
		cfg.Evaluation.PeriodsPerYear,
		rng,
	)
}

func holdings(p *portfolio.Portfolio) []Holding {
	codes := p.Codes()
	weights := p.Weights()

	out := make([]Holding, len(codes))
	for i, code := range codes {
		out[i] = Holding{Code: code, Amount: p.Get(code), Weight: weights[i]}
	}
	return out
}
