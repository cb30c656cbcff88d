package evolve

import (
	"context"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes the fitness distribution of one generation
type GenerationStats struct {
	Generation    int     `json:"generation"`
	BestIndex     int     `json:"best_index"`
	BestScore     float64 `json:"best_score"`
	BestRealScore float64 `json:"best_real_score"`
	MeanScore     float64 `json:"mean_score"`   // 원점수 평균
	StdDevScore   float64 `json:"stddev_score"` // 원점수 표준편차
	MeanRealScore float64 `json:"mean_real_score"`
	FitnessFloor  float64 `json:"fitness_floor"`
	TotalFitness  float64 `json:"total_fitness"`
}

// Stats summarizes the current generation
func (e *Evolver) Stats() GenerationStats {
	best := e.Best()
	mean, std := stat.MeanStdDev(e.table.scaled, nil)
	if len(e.table.scaled) < 2 {
		std = 0
	}

	return GenerationStats{
		Generation:    e.generation,
		BestIndex:     best.Index,
		BestScore:     best.Score,
		BestRealScore: best.RealScore,
		MeanScore:     mean,
		StdDevScore:   std,
		MeanRealScore: stat.Mean(e.table.real, nil),
		FitnessFloor:  e.table.min,
		TotalFitness:  e.table.total,
	}
}

// Run calls Evolve generations times, reporting after each one.
// ctx is checked between generations only.
func (e *Evolver) Run(ctx context.Context, generations int, onGeneration func(GenerationStats)) error {
	for i := 0; i < generations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Evolve(); err != nil {
			return err
		}
		if onGeneration != nil {
			onGeneration(e.Stats())
		}
	}
	return nil
}
