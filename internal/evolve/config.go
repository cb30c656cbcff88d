package evolve

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidPopulation  = errors.New("evolve: population size must be > 0")
	ErrInvalidProbability = errors.New("evolve: probability must be in [0, 1]")
	ErrInvalidMaxHolding  = errors.New("evolve: max holding must be > 0")
	ErrNilEvaluator       = errors.New("evolve: evaluator is nil")
	ErrEvaluationFailed   = errors.New("evolve: evaluation failed")
	ErrDegenerateFitness  = errors.New("evolve: total fitness collapsed")
)

// Config defines genetic algorithm parameters
type Config struct {
	PopulationSize       int     // 모집단 크기
	CrossoverProbability float64 // 교차 확률 (0.0 ~ 1.0)
	MutationProbability  float64 // 자산별 돌연변이 확률 (0.0 ~ 1.0)
	MaxHolding           float64 // 종목당 최대 금액 (초과 시 0으로 수정)
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		PopulationSize:       100,
		CrossoverProbability: 0.25,
		MutationProbability:  0.01,
		MaxHolding:           math.Inf(1), // 제한 없음
	}
}

// Validate checks the parameters
func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPopulation, c.PopulationSize)
	}
	if err := validateProbability("crossover", c.CrossoverProbability); err != nil {
		return err
	}
	if err := validateProbability("mutation", c.MutationProbability); err != nil {
		return err
	}
	if !(c.MaxHolding > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMaxHolding, c.MaxHolding)
	}
	return nil
}

func validateProbability(name string, p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidProbability, name, p)
	}
	return nil
}
