package runconfig

import (
	"fmt"

	"github.com/wonny/aegis/v13/optimizer/internal/evaluation"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Universe ===
	if cfg.Universe.Total <= 0 {
		return ValidationError{"universe.total", "must be > 0"}
	}
	if len(cfg.Universe.Assets) == 0 {
		return ValidationError{"universe.assets", "must not be empty"}
	}

	seen := make(map[string]int, len(cfg.Universe.Assets))
	for i, code := range cfg.Codes() {
		field := fmt.Sprintf("universe.assets[%d]", i)
		if code == "" {
			return ValidationError{field + ".code", "required"}
		}
		if j, dup := seen[code]; dup {
			return ValidationError{field + ".code", fmt.Sprintf("duplicate of assets[%d] (%s)", j, code)}
		}
		seen[code] = i

		a := cfg.Universe.Assets[i]
		if a.Amount < 0 {
			return ValidationError{field + ".amount", "must be >= 0"}
		}
		if a.Sigma < 0 {
			return ValidationError{field + ".sigma", "must be >= 0"}
		}
	}

	// === Evolution ===
	e := cfg.Evolution
	if e.PopulationSize <= 0 {
		return ValidationError{"evolution.population_size", "must be > 0"}
	}
	if e.Generations <= 0 {
		return ValidationError{"evolution.generations", "must be > 0"}
	}
	if err := validateProbability(e.CrossoverProbability, "evolution.crossover_probability"); err != nil {
		return err
	}
	if err := validateProbability(e.MutationProbability, "evolution.mutation_probability"); err != nil {
		return err
	}
	if e.MaxHolding < 0 {
		return ValidationError{"evolution.max_holding", "must be >= 0 (0 = unlimited)"}
	}
	// 상한 × 종목 수 < 총액이면 repair가 모든 보유를 0으로 만듦
	if n := float64(len(cfg.Universe.Assets)); e.MaxHolding > 0 && e.MaxHolding*n < cfg.Universe.Total {
		return ValidationError{
			"evolution.max_holding",
			fmt.Sprintf("max_holding × %d assets must be >= universe.total (%g)", len(cfg.Universe.Assets), cfg.Universe.Total),
		}
	}

	// === Evaluation ===
	v := cfg.Evaluation
	if _, err := evaluation.ParseObjective(v.Objective); err != nil {
		return ValidationError{"evaluation.objective", "must be one of utility, sharpe, cvar"}
	}
	if v.RiskAversion < 0 {
		return ValidationError{"evaluation.risk_aversion", "must be >= 0"}
	}
	if v.PeriodsPerYear <= 0 {
		return ValidationError{"evaluation.periods_per_year", "must be > 0"}
	}
	if v.ReturnsFile == "" && v.SyntheticPeriods < 2 {
		return ValidationError{"evaluation.synthetic_periods", "must be >= 2 when returns_file is empty"}
	}

	return nil
}

// validateProbability는 확률 값이 0~1 범위인지 검증
func validateProbability(p float64, field string) error {
	if p < 0 || p > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
