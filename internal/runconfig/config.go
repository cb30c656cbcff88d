package runconfig

import (
	"github.com/wonny/aegis/v13/optimizer/internal/evaluation"
	"github.com/wonny/aegis/v13/optimizer/internal/evolve"
	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
	"github.com/wonny/aegis/v13/optimizer/pkg/config"
)

// Config는 최적화 실행 한 건의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Evolution  Evolution  `yaml:"evolution" json:"evolution"`
	Evaluation Evaluation `yaml:"evaluation" json:"evaluation"`
}

// Meta 메타 정보
type Meta struct {
	RunID       string `yaml:"run_id" json:"run_id"`
	Description string `yaml:"description" json:"description"`
}

// Universe 투자 대상 종목과 총 투자금
type Universe struct {
	Total  float64 `yaml:"total" json:"total"`
	Assets []Asset `yaml:"assets" json:"assets"`
}

// Asset 종목 하나
// mu/sigma는 합성 수익률 생성 시에만 사용 (연율)
type Asset struct {
	Code   string  `yaml:"code" json:"code"`
	Amount float64 `yaml:"amount" json:"amount"`
	Mu     float64 `yaml:"mu" json:"mu"`
	Sigma  float64 `yaml:"sigma" json:"sigma"`
}

// Evolution 유전 알고리즘 파라미터
type Evolution struct {
	PopulationSize       int     `yaml:"population_size" json:"population_size"`
	Generations          int     `yaml:"generations" json:"generations"`
	CrossoverProbability float64 `yaml:"crossover_probability" json:"crossover_probability"`
	MutationProbability  float64 `yaml:"mutation_probability" json:"mutation_probability"`
	MaxHolding           float64 `yaml:"max_holding" json:"max_holding"` // 0 = 제한 없음
	Seed                 int64   `yaml:"seed" json:"seed"`               // 0 = 시간 기반
}

// Evaluation 평가 함수 설정
type Evaluation struct {
	Objective        string  `yaml:"objective" json:"objective"`
	RiskAversion     float64 `yaml:"risk_aversion" json:"risk_aversion"`
	RiskFreeRate     float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	PeriodsPerYear   int     `yaml:"periods_per_year" json:"periods_per_year"`
	ReturnsFile      string  `yaml:"returns_file" json:"returns_file"`
	SyntheticPeriods int     `yaml:"synthetic_periods" json:"synthetic_periods"`
}

// Default returns the baseline every loaded document is decoded onto
func Default() *Config {
	evo := evolve.DefaultConfig()
	eval := evaluation.DefaultConfig()

	return &Config{
		Universe: Universe{Total: 100},
		Evolution: Evolution{
			PopulationSize:       evo.PopulationSize,
			Generations:          200,
			CrossoverProbability: evo.CrossoverProbability,
			MutationProbability:  evo.MutationProbability,
		},
		Evaluation: Evaluation{
			Objective:        string(eval.Objective),
			RiskAversion:     eval.RiskAversion,
			RiskFreeRate:     eval.RiskFreeRate,
			PeriodsPerYear:   eval.PeriodsPerYear,
			SyntheticPeriods: 2 * eval.PeriodsPerYear,
		},
	}
}

// WithEnv returns Default() with the environment evolution defaults applied.
// Non-positive sizes in env are ignored; run files still override every field.
func WithEnv(env config.EvolutionConfig) *Config {
	cfg := Default()
	if env.PopulationSize > 0 {
		cfg.Evolution.PopulationSize = env.PopulationSize
	}
	if env.Generations > 0 {
		cfg.Evolution.Generations = env.Generations
	}
	cfg.Evolution.CrossoverProbability = env.CrossoverProbability
	cfg.Evolution.MutationProbability = env.MutationProbability
	cfg.Evolution.Seed = env.Seed
	return cfg
}

// clone copies cfg including the asset list
func (c *Config) clone() *Config {
	out := *c
	out.Universe.Assets = append([]Asset(nil), c.Universe.Assets...)
	return &out
}

// Codes returns the normalized asset codes in order
func (c *Config) Codes() []string {
	codes := make([]string, len(c.Universe.Assets))
	for i, a := range c.Universe.Assets {
		codes[i] = portfolio.NormalizeCode(a.Code)
	}
	return codes
}

// Template builds the template portfolio scaled to universe.total.
// Assets without an amount get an equal share.
func (c *Config) Template() *portfolio.Portfolio {
	p := portfolio.New()
	n := len(c.Universe.Assets)
	if n == 0 {
		return p
	}

	equal := c.Universe.Total / float64(n)
	for _, a := range c.Universe.Assets {
		amount := a.Amount
		if amount <= 0 {
			amount = equal
		}
		p.Set(portfolio.NormalizeCode(a.Code), amount)
	}
	p.Normalize(c.Universe.Total)
	return p
}

// AssetSpecs returns the synthetic return parameters per asset
func (c *Config) AssetSpecs() []evaluation.AssetSpec {
	specs := make([]evaluation.AssetSpec, len(c.Universe.Assets))
	for i, a := range c.Universe.Assets {
		specs[i] = evaluation.AssetSpec{
			Code:  portfolio.NormalizeCode(a.Code),
			Mu:    a.Mu,
			Sigma: a.Sigma,
		}
	}
	return specs
}

// EvolveConfig maps the evolution section onto the engine configuration
func (c *Config) EvolveConfig() evolve.Config {
	cfg := evolve.DefaultConfig()
	cfg.PopulationSize = c.Evolution.PopulationSize
	cfg.CrossoverProbability = c.Evolution.CrossoverProbability
	cfg.MutationProbability = c.Evolution.MutationProbability
	if c.Evolution.MaxHolding > 0 {
		cfg.MaxHolding = c.Evolution.MaxHolding
	}
	return cfg
}

// EvaluationConfig maps the evaluation section onto the evaluator configuration
func (c *Config) EvaluationConfig() evaluation.Config {
	return evaluation.Config{
		Objective:      evaluation.Objective(c.Evaluation.Objective),
		RiskAversion:   c.Evaluation.RiskAversion,
		RiskFreeRate:   c.Evaluation.RiskFreeRate,
		PeriodsPerYear: c.Evaluation.PeriodsPerYear,
	}
}
