package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// Objective selects what the MeanVariance evaluator maximizes
type Objective string

const (
	ObjectiveUtility Objective = "utility" // annual return - λ·annual variance
	ObjectiveSharpe  Objective = "sharpe"  // (annual return - rf) / annual volatility
	ObjectiveCVaR    Objective = "cvar"    // annual return - λ·CVaR95
)

const (
	// objectiveClamp bounds the exponent of the scaled score
	objectiveClamp = 50.0
	// minVolatility 이하는 변동성 0으로 취급 (부동소수 잡음)
	minVolatility = 1e-12
	// ObjectiveResolution is the grid the objective is rounded to before exp,
	// so near-identical portfolios tie exactly at any magnitude
	ObjectiveResolution = 1e-3
	// ScoreResolution is the absolute grid and floor of scaled scores.
	// Distinct scores differ by far more than portfolio.Epsilon.
	ScoreResolution = 1e-3
)

var (
	ErrUnknownObjective = errors.New("evaluation: unknown objective")
	ErrEmptyPortfolio   = errors.New("evaluation: portfolio has no allocation")
)

// ParseObjective validates an objective name
func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case ObjectiveUtility, ObjectiveSharpe, ObjectiveCVaR:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjective, s)
	}
}

// Config holds evaluator parameters
type Config struct {
	Objective      Objective
	RiskAversion   float64 // λ
	RiskFreeRate   float64 // 연 무위험 수익률
	PeriodsPerYear int     // 252 = 일별
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Objective:      ObjectiveSharpe,
		RiskAversion:   3.0,
		RiskFreeRate:   0.0,
		PeriodsPerYear: 252,
	}
}

// Metrics describes one evaluated portfolio
type Metrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	Sharpe           float64 `json:"sharpe"`
	VaR95            float64 `json:"var95"`
	CVaR95           float64 `json:"cvar95"`
	Objective        float64 `json:"objective"`
}

// MeanVariance scores portfolios against historical (or simulated) returns.
// It implements evolve.Evaluator; not safe for concurrent use.
type MeanVariance struct {
	cfg     Config
	returns *Returns
	buf     []float64

	last   Metrics
	scaled float64
}

// NewMeanVariance creates an evaluator bound to returns
func NewMeanVariance(returns *Returns, cfg Config) (*MeanVariance, error) {
	if returns == nil {
		return nil, errors.New("evaluation: returns are nil")
	}
	if _, err := ParseObjective(string(cfg.Objective)); err != nil {
		return nil, err
	}
	if cfg.PeriodsPerYear <= 0 {
		return nil, errors.New("evaluation: periods per year must be > 0")
	}
	if cfg.RiskAversion < 0 {
		return nil, errors.New("evaluation: risk aversion must be >= 0")
	}

	return &MeanVariance{
		cfg:     cfg,
		returns: returns,
		buf:     make([]float64, returns.Periods()),
	}, nil
}

// Evaluate scores p; the scaled score is exp of the objective rounded to
// ObjectiveResolution, then rounded to ScoreResolution and never below it
func (m *MeanVariance) Evaluate(p *portfolio.Portfolio) error {
	metrics, err := m.Measure(p)
	if err != nil {
		return err
	}

	m.last = metrics
	m.scaled = scaleObjective(metrics.Objective)
	return nil
}

// ScaledScore returns the selection score of the last evaluation
func (m *MeanVariance) ScaledScore() float64 { return m.scaled }

// RealScore returns the annualized return of the last evaluation
func (m *MeanVariance) RealScore() float64 { return m.last.AnnualReturn }

// Last returns the metrics of the last evaluation
func (m *MeanVariance) Last() Metrics { return m.last }

// Measure computes the metrics of p without touching the cached scores
func (m *MeanVariance) Measure(p *portfolio.Portfolio) (Metrics, error) {
	if p.Total() <= portfolio.Epsilon {
		return Metrics{}, ErrEmptyPortfolio
	}

	series := m.buf
	for t := range series {
		series[t] = 0
	}

	codes := p.Codes()
	weights := p.Weights()
	for i, code := range codes {
		if weights[i] == 0 {
			continue
		}
		r, ok := m.returns.Series(code)
		if !ok {
			return Metrics{}, fmt.Errorf("evaluation: no returns for %s", code)
		}
		floats.AddScaled(series, weights[i], r)
	}

	T := float64(m.cfg.PeriodsPerYear)
	mean, std := stat.MeanStdDev(series, nil)

	metrics := Metrics{
		AnnualReturn:     mean * T,
		AnnualVolatility: std * math.Sqrt(T),
	}
	if metrics.AnnualVolatility <= minVolatility {
		metrics.AnnualVolatility = 0
	} else {
		metrics.Sharpe = (metrics.AnnualReturn - m.cfg.RiskFreeRate) / metrics.AnnualVolatility
	}

	tail := CalculateVaR(series, 0.95)
	metrics.VaR95 = tail.VaR
	metrics.CVaR95 = tail.CVaR

	switch m.cfg.Objective {
	case ObjectiveUtility:
		metrics.Objective = metrics.AnnualReturn - m.cfg.RiskAversion*metrics.AnnualVolatility*metrics.AnnualVolatility
	case ObjectiveSharpe:
		metrics.Objective = metrics.Sharpe
	case ObjectiveCVaR:
		metrics.Objective = metrics.AnnualReturn - m.cfg.RiskAversion*metrics.CVaR95
	}

	return metrics, nil
}

// scaleObjective maps an objective onto the strictly positive selection scale
func scaleObjective(objective float64) float64 {
	obj := clamp(objective, -objectiveClamp, objectiveClamp)
	obj = math.Round(obj/ObjectiveResolution) * ObjectiveResolution
	return quantize(math.Exp(obj))
}

// quantize is a no-op above ~1e13 where the objective grid already separates scores
func quantize(score float64) float64 {
	return math.Max(ScoreResolution, math.Round(score/ScoreResolution)*ScoreResolution)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
