package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// A: 평균 0.01, 변동 / B: 상수 0.01
func fixtureReturns(t *testing.T) *Returns {
	t.Helper()
	r, err := NewReturns(
		[]string{"A", "B"},
		[][]float64{
			{0.02, 0.00, 0.02, 0.00},
			{0.01, 0.01, 0.01, 0.01},
		},
	)
	require.NoError(t, err)
	return r
}

func holding(t *testing.T, a, b float64) *portfolio.Portfolio {
	t.Helper()
	p, err := portfolio.FromAmounts([]string{"A", "B"}, []float64{a, b})
	require.NoError(t, err)
	return p
}

func TestParseObjective(t *testing.T) {
	for _, s := range []string{"utility", "sharpe", "cvar"} {
		o, err := ParseObjective(s)
		require.NoError(t, err)
		assert.Equal(t, Objective(s), o)
	}

	_, err := ParseObjective("sortino")
	assert.ErrorIs(t, err, ErrUnknownObjective)
}

func TestNewMeanVariance_Invalid(t *testing.T) {
	r := fixtureReturns(t)

	_, err := NewMeanVariance(nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Objective = "max"
	_, err = NewMeanVariance(r, cfg)
	assert.ErrorIs(t, err, ErrUnknownObjective)

	cfg = DefaultConfig()
	cfg.PeriodsPerYear = 0
	_, err = NewMeanVariance(r, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.RiskAversion = -1
	_, err = NewMeanVariance(r, cfg)
	assert.Error(t, err)
}

func TestMeanVariance_Measure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RiskFreeRate = 0.02
	mv, err := NewMeanVariance(fixtureReturns(t), cfg)
	require.NoError(t, err)

	m, err := mv.Measure(holding(t, 1, 0))
	require.NoError(t, err)

	wantVol := math.Sqrt(4e-4/3) * math.Sqrt(252)
	assert.InDelta(t, 2.52, m.AnnualReturn, 1e-9)
	assert.InDelta(t, wantVol, m.AnnualVolatility, 1e-9)
	assert.InDelta(t, (2.52-0.02)/wantVol, m.Sharpe, 1e-9)
	assert.InDelta(t, m.Sharpe, m.Objective, 1e-12)
	assert.Equal(t, 0.0, m.VaR95)
}

func TestMeanVariance_MixedWeights(t *testing.T) {
	mv, err := NewMeanVariance(fixtureReturns(t), DefaultConfig())
	require.NoError(t, err)

	// 50/50 → 수익률 {0.015, 0.005, 0.015, 0.005}
	m, err := mv.Measure(holding(t, 5, 5))
	require.NoError(t, err)
	assert.InDelta(t, 2.52, m.AnnualReturn, 1e-9)
	assert.InDelta(t, math.Sqrt(1e-4/3)*math.Sqrt(252), m.AnnualVolatility, 1e-9)
}

func TestMeanVariance_Objectives(t *testing.T) {
	r := fixtureReturns(t)

	tests := []struct {
		name      string
		objective Objective
		want      func(m Metrics) float64
	}{
		{"utility", ObjectiveUtility, func(m Metrics) float64 {
			return m.AnnualReturn - 3*m.AnnualVolatility*m.AnnualVolatility
		}},
		{"sharpe", ObjectiveSharpe, func(m Metrics) float64 { return m.Sharpe }},
		{"cvar", ObjectiveCVaR, func(m Metrics) float64 { return m.AnnualReturn - 3*m.CVaR95 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Objective = tt.objective
			mv, err := NewMeanVariance(r, cfg)
			require.NoError(t, err)

			m, err := mv.Measure(holding(t, 3, 7))
			require.NoError(t, err)
			assert.InDelta(t, tt.want(m), m.Objective, 1e-12)
		})
	}
}

func TestMeanVariance_Evaluate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Objective = ObjectiveUtility
	mv, err := NewMeanVariance(fixtureReturns(t), cfg)
	require.NoError(t, err)

	// B만 보유: 변동성 0 → utility = 연 수익률
	require.NoError(t, mv.Evaluate(holding(t, 0, 10)))
	assert.InDelta(t, 2.52, mv.RealScore(), 1e-9)
	assert.InDelta(t, math.Exp(2.52), mv.ScaledScore(), ScoreResolution)
	assert.InDelta(t, 0.0, mv.Last().AnnualVolatility, 1e-12)
	assert.Greater(t, mv.ScaledScore(), 0.0)
}

func TestMeanVariance_ZeroVolatilitySharpe(t *testing.T) {
	mv, err := NewMeanVariance(fixtureReturns(t), DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, mv.Evaluate(holding(t, 0, 1)))
	assert.Equal(t, 0.0, mv.Last().Sharpe)
	assert.InDelta(t, 1.0, mv.ScaledScore(), 1e-12)
}

func TestMeanVariance_ClampsScaledScore(t *testing.T) {
	r, err := NewReturns([]string{"A"}, [][]float64{{1, 1, 1}})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Objective = ObjectiveUtility
	mv, err := NewMeanVariance(r, cfg)
	require.NoError(t, err)

	p, err := portfolio.FromAmounts([]string{"A"}, []float64{1})
	require.NoError(t, err)
	require.NoError(t, mv.Evaluate(p))

	assert.InDelta(t, 252.0, mv.RealScore(), 1e-9)
	assert.InEpsilon(t, math.Exp(objectiveClamp), mv.ScaledScore(), 1e-9)
	assert.False(t, math.IsInf(mv.ScaledScore(), 0))
}

func TestMeanVariance_Errors(t *testing.T) {
	mv, err := NewMeanVariance(fixtureReturns(t), DefaultConfig())
	require.NoError(t, err)

	err = mv.Evaluate(holding(t, 0, 0))
	assert.ErrorIs(t, err, ErrEmptyPortfolio)

	p, err := portfolio.FromAmounts([]string{"A", "Z"}, []float64{1, 1})
	require.NoError(t, err)
	err = mv.Evaluate(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no returns for Z")

	// 보유량 0인 미지 종목은 무시
	p, err = portfolio.FromAmounts([]string{"A", "Z"}, []float64{1, 0})
	require.NoError(t, err)
	assert.NoError(t, mv.Evaluate(p))
}

func TestMeanVariance_QuantizedScores(t *testing.T) {
	mv, err := NewMeanVariance(fixtureReturns(t), DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, mv.Evaluate(holding(t, 3, 7)))
	first := mv.ScaledScore()
	require.Greater(t, first, 1e13, "fixture Sharpe is large enough that an absolute grid is below one ulp")

	// 부동소수 잡음 수준의 차이는 같은 점수
	require.NoError(t, mv.Evaluate(holding(t, 3*(1+1e-15), 7)))
	assert.Equal(t, first, mv.ScaledScore())

	require.NoError(t, mv.Evaluate(holding(t, 3, 7*(1+1e-14))))
	assert.Equal(t, first, mv.ScaledScore())
}

func TestScaleObjective(t *testing.T) {
	tests := []struct {
		name      string
		objective float64
		want      float64
	}{
		{"zero", 0, 1},
		{"on grid", 2.52, math.Round(math.Exp(2.52)/ScoreResolution) * ScoreResolution},
		{"below floor", -20, ScoreResolution},
		{"clamped high", 80, math.Exp(objectiveClamp)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InEpsilon(t, tt.want, scaleObjective(tt.objective), 1e-12)
		})
	}

	// 큰 목적 함수값에서도 잡음 수준 차이는 동점, 격자 한 칸 차이는 Epsilon보다 훨씬 큼
	assert.Equal(t, scaleObjective(45.8), scaleObjective(45.8+1e-12))
	assert.Greater(t, scaleObjective(45.801)-scaleObjective(45.8), 1.0)
	assert.Greater(t, scaleObjective(0.001)-scaleObjective(0), 1e-4)
}

func TestMeanVariance_ScoreFloor(t *testing.T) {
	r, err := NewReturns([]string{"A"}, [][]float64{{-1, -1, -1}})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Objective = ObjectiveUtility
	mv, err := NewMeanVariance(r, cfg)
	require.NoError(t, err)

	p, err := portfolio.FromAmounts([]string{"A"}, []float64{1})
	require.NoError(t, err)
	require.NoError(t, mv.Evaluate(p))
	assert.Equal(t, ScoreResolution, mv.ScaledScore())
}
