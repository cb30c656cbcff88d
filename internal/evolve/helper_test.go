package evolve

import (
	"errors"
	"math"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// seqRand replays a fixed sequence of draws, then repeats the last one
type seqRand struct {
	values []float64
	pos    int
}

func (s *seqRand) Float64() float64 {
	if s.pos >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

// prefEvaluator scores 1 + sum(weight * preference), rounded to 1e-4 so
// converged near-clones tie exactly
type prefEvaluator struct {
	prefs  map[string]float64
	calls  int
	failAt int // 0 = never
	scaled float64
	real   float64
}

func newPrefEvaluator() *prefEvaluator {
	return &prefEvaluator{prefs: map[string]float64{"A": 3, "B": 1, "C": 0}}
}

func (e *prefEvaluator) Evaluate(p *portfolio.Portfolio) error {
	e.calls++
	if e.failAt > 0 && e.calls >= e.failAt {
		return errors.New("backtest unavailable")
	}

	codes := p.Codes()
	weights := p.Weights()
	e.scaled = 1
	e.real = 0
	for i, code := range codes {
		e.scaled += weights[i] * e.prefs[code]
		if code == "A" {
			e.real = weights[i]
		}
	}
	e.scaled = math.Round(e.scaled*1e4) / 1e4
	return nil
}

func (e *prefEvaluator) ScaledScore() float64 { return e.scaled }
func (e *prefEvaluator) RealScore() float64   { return e.real }

// listEvaluator returns scores from a list, in call order
type listEvaluator struct {
	scores []float64
	pos    int
}

func (e *listEvaluator) Evaluate(*portfolio.Portfolio) error {
	e.pos++
	return nil
}

func (e *listEvaluator) ScaledScore() float64 { return e.scores[(e.pos-1)%len(e.scores)] }
func (e *listEvaluator) RealScore() float64   { return -e.ScaledScore() }

func template3(total float64) *portfolio.Portfolio {
	p := portfolio.New()
	p.Set("A", total/3)
	p.Set("B", total/3)
	p.Set("C", total/3)
	return p
}

func pair(a, b float64) *portfolio.Portfolio {
	p := portfolio.New()
	p.Set("A", a)
	p.Set("B", b)
	return p
}

func population(n int) []*portfolio.Portfolio {
	out := make([]*portfolio.Portfolio, n)
	for i := range out {
		out[i] = pair(float64(i+1), 1)
	}
	return out
}
