package evolve

import "github.com/wonny/aegis/v13/optimizer/internal/portfolio"

// Evaluator scores a candidate portfolio.
// Evaluate caches the scores of the last call for ScaledScore/RealScore.
// A returned error is fatal for the running Evolver.
type Evaluator interface {
	Evaluate(p *portfolio.Portfolio) error
	// ScaledScore feeds selection; comparable only within one generation
	ScaledScore() float64
	// RealScore is reporting only (e.g. annualized return)
	RealScore() float64
}

// EvaluatorFunc adapts a plain function to Evaluator
type EvaluatorFunc func(p *portfolio.Portfolio) (scaled, real float64, err error)

type funcEvaluator struct {
	fn     EvaluatorFunc
	scaled float64
	real   float64
}

// NewFuncEvaluator wraps fn
func NewFuncEvaluator(fn EvaluatorFunc) Evaluator {
	return &funcEvaluator{fn: fn}
}

func (e *funcEvaluator) Evaluate(p *portfolio.Portfolio) error {
	scaled, real, err := e.fn(p)
	if err != nil {
		return err
	}
	e.scaled, e.real = scaled, real
	return nil
}

func (e *funcEvaluator) ScaledScore() float64 { return e.scaled }
func (e *funcEvaluator) RealScore() float64   { return e.real }
