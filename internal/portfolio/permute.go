package portfolio

import (
	"errors"
)

var (
	// ErrEmptyUniverse is returned when the template has no codes
	ErrEmptyUniverse = errors.New("portfolio: template has no assets")
	// ErrNonPositiveTotal is returned when the target total is <= 0
	ErrNonPositiveTotal = errors.New("portfolio: target total must be > 0")
	// ErrNilRandom is returned when no random source is supplied
	ErrNilRandom = errors.New("portfolio: random source is nil")
	// ErrDegenerateRandom is returned when every draw stays 0 for maxRedraws rounds
	ErrDegenerateRandom = errors.New("portfolio: random source keeps returning 0")
)

// maxRedraws bounds the all-zero redraw loop of Next
const maxRedraws = 100

// Permuter generates uniformly randomized portfolios over a fixed universe
// ⭐ SSOT: 초기 모집단 생성은 여기서만
type Permuter struct {
	template *Portfolio
	total    float64
	rng      RandomSource
}

// NewPermuter binds a generator to the template's codes and a target total
func NewPermuter(template *Portfolio, total float64, rng RandomSource) (*Permuter, error) {
	if template == nil || template.Len() == 0 {
		return nil, ErrEmptyUniverse
	}
	if total <= 0 {
		return nil, ErrNonPositiveTotal
	}
	if rng == nil {
		return nil, ErrNilRandom
	}

	return &Permuter{
		template: template.Clone(),
		total:    total,
		rng:      rng,
	}, nil
}

// Total returns the target total
func (g *Permuter) Total() float64 {
	return g.total
}

// Next returns a new portfolio with random amounts summing to the target total
func (g *Permuter) Next() (*Portfolio, error) {
	p := g.template.Clone()
	p.ZeroAll()

	// 모든 draw가 0이면 다시 뽑음
	var sum float64
	for round := 0; sum == 0; round++ {
		if round == maxRedraws {
			return nil, ErrDegenerateRandom
		}
		for _, code := range p.order {
			draw := g.rng.Float64()
			p.amounts[code] = draw
			sum += draw
		}
	}

	factor := g.total / sum
	for _, code := range p.order {
		p.amounts[code] *= factor
	}

	return p, nil
}
