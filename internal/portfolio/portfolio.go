package portfolio

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Epsilon is the negligible-amount threshold.
// Amounts <= Epsilon are treated as zero for totals and normalization
// but stay addressable through Get/Has.
const Epsilon = 1e-5

var (
	// ErrZeroTotal is returned when rebalancing against a portfolio without allocation
	ErrZeroTotal = errors.New("portfolio: source total is zero")
	// ErrRebalanceDrift is returned when a rebalance failed to preserve the own total
	ErrRebalanceDrift = errors.New("portfolio: rebalance changed total")
)

// Portfolio maps asset codes to allocated amounts
// ⭐ SSOT: order는 모든 연산의 기준 순회 순서
type Portfolio struct {
	order   []string
	amounts map[string]float64
}

// New creates an empty portfolio
func New() *Portfolio {
	return &Portfolio{
		order:   make([]string, 0),
		amounts: make(map[string]float64),
	}
}

// FromAmounts builds a portfolio from codes and amounts given in the same order
func FromAmounts(codes []string, amounts []float64) (*Portfolio, error) {
	if len(codes) != len(amounts) {
		return nil, fmt.Errorf("codes/amounts length mismatch: %d != %d", len(codes), len(amounts))
	}

	p := New()
	for i, code := range codes {
		p.Set(code, amounts[i])
	}
	return p, nil
}

// NormalizeCode canonicalizes a ticker symbol (trim + upper-case)
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Set upserts the amount of a code; unseen codes are appended to the order
func (p *Portfolio) Set(code string, amount float64) {
	if _, ok := p.amounts[code]; !ok {
		p.order = append(p.order, code)
	}
	p.amounts[code] = amount
}

// Clear removes every code
func (p *Portfolio) Clear() {
	p.order = p.order[:0]
	p.amounts = make(map[string]float64)
}

// ZeroAll sets every known amount to 0 and keeps the codes
func (p *Portfolio) ZeroAll() {
	for _, code := range p.order {
		p.amounts[code] = 0
	}
}

// Clone returns a deep copy
func (p *Portfolio) Clone() *Portfolio {
	c := &Portfolio{
		order:   make([]string, len(p.order)),
		amounts: make(map[string]float64, len(p.amounts)),
	}
	copy(c.order, p.order)
	for code, amount := range p.amounts {
		c.amounts[code] = amount
	}
	return c
}

// Get returns the amount of a code, 0 if unknown
func (p *Portfolio) Get(code string) float64 {
	return p.amounts[code]
}

// Has reports whether the code is known
func (p *Portfolio) Has(code string) bool {
	_, ok := p.amounts[code]
	return ok
}

// Codes returns a copy of the codes in insertion order
func (p *Portfolio) Codes() []string {
	codes := make([]string, len(p.order))
	copy(codes, p.order)
	return codes
}

// Len returns the number of known codes
func (p *Portfolio) Len() int {
	return len(p.order)
}

// Total sums all amounts above Epsilon
func (p *Portfolio) Total() float64 {
	var total float64
	for _, code := range p.order {
		if amount := p.amounts[code]; amount > Epsilon {
			total += amount
		}
	}
	return total
}

// Normalize rescales every amount above Epsilon so that Total() == target.
// Amounts <= Epsilon are left as they are. No-op when the total is 0.
func (p *Portfolio) Normalize(target float64) {
	total := p.Total()
	if total == 0 {
		return
	}

	factor := target / total
	for _, code := range p.order {
		if amount := p.amounts[code]; amount > Epsilon {
			p.amounts[code] = amount * factor
		}
	}
}

// Rebalance copies the percentage split of other onto p while keeping p's total.
// Amounts <= Epsilon in other count as 0.
func (p *Portfolio) Rebalance(other *Portfolio) error {
	otherTotal := other.Total()
	if otherTotal <= Epsilon {
		return ErrZeroTotal
	}

	total := p.Total()
	next := make([]float64, len(p.order))
	var nextTotal float64
	for i, code := range p.order {
		share := other.Get(code)
		if share <= Epsilon {
			share = 0
		}
		next[i] = share / otherTotal * total
		if next[i] > Epsilon {
			nextTotal += next[i]
		}
	}

	// p stays untouched unless the total is preserved
	if drift := math.Abs(nextTotal - total); drift > Epsilon {
		return fmt.Errorf("%w: %.8f -> %.8f", ErrRebalanceDrift, total, nextTotal)
	}
	for i, code := range p.order {
		p.amounts[code] = next[i]
	}
	return nil
}

// Weights returns each code's share of Total() in order (all zero when empty)
func (p *Portfolio) Weights() []float64 {
	weights := make([]float64, len(p.order))
	total := p.Total()
	if total == 0 {
		return weights
	}

	for i, code := range p.order {
		if amount := p.amounts[code]; amount > Epsilon {
			weights[i] = amount / total
		}
	}
	return weights
}

// Amounts returns a copy of the code -> amount mapping
func (p *Portfolio) Amounts() map[string]float64 {
	out := make(map[string]float64, len(p.amounts))
	for code, amount := range p.amounts {
		out[code] = amount
	}
	return out
}

// String renders "A:1.00 B:2.00" in order
func (p *Portfolio) String() string {
	var sb strings.Builder
	for i, code := range p.order {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:%.2f", code, p.amounts[code])
	}
	return sb.String()
}
