package portfolio

// CapHoldings zeroes every amount above max.
// Reports whether any holding was zeroed; the caller renormalizes once afterwards.
func (p *Portfolio) CapHoldings(max float64) bool {
	corrected := false
	for _, code := range p.order {
		if p.amounts[code] > max {
			p.amounts[code] = 0
			corrected = true
		}
	}
	return corrected
}

// Swap exchanges the amount of the i-th code between a and b.
// Both portfolios must share the same order.
func Swap(a, b *Portfolio, i int) {
	code := a.order[i]
	a.amounts[code], b.amounts[code] = b.amounts[code], a.amounts[code]
}

// Scale multiplies the amount of the i-th code by factor
func (p *Portfolio) Scale(i int, factor float64) {
	code := p.order[i]
	p.amounts[code] *= factor
}
