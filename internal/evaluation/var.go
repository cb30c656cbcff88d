package evaluation

import (
	"math"
	"sort"
)

// VaRResult VaR 계산 결과
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
// - VaR=0.05 → 해당 신뢰수준에서 기간당 최대 5% 손실 가능
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순 정렬: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPositive(sorted[idx]),
		CVaR:       lossPositive(tailMean(sorted, idx)),
	}
}

// tailMean averages sorted[0..idx] (Expected Shortfall tail)
func tailMean(sorted []float64, idx int) float64 {
	var sum float64
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	return sum / float64(idx+1)
}

func lossPositive(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
