package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// maxPermuteCount 요청당 샘플 수 상한
const maxPermuteCount = 10000

// PermuteHandler samples random allocations
type PermuteHandler struct {
	logger *logger.Logger
}

// NewPermuteHandler creates a new permute handler
func NewPermuteHandler(log *logger.Logger) *PermuteHandler {
	return &PermuteHandler{logger: log}
}

// PermuteRequest represents a sampling request
type PermuteRequest struct {
	Codes []string `json:"codes"`
	Total float64  `json:"total"`
	Count int      `json:"count"`
	Seed  int64    `json:"seed"` // 0 = 시간 기반
}

// PermuteSample is one sampled allocation, amounts in codes order
type PermuteSample struct {
	Amounts []float64 `json:"amounts"`
	Total   float64   `json:"total"`
}

// PermuteResponse represents the sampled allocations
type PermuteResponse struct {
	Codes   []string        `json:"codes"`
	Total   float64         `json:"total"`
	Samples []PermuteSample `json:"samples"`
}

// Permute draws random allocations over a universe
// POST /api/permute
func (h *PermuteHandler) Permute(w http.ResponseWriter, r *http.Request) {
	var req PermuteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 || req.Count > maxPermuteCount {
		respondError(w, http.StatusBadRequest, "count must be in [1, 10000]")
		return
	}

	template := portfolio.New()
	for _, code := range req.Codes {
		code = portfolio.NormalizeCode(code)
		if code == "" || template.Has(code) {
			respondError(w, http.StatusBadRequest, "codes must be non-empty and unique")
			return
		}
		template.Set(code, 0)
	}

	permuter, err := portfolio.NewPermuter(template, req.Total, portfolio.NewRand(req.Seed))
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrEmptyUniverse), errors.Is(err, portfolio.ErrNonPositiveTotal):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).Error("Failed to create permuter")
			respondError(w, http.StatusInternalServerError, "Failed to sample allocations")
		}
		return
	}

	resp := PermuteResponse{
		Codes:   template.Codes(),
		Total:   permuter.Total(),
		Samples: make([]PermuteSample, req.Count),
	}
	for i := range resp.Samples {
		p, err := permuter.Next()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		amounts := make([]float64, 0, p.Len())
		for _, code := range resp.Codes {
			amounts = append(amounts, p.Get(code))
		}
		resp.Samples[i] = PermuteSample{Amounts: amounts, Total: p.Total()}
	}

	respondJSON(w, http.StatusOK, resp)
}
