package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// OptimizeHandler handles optimization endpoints
// ⭐ SSOT: 최적화 API 핸들러는 이 구조체에서만
type OptimizeHandler struct {
	service        *optimizer.Service
	base           *runconfig.Config
	maxGenerations int
	logger         *logger.Logger
}

// NewOptimizeHandler creates a new optimize handler.
// Request bodies are decoded onto base (nil = runconfig.Default()).
func NewOptimizeHandler(service *optimizer.Service, base *runconfig.Config, maxGenerations int, log *logger.Logger) *OptimizeHandler {
	if base == nil {
		base = runconfig.Default()
	}
	return &OptimizeHandler{
		service:        service,
		base:           base,
		maxGenerations: maxGenerations,
		logger:         log,
	}
}

// Optimize runs one optimization synchronously
// POST /api/optimize
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	cfg := h.baseline()
	if err := decodeJSON(w, r, cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.check(cfg); err != nil {
		h.respondRunError(w, err)
		return
	}

	result, err := h.service.Run(r.Context(), cfg)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// baseline returns a fresh copy of the request baseline
func (h *OptimizeHandler) baseline() *runconfig.Config {
	cfg := *h.base
	cfg.Universe.Assets = nil
	return &cfg
}

// check validates a config received over HTTP
func (h *OptimizeHandler) check(cfg *runconfig.Config) error {
	if err := runconfig.Validate(cfg); err != nil {
		return err
	}
	// 서버 파일 시스템 접근 차단
	if cfg.Evaluation.ReturnsFile != "" {
		return runconfig.ValidationError{Field: "evaluation.returns_file", Message: "not accepted over HTTP"}
	}
	if cfg.Evolution.Generations > h.maxGenerations {
		return runconfig.ValidationError{
			Field:   "evolution.generations",
			Message: fmt.Sprintf("must be <= %d", h.maxGenerations),
		}
	}
	return nil
}

func (h *OptimizeHandler) respondRunError(w http.ResponseWriter, err error) {
	var verr runconfig.ValidationError
	switch {
	case errors.As(err, &verr):
		respondValidation(w, verr)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "Optimization cancelled")
	default:
		h.logger.WithError(err).Error("Optimization failed")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	}
}
