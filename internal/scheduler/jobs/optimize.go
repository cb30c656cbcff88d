package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// Sink receives each completed optimization
type Sink func(*optimizer.Result)

// OptimizeJob re-runs an optimization from a run file on a schedule.
// The file is reloaded on every run so edits apply to the next tick.
type OptimizeJob struct {
	name       string
	schedule   string
	configPath string
	base       *runconfig.Config
	service    *optimizer.Service
	sink       Sink
	logger     *logger.Logger

	mu   sync.RWMutex
	last *optimizer.Result
}

// NewOptimizeJob creates a new optimization job.
// base is the baseline the run file is decoded onto (nil = runconfig.Default()); sink may be nil.
func NewOptimizeJob(
	name, schedule, configPath string,
	base *runconfig.Config,
	service *optimizer.Service,
	sink Sink,
	log *logger.Logger,
) *OptimizeJob {
	if log == nil {
		log = logger.Nop()
	}
	if base == nil {
		base = runconfig.Default()
	}
	return &OptimizeJob{
		name:       name,
		schedule:   schedule,
		configPath: configPath,
		base:       base,
		service:    service,
		sink:       sink,
		logger:     log,
	}
}

// Name returns the job name
func (j *OptimizeJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule
func (j *OptimizeJob) Schedule() string {
	return j.schedule
}

// Run loads the run file and executes one optimization
func (j *OptimizeJob) Run(ctx context.Context) error {
	cfg, _, err := runconfig.LoadOnto(j.configPath, j.base)
	if err != nil {
		return fmt.Errorf("load %s: %w", j.configPath, err)
	}

	result, err := j.service.Run(ctx, cfg)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	j.logger.WithFields(map[string]interface{}{
		"job":        j.name,
		"run_id":     result.RunID,
		"best_score": result.Best.Score,
	}).Debug("Scheduled optimization stored")

	if j.sink != nil {
		j.sink(result)
	}
	return nil
}

// Last returns the most recent successful result, nil before the first run
func (j *OptimizeJob) Last() *optimizer.Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
