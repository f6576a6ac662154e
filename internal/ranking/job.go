package ranking

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mimyapp/tasteranker/internal/visit"
)

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the centralized job metrics system.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// RecomputeJobConfig configures the ranking recompute job.
type RecomputeJobConfig struct {
	// Interval is the duration between recompute cycles.
	Interval time.Duration
	// Timeout for each recompute cycle.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// DefaultRecomputeInterval is the default interval between recompute cycles.
const DefaultRecomputeInterval = 6 * time.Hour

// DefaultRecomputeTimeout is the default timeout for a single recompute cycle.
const DefaultRecomputeTimeout = 10 * time.Minute

// JobTypeRankingRecompute labels this job in the centralized job metrics.
const JobTypeRankingRecompute = "ranking_recompute"

// BatchResult summarizes one recompute cycle.
type BatchResult struct {
	// RunID identifies the cycle across log lines.
	RunID string
	// Users is the number of users considered.
	Users int
	// Succeeded is the number of users whose rank list was rebuilt.
	Succeeded int
	// Failed is the number of users skipped due to an error.
	Failed int
	// EntriesWritten is the total number of rank entries persisted.
	EntriesWritten int
	// Duration is the wall-clock time of the cycle.
	Duration time.Duration
}

// RecomputeJob periodically rebuilds every user's rank list. The user set is
// the union of users with active visits and users with a persisted rank list,
// so users whose last visit was deleted get their stale list cleared.
type RecomputeJob struct {
	config    RecomputeJobConfig
	rebuilder *Rebuilder
	visits    visit.Store
	ranks     Store

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeJob creates a new ranking recompute job.
func NewRecomputeJob(
	rebuilder *Rebuilder,
	visits visit.Store,
	ranks Store,
	config RecomputeJobConfig,
) *RecomputeJob {
	if config.Interval == 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRecomputeTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &RecomputeJob{
		config:    config,
		rebuilder: rebuilder,
		visits:    visits,
		ranks:     ranks,
	}
}

// Start begins the periodic recompute job.
// Returns immediately; the job runs in a background goroutine.
func (j *RecomputeJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the recompute job to stop and waits for it to finish.
func (j *RecomputeJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RecomputeJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the recompute job.
func (j *RecomputeJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("ranking recompute job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("ranking recompute job stopping due to stop signal")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single recompute cycle over every known user. Per-user
// failures are logged and counted but never abort the cycle.
func (j *RecomputeJob) RunOnce(parentCtx context.Context) BatchResult {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	result := BatchResult{RunID: uuid.NewString()}
	startTime := time.Now()

	userIDs, err := j.collectUsers(ctx)
	if err != nil {
		j.config.Logger.Error("failed to enumerate users for ranking recompute",
			"run_id", result.RunID,
			"error", err)
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(JobTypeRankingRecompute, "enumeration_error")
			j.config.JobMetrics.IncJobsTotal(JobTypeRankingRecompute, "failure")
		}
		result.Duration = time.Since(startTime)
		return result
	}
	result.Users = len(userIDs)

	j.config.Logger.Info("ranking recompute started",
		"run_id", result.RunID,
		"users", result.Users,
		"policy", string(j.rebuilder.Policy()))

	for i, userID := range userIDs {
		select {
		case <-ctx.Done():
			j.config.Logger.Error("ranking recompute timeout exceeded",
				"run_id", result.RunID,
				"processed", i,
				"total", result.Users,
				"timeout", j.config.Timeout)
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(JobTypeRankingRecompute, "timeout")
			}
			result.Failed += result.Users - i
			return j.finish(result, startTime)
		default:
		}

		written, err := j.rebuilder.RebuildUser(ctx, userID)
		if err != nil {
			j.config.Logger.Error("failed to rebuild rank list",
				"run_id", result.RunID,
				"user_id", userID,
				"error", err)
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(JobTypeRankingRecompute, "rebuild_error")
			}
			result.Failed++
			continue
		}
		result.Succeeded++
		result.EntriesWritten += written

		if (i+1)%100 == 0 {
			j.config.Logger.Debug("ranking recompute progress",
				"run_id", result.RunID,
				"processed", i+1,
				"total", result.Users)
		}
	}

	return j.finish(result, startTime)
}

// collectUsers returns the union of users with active visits and users with
// a persisted rank list, sorted and deduplicated.
func (j *RecomputeJob) collectUsers(ctx context.Context) ([]int64, error) {
	authors, err := j.visits.ActiveAuthors(ctx)
	if err != nil {
		return nil, err
	}
	ranked, err := j.ranks.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(authors)+len(ranked))
	union := make([]int64, 0, len(authors)+len(ranked))
	for _, id := range authors {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	for _, id := range ranked {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	sort.Slice(union, func(a, b int) bool { return union[a] < union[b] })
	return union, nil
}

// finish records metrics and the completion log for a cycle.
func (j *RecomputeJob) finish(result BatchResult, startTime time.Time) BatchResult {
	result.Duration = time.Since(startTime)

	status := "success"
	if result.Failed > 0 {
		status = "failure"
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(JobTypeRankingRecompute, status)
		j.config.JobMetrics.ObserveJobDuration(JobTypeRankingRecompute, result.Duration.Seconds())
	}

	j.config.Logger.Info("ranking recompute completed",
		"run_id", result.RunID,
		"duration_seconds", result.Duration.Seconds(),
		"users_succeeded", result.Succeeded,
		"users_failed", result.Failed,
		"entries_written", result.EntriesWritten)
	return result
}
