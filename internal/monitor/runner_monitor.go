package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"volaticloud/internal/ent"
	"volaticloud/internal/ent/botrunner"
	"volaticloud/internal/enum"
	"volaticloud/internal/logger"
	"volaticloud/internal/pubsub"
)

const (
	// DefaultRunnerMonitorInterval is how often to check runner data status
	DefaultRunnerMonitorInterval = 5 * time.Minute

	// RunnerMonitorBatchSize is how many runners to check per batch
	RunnerMonitorBatchSize = 5

	// DataRefreshInterval is how often data should be refreshed (24 hours)
	DataRefreshInterval = 24 * time.Hour

	// DefaultDataDownloadTimeout is the hard cap on a single download attempt,
	// regardless of whether it is still reporting progress.
	DefaultDataDownloadTimeout = 12 * time.Hour

	// StuckDownloadNoProgressTimeout marks a download stuck if its reported
	// progress hasn't changed for this long.
	StuckDownloadNoProgressTimeout = 5 * time.Minute
)

// progressSnapshot records the last observed download progress for a runner,
// used to detect a download that has stopped reporting progress.
type progressSnapshot struct {
	percent    float64
	observedAt time.Time
}

// RunnerMonitor periodically checks runner data status and triggers downloads
type RunnerMonitor struct {
	dbClient    *ent.Client
	coordinator *Coordinator
	interval    time.Duration
	pubsub      pubsub.PubSub

	// DataDownloadTimeout is the hard cap on a single download attempt.
	DataDownloadTimeout time.Duration
	// RetryFailedDownloads controls whether a runner whose last download
	// attempt failed is automatically retried on the next check. Off by
	// default - a failed download usually needs operator attention (bad
	// exchange config, expired credentials) rather than an automatic retry.
	RetryFailedDownloads bool

	progressMu sync.Mutex
	progress   map[string]progressSnapshot

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewRunnerMonitor creates a new runner monitoring worker
func NewRunnerMonitor(dbClient *ent.Client, coordinator *Coordinator) *RunnerMonitor {
	return &RunnerMonitor{
		dbClient:            dbClient,
		coordinator:         coordinator,
		interval:            DefaultRunnerMonitorInterval,
		DataDownloadTimeout: DefaultDataDownloadTimeout,
		progress:            make(map[string]progressSnapshot),
		stopChan:            make(chan struct{}),
		doneChan:            make(chan struct{}),
	}
}

// SetInterval sets the monitoring interval
func (m *RunnerMonitor) SetInterval(interval time.Duration) {
	m.interval = interval
}

// SetPubSub wires in the event bus used to publish download progress.
func (m *RunnerMonitor) SetPubSub(ps pubsub.PubSub) {
	m.pubsub = ps
}

// GetDataDownloadTimeout returns the hard cap on a single download attempt.
func (m *RunnerMonitor) GetDataDownloadTimeout() time.Duration {
	return m.DataDownloadTimeout
}

// SetDataDownloadTimeout overrides the hard cap on a single download attempt.
func (m *RunnerMonitor) SetDataDownloadTimeout(timeout time.Duration) {
	m.DataDownloadTimeout = timeout
}

// Start begins the monitoring loop
func (m *RunnerMonitor) Start(ctx context.Context) error {
	logger.GetLogger(ctx).Info("starting runner monitor", zap.Duration("interval", m.interval))
	go m.monitorLoop(ctx)
	return nil
}

// Stop stops the monitoring loop
func (m *RunnerMonitor) Stop() {
	close(m.stopChan)
	<-m.doneChan
}

// monitorLoop runs the periodic check loop
func (m *RunnerMonitor) monitorLoop(ctx context.Context) {
	defer close(m.doneChan)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkAllRunners(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.GetLogger(ctx).Info("runner monitor stopped, context cancelled")
			return
		case <-m.stopChan:
			logger.GetLogger(ctx).Info("runner monitor stopped")
			return
		case <-ticker.C:
			m.checkAllRunners(ctx)
		}
	}
}

// checkAllRunners checks all runners and triggers data downloads if needed
func (m *RunnerMonitor) checkAllRunners(ctx context.Context) {
	log := logger.GetLogger(ctx)
	runners, err := m.dbClient.BotRunner.Query().
		Order(ent.Asc(botrunner.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		log.Error("failed to query runners", zap.Error(err))
		return
	}

	if len(runners) == 0 {
		return
	}

	// Filter to the runners this instance owns before batching, so a batch
	// never does coordination bookkeeping for work another instance holds.
	assigned := make([]*ent.BotRunner, 0, len(runners))
	for _, r := range runners {
		if m.coordinator.ShouldMonitor(r.ID.String()) {
			assigned = append(assigned, r)
		}
	}
	if len(assigned) == 0 {
		return
	}

	log.Debug("checking runners", zap.Int("assigned", len(assigned)), zap.Int("total", len(runners)))

	for i := 0; i < len(assigned); i += RunnerMonitorBatchSize {
		end := i + RunnerMonitorBatchSize
		if end > len(assigned) {
			end = len(assigned)
		}
		m.checkRunnerBatch(ctx, assigned[i:end])
	}
}

// checkRunnerBatch checks a batch of runners already filtered to this instance.
func (m *RunnerMonitor) checkRunnerBatch(ctx context.Context, runners []*ent.BotRunner) {
	for _, r := range runners {
		m.checkRunner(ctx, r)
	}
}

// checkRunner checks a single runner and triggers data download if needed
func (m *RunnerMonitor) checkRunner(ctx context.Context, r *ent.BotRunner) {
	log := logger.GetLogger(ctx)

	if r.DataDownloadStatus == enum.DataDownloadStatusDownloading {
		m.checkStuckDownload(ctx, r)
		return
	}

	m.clearProgressTracking(r.ID.String())

	needsDownload := false
	reason := ""

	switch {
	case !r.DataIsReady:
		needsDownload = true
		reason = "data not downloaded yet"
	case r.DataDownloadStatus == enum.DataDownloadStatusFailed:
		if m.RetryFailedDownloads {
			needsDownload = true
			reason = "retrying failed download"
		}
	case !r.DataLastUpdated.IsZero():
		timeSinceUpdate := time.Since(r.DataLastUpdated)
		if timeSinceUpdate > DataRefreshInterval {
			needsDownload = true
			reason = fmt.Sprintf("data outdated (last updated: %v ago)", timeSinceUpdate.Round(time.Hour))
		}
	}

	if needsDownload {
		log.Info("triggering data download", zap.String("runner_name", r.Name), zap.String("reason", reason))
		if err := m.triggerDataDownload(ctx, r); err != nil {
			log.Error("failed to trigger data download", zap.String("runner_name", r.Name), zap.Error(err))
		}
	}
}

// checkStuckDownload flags a download as failed if it has run past the hard
// timeout, or hasn't reported new progress for StuckDownloadNoProgressTimeout.
// The background goroutine running the download (see triggerDataDownload) may
// still be in flight when this fires; it will overwrite this status when it
// eventually finishes, which is acceptable for a periodic reconciler.
func (m *RunnerMonitor) checkStuckDownload(ctx context.Context, r *ent.BotRunner) {
	log := logger.GetLogger(ctx)

	if r.DataDownloadStartedAt != nil && time.Since(*r.DataDownloadStartedAt) > m.DataDownloadTimeout {
		log.Warn("data download exceeded hard timeout, marking failed",
			zap.String("runner_name", r.Name), zap.Duration("timeout", m.DataDownloadTimeout))
		m.markDownloadStuck(ctx, r, "download exceeded maximum allowed duration")
		return
	}

	percent, _ := r.DataDownloadProgress["percent_complete"].(float64)

	m.progressMu.Lock()
	prev, seen := m.progress[r.ID.String()]
	if !seen || percent != prev.percent {
		m.progress[r.ID.String()] = progressSnapshot{percent: percent, observedAt: time.Now()}
		m.progressMu.Unlock()
		return
	}
	stalledFor := time.Since(prev.observedAt)
	m.progressMu.Unlock()

	if stalledFor > StuckDownloadNoProgressTimeout {
		log.Warn("data download has not reported progress, marking failed",
			zap.String("runner_name", r.Name), zap.Duration("stalled_for", stalledFor))
		m.markDownloadStuck(ctx, r, "download stopped reporting progress")
	}
}

func (m *RunnerMonitor) markDownloadStuck(ctx context.Context, r *ent.BotRunner, reason string) {
	m.clearProgressTracking(r.ID.String())
	if _, err := m.dbClient.BotRunner.UpdateOne(r).
		SetDataDownloadStatus(enum.DataDownloadStatusFailed).
		SetDataIsReady(false).
		SetDataErrorMessage(reason).
		ClearDataDownloadStartedAt().
		Save(ctx); err != nil {
		logger.GetLogger(ctx).Error("failed to mark stuck download as failed", zap.String("runner_name", r.Name), zap.Error(err))
	}
}

func (m *RunnerMonitor) clearProgressTracking(runnerID string) {
	m.progressMu.Lock()
	delete(m.progress, runnerID)
	m.progressMu.Unlock()
}

// triggerDataDownload triggers the data download process for a runner
func (m *RunnerMonitor) triggerDataDownload(ctx context.Context, r *ent.BotRunner) error {
	r, err := m.dbClient.BotRunner.UpdateOne(r).
		SetDataDownloadStatus(enum.DataDownloadStatusDownloading).
		SetDataDownloadStartedAt(time.Now()).
		SetDataDownloadProgress(map[string]interface{}{
			"pairs_completed":  0,
			"pairs_total":      0,
			"current_pair":     "",
			"percent_complete": 0.0,
		}).
		ClearDataErrorMessage().
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to update runner status: %w", err)
	}

	log := logger.GetLogger(ctx)

	go func() {
		downloadCtx, cancel := context.WithTimeout(context.Background(), m.DataDownloadTimeout)
		defer cancel()

		if err := DownloadRunnerData(downloadCtx, m.dbClient, r, m.pubsub); err != nil {
			log.Error("data download failed", zap.String("runner_name", r.Name), zap.Error(err))
			if _, saveErr := m.dbClient.BotRunner.UpdateOne(r).
				SetDataDownloadStatus(enum.DataDownloadStatusFailed).
				SetDataIsReady(false).
				SetDataErrorMessage(err.Error()).
				Save(context.Background()); saveErr != nil {
				log.Error("failed to update runner status after download error", zap.String("runner_name", r.Name), zap.Error(saveErr))
			}
		} else {
			log.Info("data download completed successfully", zap.String("runner_name", r.Name))
			now := time.Now()
			if _, saveErr := m.dbClient.BotRunner.UpdateOne(r).
				SetDataDownloadStatus(enum.DataDownloadStatusCompleted).
				SetDataIsReady(true).
				SetDataLastUpdated(now).
				ClearDataErrorMessage().
				ClearDataDownloadProgress().
				Save(context.Background()); saveErr != nil {
				log.Error("failed to update runner status after successful download", zap.String("runner_name", r.Name), zap.Error(saveErr))
			}
		}
		m.clearProgressTracking(r.ID.String())
	}()

	return nil
}
