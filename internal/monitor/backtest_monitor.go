package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"volaticloud/internal/backtest"
	"volaticloud/internal/ent"
	entbacktest "volaticloud/internal/ent/backtest"
	"volaticloud/internal/enum"
	"volaticloud/internal/logger"
	"volaticloud/internal/runner"
	"volaticloud/internal/usage"
)

// BacktestMonitor monitors running backtests and updates their status
type BacktestMonitor struct {
	client         *ent.Client
	usageCollector usage.Collector
	alertNotifier  AlertNotifier
	interval       time.Duration
	stopChan       chan struct{}
}

// NewBacktestMonitor creates a new backtest monitor
func NewBacktestMonitor(client *ent.Client, interval time.Duration) *BacktestMonitor {
	if interval == 0 {
		interval = 30 * time.Second // Default to 30 seconds
	}

	return &BacktestMonitor{
		client:         client,
		usageCollector: usage.NewCollector(client),
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
}

// SetAlertNotifier wires in the notifier used to announce backtest completion/failure.
func (m *BacktestMonitor) SetAlertNotifier(notifier AlertNotifier) {
	m.alertNotifier = notifier
}

// Start begins monitoring backtests
func (m *BacktestMonitor) Start(ctx context.Context) {
	log := logger.GetLogger(ctx)
	log.Info("starting backtest monitor", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run once immediately
	m.checkBacktests(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("backtest monitor stopped, context cancelled")
			return
		case <-m.stopChan:
			log.Info("backtest monitor stopped")
			return
		case <-ticker.C:
			m.checkBacktests(ctx)
		}
	}
}

// Stop stops the monitor
func (m *BacktestMonitor) Stop() {
	close(m.stopChan)
}

// checkBacktests checks all running backtests and updates their status
func (m *BacktestMonitor) checkBacktests(ctx context.Context) {
	log := logger.GetLogger(ctx)
	backtests, err := m.client.Backtest.Query().
		Where(entbacktest.StatusEQ(enum.TaskStatusRunning)).
		WithRunner().
		WithStrategy().
		All(ctx)
	if err != nil {
		log.Error("error querying running backtests", zap.Error(err))
		return
	}

	if len(backtests) == 0 {
		return
	}

	log.Debug("checking running backtests", zap.Int("count", len(backtests)))

	for _, bt := range backtests {
		m.checkBacktest(ctx, bt)
	}
}

// checkBacktest checks a single backtest and updates its status
func (m *BacktestMonitor) checkBacktest(ctx context.Context, bt *ent.Backtest) {
	log := logger.GetLogger(ctx)

	if bt.Edges.Runner == nil {
		log.Warn("backtest has no runner, skipping", zap.String("backtest_id", bt.ID.String()))
		return
	}

	factory := runner.NewFactory()
	backtestRunner, err := factory.CreateBacktestRunner(ctx, bt.Edges.Runner.Type, bt.Edges.Runner.Config)
	if err != nil {
		log.Error("failed to create backtest runner", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		return
	}
	defer func() {
		if err := backtestRunner.Close(); err != nil {
			log.Warn("failed to close backtest runner", zap.Error(err))
		}
	}()

	status, err := backtestRunner.GetBacktestStatus(ctx, bt.ID.String())
	if err != nil {
		log.Error("failed to get backtest status", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		return
	}

	// OwnerID is from the strategy (a backtest belongs to a strategy, which
	// has the owner), and samples are recorded for both running and
	// just-completed backtests to capture final resource usage.
	shouldRecordSample := bt.Edges.Runner.BillingEnabled && bt.Edges.Strategy != nil &&
		(status.Status == enum.TaskStatusRunning || status.Status == enum.TaskStatusCompleted)
	if shouldRecordSample {
		if err := m.usageCollector.RecordSample(ctx, usage.UsageSample{
			ResourceType:    enum.ResourceTypeBacktest,
			ResourceID:      bt.ID,
			OwnerID:         bt.Edges.Strategy.OwnerID,
			RunnerID:        bt.Edges.Runner.ID,
			CPUPercent:      status.CPUUsage,
			MemoryBytes:     status.MemoryUsage,
			NetworkRxBytes:  status.NetworkRxBytes,
			NetworkTxBytes:  status.NetworkTxBytes,
			BlockReadBytes:  status.BlockReadBytes,
			BlockWriteBytes: status.BlockWriteBytes,
			SampledAt:       time.Now(),
		}); err != nil {
			log.Warn("failed to record usage sample", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		}
	}

	if status.Status == bt.Status {
		return // Still running
	}

	log.Info("backtest status changed", zap.String("backtest_id", bt.ID.String()), zap.String("from", string(bt.Status)), zap.String("to", string(status.Status)))

	switch status.Status {
	case enum.TaskStatusCompleted:
		m.handleCompletedBacktest(ctx, bt, backtestRunner)
	case enum.TaskStatusFailed:
		m.handleFailedBacktest(ctx, bt, backtestRunner)
	}
}

// handleCompletedBacktest handles a completed backtest
func (m *BacktestMonitor) handleCompletedBacktest(ctx context.Context, bt *ent.Backtest, backtestRunner runner.BacktestRunner) {
	log := logger.GetLogger(ctx)
	log.Info("backtest completed, fetching results", zap.String("backtest_id", bt.ID.String()))

	result, err := backtestRunner.GetBacktestResult(ctx, bt.ID.String())
	if err != nil {
		log.Error("failed to get backtest results", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		if _, saveErr := m.client.Backtest.UpdateOneID(bt.ID).
			SetStatus(enum.TaskStatusCompleted).
			SetCompletedAt(time.Now()).
			SetErrorMessage("Failed to retrieve results").
			Save(ctx); saveErr != nil {
			log.Error("failed to update backtest after result error", zap.String("backtest_id", bt.ID.String()), zap.Error(saveErr))
		}
		return
	}

	summary, err := backtest.ExtractSummaryFromResult(result.RawResult)
	if err != nil {
		log.Warn("failed to extract summary from backtest result", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		// Continue without summary - it's optional
	}

	update := m.client.Backtest.UpdateOneID(bt.ID).
		SetStatus(enum.TaskStatusCompleted).
		SetResult(result.RawResult)

	if summary != nil {
		summaryJSON, err := json.Marshal(summary)
		if err == nil {
			var summaryMap map[string]interface{}
			if err := json.Unmarshal(summaryJSON, &summaryMap); err == nil {
				update = update.SetSummary(summaryMap)
				log.Debug("backtest summary extracted", zap.String("backtest_id", bt.ID.String()), zap.Int("total_trades", summary.TotalTrades), zap.Float64("profit_total", summary.ProfitTotalAbs))
			}
		}
	}

	if result.Logs != "" {
		update = update.SetLogs(result.Logs)
	}

	if result.CompletedAt != nil {
		update = update.SetCompletedAt(*result.CompletedAt)
	} else {
		update = update.SetCompletedAt(time.Now())
	}

	if result.ErrorMessage != "" {
		update = update.SetErrorMessage(result.ErrorMessage)
	} else {
		update = update.ClearErrorMessage()
	}

	_, err = update.Save(ctx)
	if err != nil {
		log.Error("failed to update backtest", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
		return
	}

	log.Info("backtest completed successfully, results saved", zap.String("backtest_id", bt.ID.String()))

	m.emitBacktestAlert(ctx, bt, true, "", summary)

	// Cleanup container after successfully saving results
	if err := backtestRunner.DeleteBacktest(ctx, bt.ID.String()); err != nil {
		log.Warn("failed to cleanup backtest container", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
	}
}

// handleFailedBacktest handles a failed backtest
func (m *BacktestMonitor) handleFailedBacktest(ctx context.Context, bt *ent.Backtest, backtestRunner runner.BacktestRunner) {
	log := logger.GetLogger(ctx)
	log.Warn("backtest failed", zap.String("backtest_id", bt.ID.String()))

	// Try to get result (which includes logs) even for failed backtests
	result, err := backtestRunner.GetBacktestResult(ctx, bt.ID.String())

	update := m.client.Backtest.UpdateOneID(bt.ID).
		SetStatus(enum.TaskStatusFailed)

	if err == nil {
		if result.Logs != "" {
			update = update.SetLogs(result.Logs)
		}

		if result.CompletedAt != nil {
			update = update.SetCompletedAt(*result.CompletedAt)
		} else {
			update = update.SetCompletedAt(time.Now())
		}

		errorMsg := result.ErrorMessage
		if errorMsg == "" {
			errorMsg = "Backtest failed with non-zero exit code"
		}
		update = update.SetErrorMessage(errorMsg)
	} else {
		update = update.SetCompletedAt(time.Now())
		update = update.SetErrorMessage(fmt.Sprintf("Backtest failed: %v", err))
	}

	_, saveErr := update.Save(ctx)
	if saveErr != nil {
		log.Error("failed to update failed backtest", zap.String("backtest_id", bt.ID.String()), zap.Error(saveErr))
		return
	}

	errorMsg := "Backtest failed"
	if err == nil && result.ErrorMessage != "" {
		errorMsg = result.ErrorMessage
	}
	m.emitBacktestAlert(ctx, bt, false, errorMsg, nil)

	// Cleanup container after successfully saving failed status
	if err := backtestRunner.DeleteBacktest(ctx, bt.ID.String()); err != nil {
		log.Warn("failed to cleanup failed backtest container", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
	}
}

// emitBacktestAlert sends an alert for backtest completion or failure
func (m *BacktestMonitor) emitBacktestAlert(ctx context.Context, bt *ent.Backtest, success bool, errorMessage string, summary *backtest.BacktestSummary) {
	if m.alertNotifier == nil {
		return // Alert notifier not configured
	}

	if bt.Edges.Strategy == nil {
		return // No strategy info available
	}

	strategy := bt.Edges.Strategy
	totalTrades := 0
	winRate := 0.0
	profitTotal := 0.0

	if summary != nil {
		totalTrades = summary.TotalTrades
		if summary.WinRate != nil {
			winRate = *summary.WinRate
		}
		profitTotal = summary.ProfitTotalAbs
	}

	if err := m.alertNotifier.HandleBacktestCompleted(
		ctx,
		bt.ID,
		strategy.ID,
		strategy.Name,
		strategy.OwnerID,
		success,
		errorMessage,
		totalTrades,
		winRate,
		profitTotal,
	); err != nil {
		logger.GetLogger(ctx).Warn("failed to emit backtest alert", zap.String("backtest_id", bt.ID.String()), zap.Error(err))
	}
}
