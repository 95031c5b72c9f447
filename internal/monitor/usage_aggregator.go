package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"volaticloud/internal/ent"
	"volaticloud/internal/logger"
	"volaticloud/internal/usage"
)

const (
	// DefaultAggregationInterval is how often to run aggregation
	DefaultAggregationInterval = 1 * time.Hour

	// DefaultSampleRetention is how long to keep raw samples
	DefaultSampleRetention = 7 * 24 * time.Hour // 7 days
)

// BillingDeductor is the interface for deducting hourly costs from billing.
type BillingDeductor interface {
	DeductHourlyCosts(ctx context.Context, bucketStart time.Time) error
}

// UsageAggregatorWorker periodically aggregates usage samples into hourly/daily summaries
type UsageAggregatorWorker struct {
	dbClient        *ent.Client
	aggregator      usage.Aggregator
	billingDeductor BillingDeductor
	interval        time.Duration
	retention       time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewUsageAggregatorWorker creates a new usage aggregation worker
func NewUsageAggregatorWorker(dbClient *ent.Client) *UsageAggregatorWorker {
	return &UsageAggregatorWorker{
		dbClient:   dbClient,
		aggregator: usage.NewAggregator(dbClient),
		interval:   DefaultAggregationInterval,
		retention:  DefaultSampleRetention,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// SetInterval sets the aggregation interval
func (w *UsageAggregatorWorker) SetInterval(interval time.Duration) {
	w.interval = interval
}

// SetRetention sets the sample retention period
func (w *UsageAggregatorWorker) SetRetention(retention time.Duration) {
	w.retention = retention
}

// SetBillingDeductor sets the billing deductor for hourly cost deduction
func (w *UsageAggregatorWorker) SetBillingDeductor(deductor BillingDeductor) {
	w.billingDeductor = deductor
}

// Start begins the aggregation loop
func (w *UsageAggregatorWorker) Start(ctx context.Context) error {
	logger.GetLogger(ctx).Info("starting usage aggregator worker", zap.Duration("interval", w.interval), zap.Duration("retention", w.retention))

	go w.aggregatorLoop(ctx)

	return nil
}

// Stop stops the aggregation loop
func (w *UsageAggregatorWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

// aggregatorLoop is the main aggregation loop
func (w *UsageAggregatorWorker) aggregatorLoop(ctx context.Context) {
	defer close(w.doneChan)

	// Calculate time until next hour boundary for initial delay
	now := time.Now()
	nextHour := now.Truncate(time.Hour).Add(time.Hour)
	initialDelay := nextHour.Sub(now)

	// Add a small offset (5 minutes) to ensure the previous hour's data is complete
	initialDelay += 5 * time.Minute

	logger.GetLogger(ctx).Info("usage aggregator scheduled first run", zap.Duration("initial_delay", initialDelay), zap.Time("at", nextHour.Add(5*time.Minute)))

	// Wait for initial delay
	select {
	case <-ctx.Done():
		return
	case <-w.stopChan:
		return
	case <-time.After(initialDelay):
		// Do first aggregation
		w.runAggregation(ctx)
	}

	// Continue with regular interval
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.runAggregation(ctx)
		}
	}
}

// runAggregation performs the aggregation and cleanup tasks
func (w *UsageAggregatorWorker) runAggregation(ctx context.Context) {
	log := logger.GetLogger(ctx)
	log.Debug("running usage aggregation")

	// Aggregate the previous hour
	previousHour := time.Now().Truncate(time.Hour).Add(-time.Hour)

	if err := w.aggregator.AggregateHourly(ctx, previousHour); err != nil {
		log.Error("failed to aggregate hourly usage", zap.Time("hour", previousHour), zap.Error(err))
	} else {
		log.Info("aggregated usage for hour", zap.Time("hour", previousHour))
	}

	// Deduct hourly costs from organization credit balances
	if w.billingDeductor != nil {
		if err := w.billingDeductor.DeductHourlyCosts(ctx, previousHour); err != nil {
			log.Error("failed to deduct hourly costs", zap.Time("hour", previousHour), zap.Error(err))
		}
	}

	// If it's the start of a new day (midnight-1am), also run daily aggregation
	if previousHour.Hour() == 23 {
		previousDay := previousHour.Truncate(24 * time.Hour)
		if err := w.aggregator.AggregateDaily(ctx, previousDay); err != nil {
			log.Error("failed to aggregate daily usage", zap.String("day", previousDay.Format("2006-01-02")), zap.Error(err))
		} else {
			log.Info("aggregated daily usage", zap.String("day", previousDay.Format("2006-01-02")))
		}
	}

	// Cleanup old samples
	deleted, err := w.aggregator.CleanupOldSamples(ctx, w.retention)
	if err != nil {
		log.Error("failed to cleanup old usage samples", zap.Error(err))
	} else if deleted > 0 {
		log.Info("cleaned up old usage samples", zap.Int("deleted", deleted), zap.Duration("older_than", w.retention))
	}
}

// RunNow immediately runs aggregation (for manual triggering or testing)
func (w *UsageAggregatorWorker) RunNow(ctx context.Context) {
	w.runAggregation(ctx)
}
