package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"volaticloud/internal/ent"
	"volaticloud/internal/ent/bot"
	"volaticloud/internal/ent/botmetrics"
	"volaticloud/internal/enum"
	"volaticloud/internal/freqtrade"
	"volaticloud/internal/logger"
	"volaticloud/internal/pubsub"
	"volaticloud/internal/runner"
	"volaticloud/internal/usage"

	"github.com/google/uuid"
)

const (
	// DefaultMonitorInterval is how often to check bot status
	DefaultMonitorInterval = 30 * time.Second

	// MonitorBatchSize is how many bots are checked per batch before the
	// inter-batch pause
	MonitorBatchSize = 10

	// defaultFreqtradeAPIPort is used when a bot's secure_config doesn't set one
	defaultFreqtradeAPIPort = 8080
)

// BotMonitor periodically checks bot status and updates the database
type BotMonitor struct {
	dbClient    *ent.Client
	coordinator *Coordinator
	interval    time.Duration

	pubsub        pubsub.PubSub
	alertNotifier AlertNotifier
	usageCollector usage.Collector

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewBotMonitor creates a new bot monitoring worker
func NewBotMonitor(dbClient *ent.Client, coordinator *Coordinator) *BotMonitor {
	return &BotMonitor{
		dbClient:       dbClient,
		coordinator:    coordinator,
		interval:       DefaultMonitorInterval,
		usageCollector: usage.NewCollector(dbClient),
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
}

// SetInterval sets the monitoring interval
func (m *BotMonitor) SetInterval(interval time.Duration) {
	m.interval = interval
}

// SetPubSub wires in the event bus used to publish bot/trade updates.
func (m *BotMonitor) SetPubSub(ps pubsub.PubSub) {
	m.pubsub = ps
}

// SetAlertNotifier wires in the alert dispatch used for trade notifications.
func (m *BotMonitor) SetAlertNotifier(notifier AlertNotifier) {
	m.alertNotifier = notifier
}

// Start begins the monitoring loop
func (m *BotMonitor) Start(ctx context.Context) error {
	logger.GetLogger(ctx).Info("starting bot monitor", zap.Duration("interval", m.interval))

	go m.monitorLoop(ctx)

	return nil
}

// Stop stops the monitoring loop
func (m *BotMonitor) Stop() {
	close(m.stopChan)
	<-m.doneChan
}

// monitorLoop is the main monitoring loop
func (m *BotMonitor) monitorLoop(ctx context.Context) {
	defer close(m.doneChan)

	// Do initial check immediately
	m.checkAllBots(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.checkAllBots(ctx)
		case <-m.coordinator.AssignmentChanges():
			logger.GetLogger(ctx).Info("bot assignments changed, rechecking bots")
			m.checkAllBots(ctx)
		}
	}
}

// checkAllBots checks status of all bots assigned to this instance
func (m *BotMonitor) checkAllBots(ctx context.Context) {
	log := logger.GetLogger(ctx)

	bots, err := m.dbClient.Bot.Query().
		WithRunner().
		Where(bot.StatusIn(
			enum.BotStatusRunning,
			enum.BotStatusUnhealthy,
			enum.BotStatusStopped,
			enum.BotStatusCreating,
			enum.BotStatusError,
		)).
		All(ctx)
	if err != nil {
		log.Error("failed to query bots", zap.Error(err))
		return
	}

	botIDs := make([]string, len(bots))
	for i, b := range bots {
		botIDs[i] = b.ID.String()
	}

	assignedBotIDs := m.coordinator.GetAssignedBots(botIDs)
	assignedBotMap := make(map[string]bool, len(assignedBotIDs))
	for _, id := range assignedBotIDs {
		assignedBotMap[id] = true
	}

	assignedBots := make([]*ent.Bot, 0, len(assignedBotMap))
	for _, b := range bots {
		if assignedBotMap[b.ID.String()] {
			assignedBots = append(assignedBots, b)
		}
	}

	if len(assignedBots) == 0 {
		return
	}

	log.Debug("checking bots", zap.Int("assigned", len(assignedBots)), zap.Int("total", len(bots)))

	for i := 0; i < len(assignedBots); i += MonitorBatchSize {
		end := i + MonitorBatchSize
		if end > len(assignedBots) {
			end = len(assignedBots)
		}

		batch := assignedBots[i:end]
		m.checkBotBatch(ctx, batch)

		if end < len(assignedBots) {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// checkBotBatch checks a batch of bots one after another
func (m *BotMonitor) checkBotBatch(ctx context.Context, bots []*ent.Bot) {
	log := logger.GetLogger(ctx)
	for _, b := range bots {
		if err := m.checkBot(ctx, b); err != nil {
			log.Warn("bot check failed", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name), zap.Error(err))
		}
	}
}

// checkBot checks a single bot's status and updates the database
func (m *BotMonitor) checkBot(ctx context.Context, b *ent.Bot) error {
	log := logger.GetLogger(ctx)

	botRunner := b.Edges.Runner
	if botRunner == nil {
		return fmt.Errorf("bot has no runner")
	}

	factory := runner.NewFactory()
	rt, err := factory.Create(ctx, botRunner.Type, botRunner.Config)
	if err != nil {
		return fmt.Errorf("failed to create runner client: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("failed to close runtime", zap.Error(err))
		}
	}()

	// The bot's UUID, not a runtime-specific container ID, is the key every
	// runtime implementation resolves connectivity from - it survives
	// container recreation and is the only identifier the control plane
	// guarantees stays stable.
	status, err := rt.GetBotStatus(ctx, b.ID.String())
	if err != nil {
		if errors.Is(err, runner.ErrBotNotFound) {
			if b.Status != enum.BotStatusStopped {
				log.Info("bot container not found, marking as stopped", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name))
			}
			return m.updateBotStatus(ctx, b.ID, enum.BotStatusStopped, false, nil, "")
		}
		if b.Status != enum.BotStatusError {
			log.Error("error checking bot status", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name), zap.Error(err))
		}
		return m.updateBotStatus(ctx, b.ID, enum.BotStatusError, false, nil, err.Error())
	}

	botStatus := status.Status
	healthy := status.Healthy
	lastSeenAt := status.LastSeenAt
	errorMsg := status.ErrorMessage

	if err := m.updateBotStatus(ctx, b.ID, botStatus, healthy, lastSeenAt, errorMsg); err != nil {
		return err
	}

	if b.Status != enum.BotStatusRunning && botStatus == enum.BotStatusRunning {
		log.Info("bot recovered", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name))
	}

	if botStatus != enum.BotStatusRunning || !healthy {
		return nil
	}

	ftClient, err := m.freqtradeClient(ctx, rt, b)
	if err != nil {
		log.Warn("bot unreachable over freqtrade API", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name), zap.Error(err))
		return nil
	}

	if err := m.fetchAndUpdateBotMetrics(ctx, b, ftClient); err != nil {
		log.Warn("failed to fetch bot metrics", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name), zap.Error(err))
	}

	if err := m.syncTrades(ctx, b, ftClient); err != nil {
		log.Warn("failed to sync bot trades", zap.String("bot_id", b.ID.String()), zap.String("bot_name", b.Name), zap.Error(err))
	}

	if botRunner.BillingEnabled {
		if err := m.recordUsageSample(ctx, b, botRunner, status); err != nil {
			log.Warn("failed to record usage sample", zap.String("bot_id", b.ID.String()), zap.Error(err))
		}
	}

	return nil
}

// freqtradeClient resolves connectivity for a bot's Freqtrade API through the
// runtime abstraction - the runtime decides whether that means a container
// IP, a service DNS name, or loopback, so this never encodes topology.
func (m *BotMonitor) freqtradeClient(ctx context.Context, rt runner.Runtime, b *ent.Bot) (*freqtrade.BotClient, error) {
	secureConfig := b.SecureConfig
	if secureConfig == nil {
		return nil, fmt.Errorf("bot has no secure_config")
	}

	apiServerConfig, ok := secureConfig["api_server"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("secure_config has no api_server configuration")
	}

	username, _ := apiServerConfig["username"].(string)
	if username == "" {
		return nil, fmt.Errorf("api_server has no username")
	}

	password, _ := apiServerConfig["password"].(string)
	if password == "" {
		return nil, fmt.Errorf("api_server has no password")
	}

	httpClient, baseURL, err := rt.GetBotHTTPClient(ctx, b.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bot endpoint: %w", err)
	}

	return freqtrade.NewBotClientWithHTTPClient(httpClient, baseURL, username, password), nil
}

// updateBotStatus updates bot status in the database
func (m *BotMonitor) updateBotStatus(ctx context.Context, botID uuid.UUID, status enum.BotStatus, healthy bool, lastSeenAt *time.Time, errorMsg string) error {
	update := m.dbClient.Bot.UpdateOneID(botID).
		SetStatus(status)

	if lastSeenAt != nil {
		update = update.SetLastSeenAt(*lastSeenAt)
	}

	if errorMsg != "" {
		update = update.SetErrorMessage(errorMsg)
	} else {
		update = update.ClearErrorMessage()
	}

	if _, err := update.Save(ctx); err != nil {
		return fmt.Errorf("failed to update bot status: %w", err)
	}

	return nil
}

// fetchAndUpdateBotMetrics fetches metrics from the Freqtrade API and upserts the BotMetrics entity
func (m *BotMonitor) fetchAndUpdateBotMetrics(ctx context.Context, b *ent.Bot, ftClient *freqtrade.BotClient) error {
	profit, err := ftClient.GetProfit(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profit: %w", err)
	}

	var firstTradeTime, latestTradeTime *time.Time
	if profit.FirstTradeTimestamp != 0 {
		t := time.Unix(profit.FirstTradeTimestamp, 0)
		firstTradeTime = &t
	}
	if profit.LatestTradeTimestamp != 0 {
		t := time.Unix(profit.LatestTradeTimestamp, 0)
		latestTradeTime = &t
	}

	openTradeCount := int(profit.TradeCount - profit.ClosedTradeCount)

	existingMetrics, err := m.dbClient.BotMetrics.Query().
		Where(botmetrics.BotIDEQ(b.ID)).
		Only(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return fmt.Errorf("failed to query bot metrics: %w", err)
	}

	if existingMetrics != nil {
		err = m.dbClient.BotMetrics.
			UpdateOneID(existingMetrics.ID).
			SetProfitClosedCoin(profit.ProfitClosedCoin).
			SetProfitClosedPercent(profit.ProfitClosedPercent).
			SetProfitAllCoin(profit.ProfitAllCoin).
			SetProfitAllPercent(profit.ProfitAllPercent).
			SetTradeCount(int(profit.TradeCount)).
			SetClosedTradeCount(int(profit.ClosedTradeCount)).
			SetOpenTradeCount(openTradeCount).
			SetWinningTrades(int(profit.WinningTrades)).
			SetLosingTrades(int(profit.LosingTrades)).
			SetWinrate(profit.Winrate).
			SetExpectancy(profit.Expectancy).
			SetProfitFactor(profit.ProfitFactor).
			SetMaxDrawdown(profit.MaxDrawdown).
			SetMaxDrawdownAbs(profit.MaxDrawdownAbs).
			SetBestPair(profit.BestPair).
			SetBestRate(profit.BestRate).
			SetNillableFirstTradeTimestamp(firstTradeTime).
			SetNillableLatestTradeTimestamp(latestTradeTime).
			SetFetchedAt(time.Now()).
			Exec(ctx)
	} else {
		err = m.dbClient.BotMetrics.
			Create().
			SetBotID(b.ID).
			SetProfitClosedCoin(profit.ProfitClosedCoin).
			SetProfitClosedPercent(profit.ProfitClosedPercent).
			SetProfitAllCoin(profit.ProfitAllCoin).
			SetProfitAllPercent(profit.ProfitAllPercent).
			SetTradeCount(int(profit.TradeCount)).
			SetClosedTradeCount(int(profit.ClosedTradeCount)).
			SetOpenTradeCount(openTradeCount).
			SetWinningTrades(int(profit.WinningTrades)).
			SetLosingTrades(int(profit.LosingTrades)).
			SetWinrate(profit.Winrate).
			SetExpectancy(profit.Expectancy).
			SetProfitFactor(profit.ProfitFactor).
			SetMaxDrawdown(profit.MaxDrawdown).
			SetMaxDrawdownAbs(profit.MaxDrawdownAbs).
			SetBestPair(profit.BestPair).
			SetBestRate(profit.BestRate).
			SetNillableFirstTradeTimestamp(firstTradeTime).
			SetNillableLatestTradeTimestamp(latestTradeTime).
			SetFetchedAt(time.Now()).
			Exec(ctx)
	}

	if err != nil {
		return fmt.Errorf("failed to upsert bot metrics: %w", err)
	}

	return nil
}

// recordUsageSample records a point-in-time resource usage measurement for billing.
// BotStatus only surfaces CPU/memory from the runtime; network and block I/O
// are not tracked per-bot the way they are for backtest containers.
func (m *BotMonitor) recordUsageSample(ctx context.Context, b *ent.Bot, botRunner *ent.BotRunner, status *runner.BotStatus) error {
	return m.usageCollector.RecordSample(ctx, usage.UsageSample{
		ResourceType: enum.ResourceTypeBot,
		ResourceID:   b.ID,
		OwnerID:      b.OwnerID,
		RunnerID:     botRunner.ID,
		CPUPercent:   status.CPUUsage,
		MemoryBytes:  status.MemoryUsage,
		SampledAt:    time.Now(),
	})
}
