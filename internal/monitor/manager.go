package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"volaticloud/internal/billing"
	"volaticloud/internal/ent"
	"volaticloud/internal/etcd"
	"volaticloud/internal/logger"
	"volaticloud/internal/pubsub"
	"volaticloud/internal/usage"
)

// Manager manages all monitoring workers and coordinates distributed monitoring
type Manager struct {
	dbClient   *ent.Client
	etcdClient *etcd.Client

	registry        *Registry
	coordinator     *Coordinator
	botMonitor      *BotMonitor
	backtestMonitor *BacktestMonitor
	runnerMonitor   *RunnerMonitor
	usageAggregator *UsageAggregatorWorker

	instanceID string
	enabled    bool
}

// Config holds configuration for the monitor manager
type Config struct {
	// DatabaseClient for querying and updating bots
	DatabaseClient *ent.Client

	// EtcdEndpoints is the list of etcd server endpoints
	// If empty, etcd integration is disabled (single instance mode)
	EtcdEndpoints []string

	// InstanceID is a unique identifier for this instance
	// If empty, one will be generated
	InstanceID string

	// MonitorInterval is how often to check bot status. Default: 30s
	MonitorInterval time.Duration

	// BacktestMonitorInterval is how often to check running backtests. Default: 30s
	BacktestMonitorInterval time.Duration

	// RunnerMonitorInterval is how often to check runner data freshness. Default: 5m
	RunnerMonitorInterval time.Duration

	// AggregationInterval is how often hourly usage aggregates are recomputed. Default: 1h
	AggregationInterval time.Duration

	// SampleRetention is how long raw usage samples are kept. Default: 7 days
	SampleRetention time.Duration

	// DataDownloadTimeout is the hard cap on a single runner data download attempt. Default: 12h
	DataDownloadTimeout time.Duration

	// RetryFailedDownloads controls whether a runner with a failed download is
	// retried automatically on the next check. Default: false
	RetryFailedDownloads bool

	// HeartbeatInterval is how often to send heartbeats to etcd. Default: 10s
	HeartbeatInterval time.Duration

	// LeaseTTL is the TTL for etcd leases in seconds. Default: 15s
	LeaseTTL int64

	// AlertNotifier, if set, is wired into the bot and backtest monitors to
	// announce trade and backtest completion events.
	AlertNotifier AlertNotifier

	// PubSub, if set, is wired into the bot and runner monitors to publish
	// real-time trade and download progress events.
	PubSub pubsub.PubSub

	// EnableBillingDeduction wires hourly credit deduction into the usage
	// aggregator. Requires a usage.Calculator behind the scenes, so it only
	// takes effect once DatabaseClient is set.
	EnableBillingDeduction bool
}

// NewManager creates a new monitor manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DatabaseClient == nil {
		return nil, fmt.Errorf("database client is required")
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = GenerateInstanceID()
	}

	m := &Manager{
		dbClient:   cfg.DatabaseClient,
		instanceID: cfg.InstanceID,
		enabled:    len(cfg.EtcdEndpoints) > 0,
	}

	// If etcd is configured, set up distributed monitoring
	if m.enabled {
		etcdClient, err := etcd.NewClient(etcd.Config{
			Endpoints: cfg.EtcdEndpoints,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create etcd client: %w", err)
		}
		m.etcdClient = etcdClient

		registry, err := NewRegistry(etcdClient, cfg.InstanceID)
		if err != nil {
			etcdClient.Close()
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}

		if cfg.HeartbeatInterval > 0 {
			registry.heartbeatInterval = cfg.HeartbeatInterval
		}
		if cfg.LeaseTTL > 0 {
			registry.leaseTTL = cfg.LeaseTTL
		}

		m.registry = registry
		m.coordinator = NewCoordinator(registry)
	} else {
		// Single instance mode - a coordinator that monitors everything itself
		m.coordinator = &Coordinator{
			instanceID: cfg.InstanceID,
			instances:  []string{cfg.InstanceID},
		}
	}

	m.botMonitor = NewBotMonitor(cfg.DatabaseClient, m.coordinator)
	if cfg.MonitorInterval > 0 {
		m.botMonitor.SetInterval(cfg.MonitorInterval)
	}
	if cfg.AlertNotifier != nil {
		m.botMonitor.SetAlertNotifier(cfg.AlertNotifier)
	}
	if cfg.PubSub != nil {
		m.botMonitor.SetPubSub(cfg.PubSub)
	}

	backtestInterval := cfg.BacktestMonitorInterval
	if backtestInterval <= 0 {
		backtestInterval = DefaultMonitorInterval
	}
	m.backtestMonitor = NewBacktestMonitor(cfg.DatabaseClient, backtestInterval)
	if cfg.AlertNotifier != nil {
		m.backtestMonitor.SetAlertNotifier(cfg.AlertNotifier)
	}

	m.runnerMonitor = NewRunnerMonitor(cfg.DatabaseClient, m.coordinator)
	if cfg.RunnerMonitorInterval > 0 {
		m.runnerMonitor.SetInterval(cfg.RunnerMonitorInterval)
	}
	if cfg.DataDownloadTimeout > 0 {
		m.runnerMonitor.DataDownloadTimeout = cfg.DataDownloadTimeout
	}
	m.runnerMonitor.RetryFailedDownloads = cfg.RetryFailedDownloads
	if cfg.PubSub != nil {
		m.runnerMonitor.SetPubSub(cfg.PubSub)
	}

	m.usageAggregator = NewUsageAggregatorWorker(cfg.DatabaseClient)
	if cfg.AggregationInterval > 0 {
		m.usageAggregator.SetInterval(cfg.AggregationInterval)
	}
	if cfg.SampleRetention > 0 {
		m.usageAggregator.SetRetention(cfg.SampleRetention)
	}
	if cfg.EnableBillingDeduction {
		m.usageAggregator.SetBillingDeductor(billing.NewBillingService(cfg.DatabaseClient, usage.NewCalculator(cfg.DatabaseClient)))
	}

	return m, nil
}

// Start starts all monitoring workers, rolling back anything already started
// if a later stage fails.
func (m *Manager) Start(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	log.Info("starting monitor manager", zap.String("instance_id", m.instanceID), zap.Bool("distributed", m.enabled))

	if m.enabled {
		if err := m.registry.Start(ctx); err != nil {
			return fmt.Errorf("failed to start registry: %w", err)
		}

		if err := m.coordinator.Start(ctx); err != nil {
			m.registry.Stop(ctx)
			return fmt.Errorf("failed to start coordinator: %w", err)
		}

		// Wait for the initial instance list to be populated before assigning work.
		time.Sleep(1 * time.Second)
	}

	if err := m.botMonitor.Start(ctx); err != nil {
		if m.enabled {
			m.registry.Stop(ctx)
		}
		return fmt.Errorf("failed to start bot monitor: %w", err)
	}

	go m.backtestMonitor.Start(ctx)

	if err := m.runnerMonitor.Start(ctx); err != nil {
		m.botMonitor.Stop()
		m.backtestMonitor.Stop()
		if m.enabled {
			m.registry.Stop(ctx)
		}
		return fmt.Errorf("failed to start runner monitor: %w", err)
	}

	if err := m.usageAggregator.Start(ctx); err != nil {
		m.runnerMonitor.Stop()
		m.botMonitor.Stop()
		m.backtestMonitor.Stop()
		if m.enabled {
			m.registry.Stop(ctx)
		}
		return fmt.Errorf("failed to start usage aggregator: %w", err)
	}

	log.Info("monitor manager started successfully")
	return nil
}

// Stop stops all monitoring workers in reverse start order
func (m *Manager) Stop(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	log.Info("stopping monitor manager")

	m.usageAggregator.Stop()
	m.runnerMonitor.Stop()
	m.backtestMonitor.Stop()
	m.botMonitor.Stop()

	if m.enabled {
		if err := m.registry.Stop(ctx); err != nil {
			log.Error("error stopping registry", zap.Error(err))
		}
		if err := m.etcdClient.Close(); err != nil {
			log.Error("error closing etcd client", zap.Error(err))
		}
	}

	log.Info("monitor manager stopped")
	return nil
}

// GetInstanceID returns the current instance ID
func (m *Manager) GetInstanceID() string {
	return m.instanceID
}

// IsDistributed returns true if running in distributed mode (etcd enabled)
func (m *Manager) IsDistributed() bool {
	return m.enabled
}

// GetInstanceCount returns the current number of instances
func (m *Manager) GetInstanceCount() int {
	if m.coordinator != nil {
		return m.coordinator.GetInstanceCount()
	}
	return 1
}

// GetRegistry returns the instance registry (nil if not in distributed mode)
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetCoordinator returns the bot assignment coordinator
func (m *Manager) GetCoordinator() *Coordinator {
	return m.coordinator
}
