package monitor

import (
	"context"

	"github.com/google/uuid"

	"volaticloud/internal/alert"
)

// AlertNotifier is the subset of alert.Manager the monitor workers depend on.
// Accepting this instead of *alert.Manager directly keeps the monitor
// package decoupled from the alert dispatch/batching machinery and makes it
// trivial to stub out in tests.
type AlertNotifier interface {
	HandleTradesOpened(ctx context.Context, botID uuid.UUID, botName, ownerID, botMode string, trades []alert.TradeInfo) error
	HandleTradesClosed(ctx context.Context, botID uuid.UUID, botName, ownerID, botMode string, trades []alert.TradeInfo) error
	HandleBacktestCompleted(ctx context.Context, backtestID, strategyID uuid.UUID, strategyName, ownerID string, success bool, errorMessage string, totalTrades int, winRate, profitTotal float64) error
}

var _ AlertNotifier = (*alert.Manager)(nil)
