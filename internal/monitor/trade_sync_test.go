package monitor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volaticloud/internal/freqtrade"
)

func TestFormatTimeframe(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int64
		expected string
	}{
		{"1 minute", 1, "1m"},
		{"5 minutes", 5, "5m"},
		{"15 minutes", 15, "15m"},
		{"30 minutes", 30, "30m"},
		{"1 hour", 60, "1h"},
		{"4 hours", 240, "4h"},
		{"1 day", 1440, "1d"},
		{"1 week", 10080, "1w"},
		{"zero", 0, ""},
		{"2 minutes (rounds to 1m)", 2, "1m"},
		{"10 minutes (rounds to 5m)", 10, "5m"},
		{"45 minutes (rounds to 30m)", 45, "30m"},
		{"90 minutes (rounds to 1h)", 90, "1h"},
		{"120 minutes (rounds to 1h)", 120, "1h"},
		{"360 minutes (rounds to 4h)", 360, "4h"},
		{"720 minutes (rounds to 4h)", 720, "4h"},
		{"2880 minutes (rounds to 1d)", 2880, "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTimeframe(tt.minutes)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTradeToRawData(t *testing.T) {
	// Create a mock trade with some fields set
	trade := freqtrade.TradeSchema{
		TradeId:       123,
		Pair:          "BTC/USDT",
		IsOpen:        true,
		OpenRate:      50000.0,
		Amount:        0.1,
		StakeAmount:   5000.0,
		Strategy:      "TestStrategy",
		OpenTimestamp: time.Now().UnixMilli(),
	}

	rawData, err := tradeToRawData(trade)
	require.NoError(t, err)
	assert.NotNil(t, rawData)

	// Verify key fields are preserved
	assert.Equal(t, float64(123), rawData["trade_id"])
	assert.Equal(t, "BTC/USDT", rawData["pair"])
	assert.Equal(t, true, rawData["is_open"])
	assert.Equal(t, 50000.0, rawData["open_rate"])
	assert.Equal(t, 0.1, rawData["amount"])
	assert.Equal(t, 5000.0, rawData["stake_amount"])
	assert.Equal(t, "TestStrategy", rawData["strategy"])
}

func TestTradeToRawDataPreservesAllFields(t *testing.T) {
	// Create a trade and convert it
	trade := freqtrade.TradeSchema{
		TradeId:       456,
		Pair:          "ETH/USDT",
		IsOpen:        false,
		OpenRate:      3000.0,
		Amount:        1.5,
		StakeAmount:   4500.0,
		Strategy:      "EthStrategy",
		OpenTimestamp: 1703520000000, // Fixed timestamp for testing
	}

	rawData, err := tradeToRawData(trade)
	require.NoError(t, err)

	// Convert back to JSON to verify it's valid
	jsonBytes, err := json.Marshal(rawData)
	require.NoError(t, err)
	assert.NotEmpty(t, jsonBytes)

	// Parse back to verify structure
	var parsed map[string]interface{}
	err = json.Unmarshal(jsonBytes, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "ETH/USDT", parsed["pair"])
}

func TestDefaultTradeSyncInterval(t *testing.T) {
	assert.Equal(t, 2*time.Minute, DefaultTradeSyncInterval)
}

func TestTradeFetchBatchSize(t *testing.T) {
	assert.Equal(t, int64(500), TradeFetchBatchSize)
}

func TestTradeChangeTypes(t *testing.T) {
	// Verify trade change type constants
	assert.Equal(t, TradeChangeType("new_trade"), TradeChangeNewTrade)
	assert.Equal(t, TradeChangeType("trade_closed"), TradeChangeTradeClosed)
	assert.Equal(t, TradeChangeType("trade_updated"), TradeChangeTradeUpdated)
}

func TestBotWasReset(t *testing.T) {
	tests := []struct {
		name                string
		lastKnownMaxTradeID int
		apiMaxTradeID       int
		expected            bool
	}{
		{"never synced before", 0, 5, false},
		{"api max grew normally", 10, 15, false},
		{"api max unchanged", 10, 10, false},
		{"api max regressed, bot recreated", 50, 3, true},
		{"api max dropped to zero", 50, 0, true},
		{"both zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, botWasReset(tt.lastKnownMaxTradeID, tt.apiMaxTradeID))
		})
	}
}

func openTradeAt(tradeID int64, openUnixSeconds int64) freqtrade.TradeSchema {
	return freqtrade.TradeSchema{
		TradeId:       tradeID,
		Pair:          "BTC/USDT",
		IsOpen:        true,
		OpenRate:      50000,
		Amount:        0.1,
		StakeAmount:   5000,
		Strategy:      "TestStrategy",
		OpenTimestamp: openUnixSeconds * 1000,
	}
}

func closedTradeAt(tradeID int64, openUnixSeconds int64) freqtrade.TradeSchema {
	tr := openTradeAt(tradeID, openUnixSeconds)
	tr.IsOpen = false
	tr.ProfitAbs = freqtrade.NewNullable(12.5)
	tr.ProfitRatio = freqtrade.NewNullable(0.025)
	return tr
}

func TestClassifyTrades(t *testing.T) {
	const openedAt = int64(1700000000)

	tests := []struct {
		name                  string
		trades                []freqtrade.TradeSchema
		lastSyncedTradeID     int
		existingTradeKeys     map[tradeKey]bool
		existingOpenTradeKeys map[tradeKey]bool
		wantSyncIDs           []int64
		wantNewIDs            []int64
		wantClosedIDs         []int64
	}{
		{
			name:                  "brand new open trade is synced and reported new",
			trades:                []freqtrade.TradeSchema{openTradeAt(1, openedAt)},
			lastSyncedTradeID:     0,
			existingTradeKeys:     map[tradeKey]bool{},
			existingOpenTradeKeys: map[tradeKey]bool{},
			wantSyncIDs:           []int64{1},
			wantNewIDs:            []int64{1},
			wantClosedIDs:         nil,
		},
		{
			name:                  "trade opened and closed between syncs counts as both new and closed",
			trades:                []freqtrade.TradeSchema{closedTradeAt(2, openedAt)},
			lastSyncedTradeID:     0,
			existingTradeKeys:     map[tradeKey]bool{},
			existingOpenTradeKeys: map[tradeKey]bool{},
			wantSyncIDs:           []int64{2},
			wantNewIDs:            []int64{2},
			wantClosedIDs:         []int64{2},
		},
		{
			name:   "already-synced closed trade with no DB changes is skipped",
			trades: []freqtrade.TradeSchema{closedTradeAt(3, openedAt)},
			// trade 3 was already synced and is not currently open in the DB
			lastSyncedTradeID:     3,
			existingTradeKeys:     map[tradeKey]bool{{tradeID: 3, openDateUnix: openedAt}: true},
			existingOpenTradeKeys: map[tradeKey]bool{},
			wantSyncIDs:           nil,
			wantNewIDs:            nil,
			wantClosedIDs:         nil,
		},
		{
			name:   "existing open trade transitions to closed but id no longer newer than cursor",
			trades: []freqtrade.TradeSchema{closedTradeAt(4, openedAt)},
			// already synced once while open, and no higher trade id has
			// advanced the cursor since - the trade won't be re-synced by
			// this pass, but the close is still reported for alerting
			lastSyncedTradeID:     4,
			existingTradeKeys:     map[tradeKey]bool{{tradeID: 4, openDateUnix: openedAt}: true},
			existingOpenTradeKeys: map[tradeKey]bool{{tradeID: 4, openDateUnix: openedAt}: true},
			wantSyncIDs:           nil,
			wantNewIDs:            nil,
			wantClosedIDs:         []int64{4},
		},
		{
			name:   "still-open existing trade keeps syncing without generating alerts",
			trades: []freqtrade.TradeSchema{openTradeAt(5, openedAt)},
			// trade 5 is lower than lastSyncedTradeID but still open, so it must
			// keep syncing so close/profit updates are captured
			lastSyncedTradeID:     10,
			existingTradeKeys:     map[tradeKey]bool{{tradeID: 5, openDateUnix: openedAt}: true},
			existingOpenTradeKeys: map[tradeKey]bool{{tradeID: 5, openDateUnix: openedAt}: true},
			wantSyncIDs:           []int64{5},
			wantNewIDs:            nil,
			wantClosedIDs:         nil,
		},
		{
			name: "mixed batch after a bot reset: everything looks new",
			trades: []freqtrade.TradeSchema{
				closedTradeAt(1, openedAt),
				openTradeAt(2, openedAt+60),
			},
			// a reset zeroes lastSyncedTradeID and the DB lookup only covers the
			// recent window, so neither trade is found by composite key
			lastSyncedTradeID:     0,
			existingTradeKeys:     map[tradeKey]bool{},
			existingOpenTradeKeys: map[tradeKey]bool{},
			wantSyncIDs:           []int64{1, 2},
			wantNewIDs:            []int64{1, 2},
			wantClosedIDs:         []int64{1},
		},
		{
			name:                  "missing from db but trade id already below last synced is still synced",
			trades:                []freqtrade.TradeSchema{openTradeAt(1, openedAt)},
			lastSyncedTradeID:     100,
			existingTradeKeys:     map[tradeKey]bool{},
			existingOpenTradeKeys: map[tradeKey]bool{},
			wantSyncIDs:           []int64{1},
			wantNewIDs:            []int64{1},
			wantClosedIDs:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toSync, newTrades, closed := classifyTrades(tt.trades, tt.lastSyncedTradeID, tt.existingTradeKeys, tt.existingOpenTradeKeys)

			assert.Equal(t, tt.wantSyncIDs, tradeIDs(toSync))
			assert.Equal(t, tt.wantNewIDs, tradeIDs(newTrades))
			assert.Equal(t, tt.wantClosedIDs, tradeIDs(closed))
		})
	}
}

// TestClassifyTradesIdempotent exercises sync idempotence: running the
// classifier again with the resulting sync state treated as "already
// applied" must not surface the same trades as new or closed a second time.
func TestClassifyTradesIdempotent(t *testing.T) {
	const openedAt = int64(1700000000)
	trades := []freqtrade.TradeSchema{closedTradeAt(7, openedAt)}

	firstSync, firstNew, firstClosed := classifyTrades(trades, 0, map[tradeKey]bool{}, map[tradeKey]bool{})
	assert.Equal(t, []int64{7}, tradeIDs(firstSync))
	assert.Equal(t, []int64{7}, tradeIDs(firstNew))
	assert.Equal(t, []int64{7}, tradeIDs(firstClosed))

	// Simulate the DB state after the first sync landed: trade 7 now exists
	// and is closed, and the sync cursor has moved past it.
	existingKeys := map[tradeKey]bool{{tradeID: 7, openDateUnix: openedAt}: true}
	secondSync, secondNew, secondClosed := classifyTrades(trades, 7, existingKeys, map[tradeKey]bool{})

	assert.Nil(t, secondSync, "a re-run with unchanged data must not re-sync a trade that never re-opened")
	assert.Nil(t, secondNew)
	assert.Nil(t, secondClosed)
}

func tradeIDs(trades []freqtrade.TradeSchema) []int64 {
	if len(trades) == 0 {
		return nil
	}
	ids := make([]int64, len(trades))
	for i, t := range trades {
		ids[i] = t.TradeId
	}
	return ids
}
