package freqtrade

import "encoding/json"

// Nullable wraps a value that the Freqtrade API may omit or send as null,
// distinguishing "absent" from "present but zero". JSON encoding keeps the
// pointer semantics; IsSet/Get mirror the accessor pattern callers expect
// from a generated OpenAPI client.
type Nullable[T any] struct {
	value *T
	set   bool
}

// NewNullable wraps v as a set value.
func NewNullable[T any](v T) Nullable[T] {
	return Nullable[T]{value: &v, set: true}
}

// IsSet reports whether the field was present in the API response.
func (n Nullable[T]) IsSet() bool {
	return n.set
}

// Get returns the wrapped value, or nil if the field was absent or null.
func (n Nullable[T]) Get() *T {
	return n.value
}

// MarshalJSON implements json.Marshaler.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if string(data) == "null" {
		n.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.value = &v
	return nil
}

// Profit mirrors the response body of GET /api/v1/profit.
type Profit struct {
	ProfitClosedCoin     float64 `json:"profit_closed_coin"`
	ProfitClosedPercent  float64 `json:"profit_closed_percent"`
	ProfitClosedRatio    float64 `json:"profit_closed_ratio"`
	ProfitAllCoin        float64 `json:"profit_all_coin"`
	ProfitAllPercent     float64 `json:"profit_all_percent"`
	ProfitAllRatio       float64 `json:"profit_all_ratio"`
	TradeCount           int64   `json:"trade_count"`
	ClosedTradeCount     int64   `json:"closed_trade_count"`
	WinningTrades        int64   `json:"winning_trades"`
	LosingTrades         int64   `json:"losing_trades"`
	Winrate              float64 `json:"winrate"`
	Expectancy           float64 `json:"expectancy"`
	ExpectancyRatio      float64 `json:"expectancy_ratio"`
	ProfitFactor         float64 `json:"profit_factor"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	MaxDrawdownAbs       float64 `json:"max_drawdown_abs"`
	BestPair             string  `json:"best_pair"`
	BestRate             float64 `json:"best_rate"`
	FirstTradeTimestamp  int64   `json:"first_trade_timestamp"`
	LatestTradeTimestamp int64   `json:"latest_trade_timestamp"`
	StakeCurrency        string  `json:"stake_currency"`
}

// TradeSchema mirrors a single trade entry in GET /api/v1/trades.
type TradeSchema struct {
	TradeId        int64               `json:"trade_id"`
	Pair           string              `json:"pair"`
	IsOpen         bool                `json:"is_open"`
	IsShort        bool                `json:"is_short"`
	OpenRate       float64             `json:"open_rate"`
	CloseRate      Nullable[float64]   `json:"close_rate"`
	Amount         float64             `json:"amount"`
	StakeAmount    float64             `json:"stake_amount"`
	ProfitAbs      Nullable[float64]   `json:"profit_abs"`
	ProfitRatio    Nullable[float64]   `json:"profit_ratio"`
	Strategy       string              `json:"strategy"`
	ExitReason     Nullable[string]    `json:"exit_reason"`
	Timeframe      int64               `json:"timeframe"`
	OpenTimestamp  int64               `json:"open_timestamp"`
	CloseTimestamp Nullable[int64]     `json:"close_timestamp"`
}

// OpenTradeSchema mirrors an entry of GET /api/v1/status.
type OpenTradeSchema struct {
	TradeId  int64   `json:"trade_id"`
	Pair     string  `json:"pair"`
	OpenRate float64 `json:"open_rate"`
	Amount   float64 `json:"amount"`
}

// TradesResponse mirrors the envelope of GET /api/v1/trades.
type TradesResponse struct {
	Trades      []TradeSchema `json:"trades"`
	TradesCount int64         `json:"trades_count"`
	TotalTrades int64         `json:"total_trades"`
	Offset      int64         `json:"offset"`
}

// Balances mirrors the response body of GET /api/v1/balance.
type Balances struct {
	Currencies []struct {
		Currency string  `json:"currency"`
		Free     float64 `json:"free"`
		Used     float64 `json:"used"`
		Balance  float64 `json:"balance"`
	} `json:"currencies"`
	Total         float64 `json:"total"`
	StakeCurrency string  `json:"stake"`
}

// PerformanceEntry mirrors an entry of GET /api/v1/performance.
type PerformanceEntry struct {
	Pair     string  `json:"pair"`
	ProfitPct float64 `json:"profit_pct"`
	Count    int64   `json:"count"`
}

// AccessAndRefreshToken mirrors the response body of POST /api/v1/token/login.
type AccessAndRefreshToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
