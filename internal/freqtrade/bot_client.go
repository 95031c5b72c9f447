package freqtrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// BotClient is a minimal REST client for a Freqtrade bot's control API,
// authenticated with HTTP Basic Auth. Freqtrade does not publish a stable
// client library, so this wraps net/http directly rather than a generated
// one - each bot runs an independent, self-hosted instance with no shared
// SDK to depend on.
type BotClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
}

// NewBotClient creates a new authenticated Freqtrade client for a bot.
func NewBotClient(baseURL, username, password string) *BotClient {
	return NewBotClientWithHTTPClient(&http.Client{Timeout: defaultRequestTimeout}, baseURL, username, password)
}

// NewBotClientWithHTTPClient creates a client using a caller-supplied HTTP
// client, letting a runtime resolve bot connectivity (container IP, service
// DNS, loopback) before handing the client and base URL over.
func NewBotClientWithHTTPClient(httpClient *http.Client, baseURL, username, password string) *BotClient {
	return &BotClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   username,
		password:   password,
	}
}

// NewBotClientFromContainerIP creates a client using a container IP and API port.
func NewBotClientFromContainerIP(containerIP string, apiPort int, username, password string) *BotClient {
	if apiPort == 0 {
		apiPort = 8080
	}
	baseURL := fmt.Sprintf("http://%s:%d", containerIP, apiPort)
	return NewBotClient(baseURL, username, password)
}

func (c *BotClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code from %s: %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *BotClient) post(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code from %s: %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// GetProfit fetches profit statistics from the bot.
func (c *BotClient) GetProfit(ctx context.Context) (*Profit, error) {
	var profit Profit
	if err := c.get(ctx, "/api/v1/profit", nil, &profit); err != nil {
		return nil, fmt.Errorf("failed to fetch profit: %w", err)
	}
	return &profit, nil
}

// GetTrades fetches a page of trades, newest first, ordered by trade ID.
func (c *BotClient) GetTrades(ctx context.Context, limit, offset int64) (*TradesResponse, error) {
	query := url.Values{
		"limit":  {strconv.FormatInt(limit, 10)},
		"offset": {strconv.FormatInt(offset, 10)},
	}
	var resp TradesResponse
	if err := c.get(ctx, "/api/v1/trades", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	return &resp, nil
}

// GetStatus fetches current bot status including open trades.
func (c *BotClient) GetStatus(ctx context.Context) ([]OpenTradeSchema, error) {
	var status []OpenTradeSchema
	if err := c.get(ctx, "/api/v1/status", nil, &status); err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	return status, nil
}

// GetBalance fetches current balance information.
func (c *BotClient) GetBalance(ctx context.Context) (*Balances, error) {
	var balance Balances
	if err := c.get(ctx, "/api/v1/balance", nil, &balance); err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return &balance, nil
}

// GetPerformance fetches performance statistics by trading pair.
func (c *BotClient) GetPerformance(ctx context.Context) ([]PerformanceEntry, error) {
	var performance []PerformanceEntry
	if err := c.get(ctx, "/api/v1/performance", nil, &performance); err != nil {
		return nil, fmt.Errorf("failed to fetch performance: %w", err)
	}
	return performance, nil
}

// Ping checks if the Freqtrade API is accessible. Unlike the other
// endpoints, /api/v1/ping requires no authentication.
func (c *BotClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Login authenticates with the bot and returns access/refresh tokens.
func (c *BotClient) Login(ctx context.Context) (*AccessAndRefreshToken, error) {
	var tokens AccessAndRefreshToken
	if err := c.post(ctx, "/api/v1/token/login", &tokens); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return &tokens, nil
}

// GetUsername returns the username used for authentication.
func (c *BotClient) GetUsername() string {
	return c.username
}
