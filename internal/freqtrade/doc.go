/*
Package freqtrade provides a minimal Go client for the Freqtrade REST API.

# Overview

Freqtrade is a cryptocurrency trading bot framework that exposes a REST API
for monitoring and control. Each bot instance is an independent, self-hosted
process - there is no shared client SDK to depend on, so this package talks
to it directly over net/http rather than through a generated client.

# Files

  - bot_client.go       - authenticated wrapper around the subset of the
    Freqtrade REST API the control plane needs (profit, trades, status)
  - models.go            - response types, including a Nullable[T] wrapper
    for fields Freqtrade may omit or send as null
  - config_validator.go  - validates a bot's Freqtrade config against the
    fields the control plane requires before storing it
  - result_parser.go     - extracts backtest results from Freqtrade's stdout

# Connecting to a Bot

A runtime resolves how to reach a given bot (container IP on a bridge
network, a Kubernetes service DNS name, or localhost for a bare process) and
hands back an *http.Client and base URL; BotClient is then constructed
directly against that resolved endpoint:

	httpClient, baseURL, err := runtime.GetBotHTTPClient(ctx, botID)
	if err != nil {
		return err
	}
	client := freqtrade.NewBotClientWithHTTPClient(httpClient, baseURL, username, password)
	profit, err := client.GetProfit(ctx)

See internal/monitor/bot_monitor.go for the integration.

# Error Handling

Every method wraps the underlying HTTP or JSON decoding error with the
endpoint that failed, and treats any non-200 response as an error - the
Freqtrade API does not return structured error bodies worth parsing.
*/
package freqtrade
