package rippled

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/amendfinder/service/metrics"
)

const (
	methodLedger = "ledger"

	// errLedgerNotFound is rippled's error token for a ledger it does not hold.
	errLedgerNotFound = "lgrNotFound"
)

// Client fetches ledgers from a rippled server.
// It wraps the RPC transport with domain-specific decoding and error classification.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // endpoint identifier for metrics (e.g. "s2.ripple.com:51234")
}

// NewClient creates a new rippled client.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// ledgerParams are the parameters of the "ledger" method.
type ledgerParams struct {
	LedgerIndex  LedgerIndex `json:"ledger_index,omitempty"`
	LedgerHash   string      `json:"ledger_hash,omitempty"`
	Transactions bool        `json:"transactions"`
	Expand       bool        `json:"expand"`
}

// ledgerResult is the "result" member of a "ledger" response.
type ledgerResult struct {
	Ledger       *ledgerJSON `json:"ledger"`
	LedgerIndex  flexIndex   `json:"ledger_index"`
	Status       string      `json:"status"`
	Error        string      `json:"error"`
	ErrorCode    int         `json:"error_code"`
	ErrorMessage string      `json:"error_message"`
}

type ledgerJSON struct {
	LedgerIndex    flexIndex       `json:"ledger_index"`
	LedgerHash     string          `json:"ledger_hash"`
	CloseTimeHuman string          `json:"close_time_human"`
	Transactions   json.RawMessage `json:"transactions"`
}

// FetchLedger retrieves the ledger at index with its transactions expanded.
// Returns ErrLedgerNotFound if rippled does not hold that ledger.
func (c *Client) FetchLedger(ctx context.Context, index LedgerIndex) (*Ledger, error) {
	return c.fetch(ctx, ledgerParams{
		LedgerIndex:  index,
		Transactions: true,
		Expand:       true,
	}, slog.Int64("ledger_index", int64(index)))
}

// FetchLedgerByHash retrieves the ledger with the given hash with its transactions expanded.
func (c *Client) FetchLedgerByHash(ctx context.Context, hash string) (*Ledger, error) {
	return c.fetch(ctx, ledgerParams{
		LedgerHash:   hash,
		Transactions: true,
		Expand:       true,
	}, slog.String("ledger_hash", hash))
}

func (c *Client) fetch(ctx context.Context, params ledgerParams, key slog.Attr) (*Ledger, error) {
	c.logger.DebugContext(ctx, "requesting ledger", key, "endpoint", c.endpoint)

	start := time.Now()
	raw, err := c.rpc.Call(ctx, methodLedger, params)
	var ledger *Ledger
	if err == nil {
		ledger, err = decodeLedgerResult(raw, params.LedgerIndex)
	}
	duration := time.Since(start).Seconds()

	status := "success"
	switch {
	case errors.Is(err, ErrLedgerNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall(methodLedger, status, c.endpoint, duration)
		if ledger != nil {
			c.metrics.RecordLedgerTransactions(c.endpoint, len(ledger.Transactions))
		}
	}

	if err != nil {
		if status == "not_found" {
			c.logger.DebugContext(ctx, "ledger not found", key)
		} else {
			c.logger.ErrorContext(ctx, "failed to fetch ledger", key, "error", err)
		}
		return nil, err
	}

	c.logger.DebugContext(ctx, "fetched ledger",
		"ledger_index", int64(ledger.Index),
		"transactions", len(ledger.Transactions),
		"duration_seconds", duration,
	)
	return ledger, nil
}

// decodeLedgerResult converts a "ledger" result into a domain Ledger.
// requested is used as the index when the response omits it.
func decodeLedgerResult(raw json.RawMessage, requested LedgerIndex) (*Ledger, error) {
	var result ledgerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: decode ledger result: %w", ErrInvalidResponse, err)
	}

	if result.Error != "" {
		if result.Error == errLedgerNotFound {
			return nil, fmt.Errorf("%w: %s", ErrLedgerNotFound, result.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: %s (code %d): %s", ErrRPC, result.Error, result.ErrorCode, result.ErrorMessage)
	}

	if result.Ledger == nil {
		return nil, fmt.Errorf("%w: result has no ledger", ErrInvalidResponse)
	}
	if len(result.Ledger.Transactions) == 0 {
		return nil, fmt.Errorf("%w: ledger has no transactions field", ErrInvalidResponse)
	}

	var txns []Transaction
	if err := json.Unmarshal(result.Ledger.Transactions, &txns); err != nil {
		return nil, fmt.Errorf("%w: decode transactions (was expand honored?): %w", ErrInvalidResponse, err)
	}

	index := LedgerIndex(result.Ledger.LedgerIndex)
	if index == 0 {
		index = LedgerIndex(result.LedgerIndex)
	}
	if index == 0 {
		index = requested
	}

	return &Ledger{
		Index:          index,
		Hash:           result.Ledger.LedgerHash,
		CloseTimeHuman: result.Ledger.CloseTimeHuman,
		Transactions:   txns,
	}, nil
}
