// Package ledgerapi is the HTTP client for the budgeting service that holds
// the user's transaction ledger.
package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
)

const dateLayout = "2006-01-02"

// Client is the HTTP client for the budgeting service.
type Client struct {
	baseURL    string
	budgetID   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new budgeting service client. Transient failures
// (connection errors, 429s, 5xx) are retried with backoff.
func NewClient(baseURL, budgetID, token string, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Timeout = 30 * time.Second
	retryClient.Logger = nil

	return &Client{
		baseURL:    trimTrailingSlash(baseURL),
		budgetID:   budgetID,
		token:      token,
		httpClient: retryClient.StandardClient(),
		logger:     logger,
		metrics:    m,
	}
}

// ListTransactions fetches all transactions on or after the given date.
// Amounts come back in signed minor units, expenses negative.
func (c *Client) ListTransactions(ctx context.Context, since time.Time) ([]ledger.TransactionRecord, error) {
	start := time.Now()
	u := fmt.Sprintf("%s/v1/budgets/%s/transactions?since_date=%s",
		c.baseURL, url.PathEscape(c.budgetID), since.Format(dateLayout))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCall("list_transactions", 0, start)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.recordCall("list_transactions", resp.StatusCode, start)

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var parsed transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]ledger.TransactionRecord, 0, len(parsed.Data.Transactions))
	for _, w := range parsed.Data.Transactions {
		record, err := toRecord(w)
		if err != nil {
			c.logger.Warn("skipping unparseable transaction", "transaction_id", w.ID, "error", err)
			continue
		}
		records = append(records, record)
	}

	c.logger.Debug("fetched transactions", "count", len(records), "since", since.Format(dateLayout))
	return records, nil
}

// UpdateMemo sets the memo on a single transaction.
func (c *Client) UpdateMemo(ctx context.Context, transactionID, memo string) error {
	start := time.Now()
	body, err := json.Marshal(updateMemoRequest{Transaction: updateMemoBody{Memo: memo}})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/budgets/%s/transactions/%s",
		c.baseURL, url.PathEscape(c.budgetID), url.PathEscape(transactionID))

	req, err := http.NewRequestWithContext(ctx, "PATCH", u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordCall("update_memo", 0, start)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.recordCall("update_memo", resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(resp)
	}

	c.logger.Debug("updated memo", "transaction_id", transactionID)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) recordCall(operation string, statusCode int, start time.Time) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if statusCode >= 200 && statusCode < 300 {
		status = "success"
	}
	c.metrics.RecordLedgerAPICall(operation, status, time.Since(start).Seconds())
}

func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error struct {
			Name   string `json:"name"`
			Detail string `json:"detail"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Detail == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s (%s)", errResp.Error.Detail, errResp.Error.Name)
}

func toRecord(w transactionWire) (ledger.TransactionRecord, error) {
	date, err := time.Parse(dateLayout, w.Date)
	if err != nil {
		return ledger.TransactionRecord{}, fmt.Errorf("invalid date %q: %w", w.Date, err)
	}

	record := ledger.TransactionRecord{
		ID:       w.ID,
		Date:     date,
		Amount:   w.Amount,
		Payee:    w.PayeeName,
		Memo:     w.Memo,
		Cleared:  w.Cleared == "cleared" || w.Cleared == "reconciled",
		Approved: w.Approved,
	}
	if err := record.Validate(); err != nil {
		return ledger.TransactionRecord{}, err
	}
	return record, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
