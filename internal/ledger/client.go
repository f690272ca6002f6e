// Package ledger is the HTTP client for the external BEAM Coin ledger
// service. The ledger is an eventually-consistent secondary view: it is
// never consulted to decide redeemability, and callers that mirror writes
// into it are expected to tolerate failure.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"readyaimgo-dashboard/internal/config"
)

// Transaction types accepted by the ledger.
const (
	TypeEarn  = "earn"
	TypeSpend = "spend"
)

// Transaction is a ledger record, both as posted and as echoed back.
type Transaction struct {
	ID          string  `json:"id,omitempty"`
	UID         string  `json:"uid"`
	Type        string  `json:"type"` // earn / spend
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// AdminClient is a client row as reported by the ledger admin endpoint.
type AdminClient struct {
	UID                  string  `json:"uid"`
	Name                 string  `json:"name,omitempty"`
	Email                string  `json:"email,omitempty"`
	PlanType             string  `json:"planType,omitempty"`
	BeamCoinBalance      float64 `json:"beamCoinBalance"`
	HousingWalletBalance float64 `json:"housingWalletBalance"`
	LastActive           string  `json:"lastActive,omitempty"`
}

// MonthActivity is one month of aggregated earn/spend volume.
type MonthActivity struct {
	Month string  `json:"month"`
	Earn  float64 `json:"earn"`
	Spend float64 `json:"spend"`
}

// AdminStats are the ledger-wide KPI numbers.
type AdminStats struct {
	TotalBeamCoins        float64         `json:"totalBeamCoins"`
	TotalClients          int64           `json:"totalClients"`
	TotalUSDSubscriptions float64         `json:"totalUsdSubscriptions"`
	MonthlyActivity       []MonthActivity `json:"monthlyActivity,omitempty"`
}

// APIError is a non-2xx response from the ledger.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("beam ledger: status %d: %s", e.Status, e.Body)
}

// Client is an explicit handle on the ledger service. Construct one at
// startup with New and pass it to whatever needs it; there is no package
// singleton.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a ledger client from config. An empty token is fine, the
// ledger tolerates anonymous calls.
func New(cfg config.LedgerConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Balance fetches the live BEAM Coin balance for a uid.
func (c *Client) Balance(ctx context.Context, uid string) (float64, error) {
	var out struct {
		Balance float64 `json:"balance"`
	}
	q := url.Values{"uid": {uid}}
	if err := c.get(ctx, "/api/balance", q, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// AddTransaction posts an earn/spend record and returns the ledger's echo.
func (c *Client) AddTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	var out Transaction
	if err := c.post(ctx, "/api/transactions", tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions lists the ledger history for a uid.
func (c *Client) Transactions(ctx context.Context, uid string) ([]Transaction, error) {
	var out []Transaction
	q := url.Values{"uid": {uid}}
	if err := c.get(ctx, "/api/transactions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminClients lists all clients known to the ledger.
func (c *Client) AdminClients(ctx context.Context) ([]AdminClient, error) {
	var out []AdminClient
	if err := c.get(ctx, "/api/admin/clients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminTransactions lists the most recent ledger transactions across all uids.
func (c *Client) AdminTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Transaction
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/api/admin/transactions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminStats fetches the ledger-wide KPI numbers.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.get(ctx, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("beam ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
