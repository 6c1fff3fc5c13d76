// Package client is the typed HTTP client for the exchange API, used
// by the pmx CLI and the terminal dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/duskvale/patternmarket/internal/challenge"
	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/internal/feed"
	"github.com/duskvale/patternmarket/internal/market"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Market(ctx context.Context) (exchange.MarketSnapshot, error) {
	var out exchange.MarketSnapshot
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/market", nil, &out)
	return out, err
}

func (c *Client) Instruments(ctx context.Context) ([]market.Snapshot, error) {
	var out struct {
		Instruments []market.Snapshot `json:"instruments"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instruments", nil, &out)
	return out.Instruments, err
}

func (c *Client) Instrument(ctx context.Context, symbol string) (market.Snapshot, error) {
	var out market.Snapshot
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instruments/"+url.PathEscape(symbol), nil, &out)
	return out, err
}

func (c *Client) CreatePortfolio(ctx context.Context, owner string) (exchange.PortfolioView, error) {
	var out exchange.PortfolioView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/portfolios", map[string]any{"owner": owner}, &out)
	return out, err
}

func (c *Client) Portfolio(ctx context.Context, owner string) (exchange.PortfolioView, error) {
	var out exchange.PortfolioView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/portfolios/"+url.PathEscape(owner), nil, &out)
	return out, err
}

// PlaceOrder submits an order. Price 0 requests an at-market fill.
func (c *Client) PlaceOrder(ctx context.Context, owner, symbol, side string, qty int64, price, leverage, stopLoss, takeProfit float64) (exchange.Order, error) {
	var out exchange.Order
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/orders", map[string]any{
		"owner":       owner,
		"symbol":      symbol,
		"side":        side,
		"quantity":    qty,
		"price":       price,
		"leverage":    leverage,
		"stop_loss":   stopLoss,
		"take_profit": takeProfit,
	}, &out)
	return out, err
}

func (c *Client) CancelOrder(ctx context.Context, id string) (exchange.Order, error) {
	var out exchange.Order
	err := c.jsonRequest(ctx, http.MethodDelete, "/v1/orders/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Orders(ctx context.Context, owner string) ([]exchange.Order, error) {
	var out struct {
		Orders []exchange.Order `json:"orders"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/orders?owner="+url.QueryEscape(owner), nil, &out)
	return out.Orders, err
}

func (c *Client) NewChallenge(ctx context.Context, owner, ctype string) (challenge.View, error) {
	var out challenge.View
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/challenges", map[string]any{
		"owner": owner,
		"type":  ctype,
	}, &out)
	return out, err
}

func (c *Client) SolveChallenge(ctx context.Context, owner, ctype, solution string) (exchange.BonusApplied, error) {
	var out exchange.BonusApplied
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/challenges/solve", map[string]any{
		"owner":    owner,
		"type":     ctype,
		"solution": solution,
	}, &out)
	return out, err
}

func (c *Client) Events(ctx context.Context, n int) ([]feed.Item, error) {
	var out struct {
		Events []feed.Item `json:"events"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/events?n=%d", n), nil, &out)
	return out.Events, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
