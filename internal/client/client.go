// Package client is a typed Go client for the parrotops JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/parrotops/internal/api"
	"github.com/vbonduro/parrotops/internal/domain"
)

// APIError is a non-2xx response. Message is the server's error text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// New returns a client for the server at baseURL that authenticates with
// the given Google access token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Bins(ctx context.Context) ([]*domain.Bin, error) {
	var resp api.BinsResponse
	if err := c.do(ctx, http.MethodGet, "/api/bins", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bins, nil
}

func (c *Client) Bin(ctx context.Context, binID string) (*domain.Bin, []*domain.Lot, error) {
	var resp api.BinResponse
	if err := c.do(ctx, http.MethodGet, "/api/bins/"+url.PathEscape(binID), nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Bin, resp.Lots, nil
}

// Lots lists assigned lots, narrowed to binID when it is not empty.
func (c *Client) Lots(ctx context.Context, binID string) ([]*domain.Lot, error) {
	path := "/api/lots"
	if binID != "" {
		path += "?" + url.Values{"bin": {binID}}.Encode()
	}
	var resp api.LotsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lots, nil
}

func (c *Client) Lot(ctx context.Context, lotID string) (*domain.Lot, error) {
	var resp api.LotResponse
	if err := c.do(ctx, http.MethodGet, "/api/lots/"+url.PathEscape(lotID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lot, nil
}

func (c *Client) FindLots(ctx context.Context, query string) ([]*domain.Lot, error) {
	var resp api.LotsResponse
	path := "/api/lots/find?" + url.Values{"q": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lots, nil
}

func (c *Client) CreateLot(ctx context.Context, req api.CreateLotRequest) error {
	var resp api.CreateLotResponse
	return c.do(ctx, http.MethodPost, "/api/lots/create", req, &resp)
}

func (c *Client) MoveLot(ctx context.Context, lotID, targetBinID string) error {
	var resp api.MoveLotResponse
	return c.do(ctx, http.MethodPost, "/api/lots/move", api.MoveLotRequest{LotID: api.Text(lotID), TargetBinID: api.Text(targetBinID)}, &resp)
}

// CleanBin unassigns the bin's lots and returns how many were cleared.
func (c *Client) CleanBin(ctx context.Context, binID string, setEmpty bool) (int, error) {
	var resp api.CleanBinResponse
	flag := api.Flag(setEmpty)
	req := api.CleanBinRequest{BinID: api.Text(binID), SetEmpty: &flag}
	if err := c.do(ctx, http.MethodPost, "/api/bin/clean", req, &resp); err != nil {
		return 0, err
	}
	return resp.Cleaned, nil
}

func (c *Client) ZoneLayout(ctx context.Context) (*domain.ZoneLayout, error) {
	var resp api.ZoneLayoutResponse
	if err := c.do(ctx, http.MethodGet, "/api/zone-layout", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveZoneLayout replaces the server's layout with zones.
func (c *Client) SaveZoneLayout(ctx context.Context, zones []domain.Zone) (int, error) {
	req := api.SaveZonesRequest{Zones: make([]api.ZonePayload, 0, len(zones))}
	for _, z := range zones {
		req.Zones = append(req.Zones, api.PayloadFromZone(z))
	}
	var resp api.SaveZonesResponse
	if err := c.do(ctx, http.MethodPost, "/api/zone-layout", req, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Journal lists recent mutations, narrowed to one lot, bin or layout when
// subject is set.
func (c *Client) Journal(ctx context.Context, subject string, limit int) ([]*domain.JournalEntry, error) {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/journal"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp api.JournalResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
