// Package sheet is the access layer to the spreadsheet used as the
// warehouse database. Every tab is a table whose first row is the header.
package sheet

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Tab names in the backing spreadsheet.
const (
	TabLots       = "LOTS"
	TabBins       = "BINS"
	TabZoneLayout = "ZONE_LAYOUT"
)

// ValueRange is one target of a batched write.
type ValueRange struct {
	Range  string
	Values [][]string
}

// Spreadsheet is the set of range operations the stores issue. Values are
// row-major; rows may be shorter than the requested range.
type Spreadsheet interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Update(ctx context.Context, rng string, values [][]string) error
	BatchUpdate(ctx context.Context, data []ValueRange) error
	Append(ctx context.Context, rng string, values [][]string) error
	Clear(ctx context.Context, rng string) error
}

// Opener hands out a Spreadsheet authorised with the caller's access token.
type Opener interface {
	Open(ctx context.Context, accessToken string) (Spreadsheet, error)
}

// Observer receives the outcome of every API call. op is one of get,
// update, batch_update, append, clear.
type Observer interface {
	ObserveSheetCall(op string, elapsed time.Duration, err error)
}

type GoogleOpener struct {
	spreadsheetID string
	endpoint      string
	httpClient    *http.Client
	observer      Observer
}

type OpenerOption func(*GoogleOpener)

// WithEndpoint overrides the Sheets API base URL.
func WithEndpoint(endpoint string) OpenerOption {
	return func(o *GoogleOpener) { o.endpoint = endpoint }
}

// WithHTTPClient sets the base client whose transport carries the
// authorised requests.
func WithHTTPClient(c *http.Client) OpenerOption {
	return func(o *GoogleOpener) { o.httpClient = c }
}

func WithObserver(obs Observer) OpenerOption {
	return func(o *GoogleOpener) { o.observer = obs }
}

func NewGoogleOpener(spreadsheetID string, opts ...OpenerOption) *GoogleOpener {
	o := &GoogleOpener{spreadsheetID: spreadsheetID, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *GoogleOpener) Open(ctx context.Context, accessToken string) (Spreadsheet, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, o.httpClient), ts)

	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if o.endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.endpoint))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &Client{values: svc.Spreadsheets.Values, spreadsheetID: o.spreadsheetID, observer: o.observer}, nil
}

// Client implements Spreadsheet on top of the Sheets v4 values API. All
// writes use the RAW input option so cell text is stored verbatim.
type Client struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	observer      Observer
}

const rawInput = "RAW"

func (c *Client) Get(ctx context.Context, rng string) (rows [][]string, err error) {
	defer c.observe("get", time.Now(), &err)

	resp, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}
	return fromCells(resp.Values), nil
}

func (c *Client) Update(ctx context.Context, rng string, values [][]string) (err error) {
	defer c.observe("update", time.Now(), &err)

	vr := &sheets.ValueRange{Range: rng, Values: toCells(values)}
	if _, err = c.values.Update(c.spreadsheetID, rng, vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) BatchUpdate(ctx context.Context, data []ValueRange) (err error) {
	if len(data) == 0 {
		return nil
	}
	defer c.observe("batch_update", time.Now(), &err)

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: rawInput}
	for _, d := range data {
		req.Data = append(req.Data, &sheets.ValueRange{Range: d.Range, Values: toCells(d.Values)})
	}
	if _, err = c.values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch update %d ranges: %w", len(data), err)
	}
	return nil
}

func (c *Client) Append(ctx context.Context, rng string, values [][]string) (err error) {
	defer c.observe("append", time.Now(), &err)

	vr := &sheets.ValueRange{Values: toCells(values)}
	if _, err = c.values.Append(c.spreadsheetID, rng, vr).ValueInputOption(rawInput).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to append to %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Clear(ctx context.Context, rng string) (err error) {
	defer c.observe("clear", time.Now(), &err)

	if _, err = c.values.Clear(c.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.observer != nil {
		c.observer.ObserveSheetCall(op, time.Since(start), *err)
	}
}

func toCells(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

func fromCells(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = cellString(v)
		}
	}
	return out
}

// cellString renders a decoded JSON cell the way the sheet displays it.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(t)
	}
}
