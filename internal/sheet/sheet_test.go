package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type recordingObserver struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveSheetCall(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func newMockSheet(t *testing.T, obs Observer) (Spreadsheet, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	opener := NewGoogleOpener("sheet-123", WithHTTPClient(&http.Client{Transport: mt}), WithObserver(obs))
	ss, err := opener.Open(context.Background(), "tok-1")
	require.NoError(t, err)
	return ss, mt
}

func valuesURL(tab string) *regexp.Regexp {
	return regexp.MustCompile(`/v4/spreadsheets/sheet-123/values/` + tab)
}

func TestOpenRequiresToken(t *testing.T) {
	_, err := NewGoogleOpener("sheet-123").Open(context.Background(), "")
	assert.Error(t, err)
}

func TestClientGet(t *testing.T) {
	obs := &recordingObserver{}
	ss, mt := newMockSheet(t, obs)

	var authHeader string
	mt.RegisterRegexpResponder(http.MethodGet, valuesURL("LOTS"), func(req *http.Request) (*http.Response, error) {
		authHeader = req.Header.Get("Authorization")
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"range":          "LOTS!A1:Z3",
			"majorDimension": "ROWS",
			"values": []any{
				[]any{"LotID", "BinID", "Qty"},
				[]any{"L-1", "B-1", 12},
				[]any{"L-2"},
			},
		})
	})

	rows, err := ss.Get(context.Background(), "LOTS!A:Z")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", authHeader)
	assert.Equal(t, [][]string{
		{"LotID", "BinID", "Qty"},
		{"L-1", "B-1", "12"},
		{"L-2"},
	}, rows)
	assert.Equal(t, []string{"get"}, obs.ops)
	assert.NoError(t, obs.errs[0])
}

func TestClientGetUpstreamError(t *testing.T) {
	obs := &recordingObserver{}
	ss, mt := newMockSheet(t, obs)

	mt.RegisterRegexpResponder(http.MethodGet, valuesURL("BINS"),
		httpmock.NewStringResponder(http.StatusForbidden, `{"error":{"code":403,"message":"The caller does not have permission"}}`))

	_, err := ss.Get(context.Background(), "BINS!A:Z")
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
}

func TestClientUpdateUsesRawInput(t *testing.T) {
	ss, mt := newMockSheet(t, nil)

	var (
		inputOption string
		body        struct {
			Values [][]string `json:"values"`
		}
	)
	mt.RegisterRegexpResponder(http.MethodPut, valuesURL("LOTS"), func(req *http.Request) (*http.Response, error) {
		inputOption = req.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"updatedCells": 1})
	})

	err := ss.Update(context.Background(), "LOTS!B4", [][]string{{"B-9"}})
	require.NoError(t, err)
	assert.Equal(t, "RAW", inputOption)
	assert.Equal(t, [][]string{{"B-9"}}, body.Values)
}

func TestClientBatchUpdate(t *testing.T) {
	ss, mt := newMockSheet(t, nil)

	var body struct {
		ValueInputOption string `json:"valueInputOption"`
		Data             []struct {
			Range  string     `json:"range"`
			Values [][]string `json:"values"`
		} `json:"data"`
	}
	mt.RegisterRegexpResponder(http.MethodPost, regexp.MustCompile(`/values:batchUpdate`), func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return nil, err
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"totalUpdatedCells": 2})
	})

	err := ss.BatchUpdate(context.Background(), []ValueRange{
		{Range: "LOTS!B2", Values: [][]string{{""}}},
		{Range: "LOTS!B5", Values: [][]string{{""}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RAW", body.ValueInputOption)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "LOTS!B5", body.Data[1].Range)
}

func TestClientBatchUpdateEmptyIsNoop(t *testing.T) {
	ss, mt := newMockSheet(t, nil)

	require.NoError(t, ss.BatchUpdate(context.Background(), nil))
	assert.Zero(t, mt.GetTotalCallCount())
}

func TestClientAppendAndClear(t *testing.T) {
	ss, mt := newMockSheet(t, nil)

	mt.RegisterRegexpResponder(http.MethodPost, regexp.MustCompile(`/values/LOTS.*:append`),
		httpmock.NewStringResponder(http.StatusOK, `{"updates":{"updatedRows":1}}`))
	mt.RegisterRegexpResponder(http.MethodPost, regexp.MustCompile(`/values/ZONE_LAYOUT.*:clear`),
		httpmock.NewStringResponder(http.StatusOK, `{"clearedRange":"ZONE_LAYOUT!A2:F9"}`))

	require.NoError(t, ss.Append(context.Background(), "LOTS!A7", [][]string{{"L-7", "B-1"}}))
	require.NoError(t, ss.Clear(context.Background(), "ZONE_LAYOUT!A2:F"))
	assert.Equal(t, 2, mt.GetTotalCallCount())
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{float64(12), "12"},
		{2.5, "2.5"},
		{true, "TRUE"},
		{false, "FALSE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellString(tt.in))
	}
}
