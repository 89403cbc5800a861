package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/parrotops/internal/api"
	"github.com/vbonduro/parrotops/internal/domain"
)

const base = "https://ops.test"

func newMockClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	return New(base+"/", "tok-1", WithHTTPClient(&http.Client{Transport: mt})), mt
}

func TestBins(t *testing.T) {
	c, mt := newMockClient(t)

	var auth string
	mt.RegisterResponder(http.MethodGet, base+"/api/bins", func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"bins": []map[string]any{{"binId": "B-1", "zone": "A", "status": "DONE"}},
		})
	})

	bins, err := c.Bins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)
	require.Len(t, bins, 1)
	assert.Equal(t, &domain.Bin{BinID: "B-1", Zone: "A", Status: domain.StatusDone}, bins[0])
}

func TestLotsEncodesFilter(t *testing.T) {
	c, mt := newMockClient(t)

	mt.RegisterResponderWithQuery(http.MethodGet, base+"/api/lots", "bin=B+1",
		httpmock.NewStringResponder(http.StatusOK, `{"lots":[{"lotId":"L-1","binId":"B 1"}]}`))

	lots, err := c.Lots(context.Background(), "B 1")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "L-1", lots[0].LotID)
}

func TestBinWithLots(t *testing.T) {
	c, mt := newMockClient(t)

	mt.RegisterResponder(http.MethodGet, base+"/api/bins/B-1",
		httpmock.NewStringResponder(http.StatusOK, `{"bin":{"binId":"B-1","zone":"A"},"lots":[{"lotId":"L-1","binId":"B-1"}]}`))

	bin, lots, err := c.Bin(context.Background(), "B-1")
	require.NoError(t, err)
	assert.Equal(t, "A", bin.Zone)
	require.Len(t, lots, 1)
	assert.Equal(t, "L-1", lots[0].LotID)
}

func TestFindLotsEncodesQuery(t *testing.T) {
	c, mt := newMockClient(t)

	mt.RegisterResponderWithQuery(http.MethodGet, base+"/api/lots/find", "q=oak+chair",
		httpmock.NewStringResponder(http.StatusOK, `{"lots":[{"lotId":"L-2"}]}`))

	lots, err := c.FindLots(context.Background(), "oak chair")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "L-2", lots[0].LotID)
}

func TestJournalEncodesSubject(t *testing.T) {
	c, mt := newMockClient(t)

	mt.RegisterResponderWithQuery(http.MethodGet, base+"/api/journal", "subject=L-1&limit=5",
		httpmock.NewStringResponder(http.StatusOK, `{"entries":[{"id":3,"action":"lot.move","subject":"L-1"}]}`))

	entries, err := c.Journal(context.Background(), "L-1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lot.move", entries[0].Action)
}

func TestMoveLotSendsBody(t *testing.T) {
	c, mt := newMockClient(t)

	var got api.MoveLotRequest
	mt.RegisterResponder(http.MethodPost, base+"/api/lots/move", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return httpmock.NewStringResponse(http.StatusOK, `{"success":true}`), nil
	})

	require.NoError(t, c.MoveLot(context.Background(), "L-1", "B-2"))
	assert.Equal(t, api.MoveLotRequest{LotID: "L-1", TargetBinID: "B-2"}, got)
}

func TestCleanBinAlwaysSendsSetEmpty(t *testing.T) {
	c, mt := newMockClient(t)

	var raw map[string]any
	mt.RegisterResponder(http.MethodPost, base+"/api/bin/clean", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&raw))
		return httpmock.NewStringResponse(http.StatusOK, `{"success":true,"cleaned":4,"setEmpty":false}`), nil
	})

	n, err := c.CleanBin(context.Background(), "B-1", false)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, false, raw["setEmpty"])
}

func TestSaveZoneLayout(t *testing.T) {
	c, mt := newMockClient(t)

	var body string
	mt.RegisterResponder(http.MethodPost, base+"/api/zone-layout", func(req *http.Request) (*http.Response, error) {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
		return httpmock.NewStringResponse(http.StatusOK, `{"ok":true,"count":1}`), nil
	})

	n, err := c.SaveZoneLayout(context.Background(), []domain.Zone{{ZoneID: "A", X: 1, Y: 2, W: 3, H: 4}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.JSONEq(t, `{"zones":[{"zoneId":"A","x":1,"y":2,"w":3,"h":4,"active":false}]}`, body)
}

func TestAPIError(t *testing.T) {
	c, mt := newMockClient(t)

	mt.RegisterResponder(http.MethodPost, base+"/api/lots/move",
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":"Lot not found"}`))

	err := c.MoveLot(context.Background(), "L-404", "B-1")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.EqualError(t, err, "server returned status 404: Lot not found")
}

func TestAPIErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "tok-1").Bins(context.Background())
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.EqualError(t, err, "server returned status 502")
}

func TestNetworkError(t *testing.T) {
	_, err := New("http://localhost:99999", "tok-1").ZoneLayout(context.Background())
	assert.Error(t, err)
	assert.False(t, IsStatus(err, 0))
}

func TestInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := New(server.URL, "tok-1").Journal(context.Background(), "", 5)
	assert.ErrorContains(t, err, "failed to decode response")
}
