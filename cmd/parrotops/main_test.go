package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/parrotops/internal/auth"
	"github.com/vbonduro/parrotops/internal/db"
	"github.com/vbonduro/parrotops/internal/service"
	"github.com/vbonduro/parrotops/internal/sheet"
	"github.com/vbonduro/parrotops/internal/sheet/sheettest"
	"github.com/vbonduro/parrotops/internal/store"
	"github.com/vbonduro/parrotops/internal/web"
)

func newBackend(t *testing.T) (*httptest.Server, *sheettest.Memory) {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	m := sheettest.NewMemory()
	m.SetTab(sheet.TabBins, [][]string{{"BinID", "Zone", "Status"}, {"B-1", "A", "DONE"}})
	m.SetTab(sheet.TabLots, [][]string{
		{"LotID", "BinID", "Title", "Status", "Buyer"},
		{"L-1", "B-1", "Brass lamps", "OPEN", "Ana"},
		{"L-2", "", "Oak chairs"},
	})
	m.SetTab(sheet.TabZoneLayout, [][]string{
		{"ZoneID", "X", "Y", "Width", "Height", "Active"},
		{"A", "0", "0", "20", "10", "TRUE"},
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewWarehouseService(&sheettest.Opener{Sheet: m}, store.NewJournalStore(database), logger)
	srv := httptest.NewServer(web.NewServer(svc, auth.PresenceVerifier{}, nil, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv, m
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("API_TOKEN", "")
	t.Setenv("PARROTOPS_CONFIG", "")

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--api-token", "tok-1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func exportedZones(t *testing.T, srv *httptest.Server) []map[string]any {
	t.Helper()
	out, err := run(t, srv, "layout", "export", "--format", "json")
	require.NoError(t, err)
	var doc struct {
		Zones []map[string]any `json:"zones"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	return doc.Zones
}

func TestZoneMove(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, srv, "zone", "move", "A", "--x", "12", "--y", "5")
	require.NoError(t, err)
	assert.Equal(t, "A x=12 y=5 w=20 h=10\n", out)

	zones := exportedZones(t, srv)
	require.Len(t, zones, 1)
	assert.Equal(t, 12.0, zones[0]["x"])
	assert.Equal(t, 5.0, zones[0]["y"])
}

func TestZoneAddAndResize(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, srv, "zone", "add")
	require.NoError(t, err)
	assert.Equal(t, "NEW_ZONE_1 x=0 y=0 w=10 h=10\n", out)

	out, err = run(t, srv, "zone", "resize", "NEW_ZONE_1", "--w", "200", "--h", "3")
	require.NoError(t, err)
	assert.Equal(t, "NEW_ZONE_1 x=0 y=0 w=75 h=3\n", out)

	assert.Len(t, exportedZones(t, srv), 2)
}

func TestLayoutApply(t *testing.T) {
	srv, _ := newBackend(t)
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`zones:
  - id: DOCK
    x: 60
    y: 40
    w: 15
    h: 10
  - id: RACKS
    x: 0
    y: 0
    w: 30
    h: 20
`), 0o600))

	out, err := run(t, srv, "layout", "apply", path)
	require.NoError(t, err)
	assert.Equal(t, "saved 2 zones\n", out)

	zones := exportedZones(t, srv)
	require.Len(t, zones, 2)
	assert.Equal(t, "DOCK", zones[0]["id"])
	assert.Equal(t, "RACKS", zones[1]["id"])
}

func TestUnknownZone(t *testing.T) {
	srv, _ := newBackend(t)

	_, err := run(t, srv, "zone", "move", "NOPE", "--x", "1")
	assert.ErrorContains(t, err, "unknown zone")
}

func TestZoneRename(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, srv, "zone", "rename", "A", "DOCK")
	require.NoError(t, err)
	assert.Equal(t, "DOCK x=0 y=0 w=20 h=10\n", out)

	zones := exportedZones(t, srv)
	require.Len(t, zones, 1)
	assert.Equal(t, "DOCK", zones[0]["id"])
}

func TestZoneRenameToTakenID(t *testing.T) {
	srv, _ := newBackend(t)
	_, err := run(t, srv, "zone", "add")
	require.NoError(t, err)

	_, err = run(t, srv, "zone", "rename", "NEW_ZONE_1", "A")
	assert.ErrorContains(t, err, "invalid zone id")
	assert.Len(t, exportedZones(t, srv), 2)
}

func TestZoneDeactivate(t *testing.T) {
	srv, m := newBackend(t)

	out, err := run(t, srv, "zone", "deactivate", "A")
	require.NoError(t, err)
	assert.Equal(t, "A x=0 y=0 w=20 h=10\n", out)

	assert.Empty(t, exportedZones(t, srv))
	rows := m.Tab(sheet.TabZoneLayout)
	require.Len(t, rows, 2)
	assert.Equal(t, "FALSE", rows[1][5])
}

func TestBinShow(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, srv, "bin", "show", "B-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "B-1 zone=A status=DONE", lines[0])
	assert.Equal(t, []string{"L-1", "B-1", "Brass", "lamps", "OPEN", "Ana"}, strings.Fields(lines[1]))
}

func TestBinShowUnknown(t *testing.T) {
	srv, _ := newBackend(t)

	_, err := run(t, srv, "bin", "show", "B-404")
	assert.Error(t, err)
}

func TestLotsFindAndShow(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, srv, "lots", "find", "oak")
	require.NoError(t, err)
	assert.Equal(t, []string{"L-2", "-", "Oak", "chairs"}, strings.Fields(out))

	out, err = run(t, srv, "lots", "show", "L-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"L-1", "B-1", "Brass", "lamps", "OPEN", "Ana"}, strings.Fields(out))
}

func TestJournal(t *testing.T) {
	srv, _ := newBackend(t)
	_, err := run(t, srv, "zone", "move", "A", "--x", "3")
	require.NoError(t, err)

	out, err := run(t, srv, "journal", "--subject", sheet.TabZoneLayout)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "count=1")

	out, err = run(t, srv, "journal", "--subject", "L-1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMissingToken(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	t.Setenv("PARROTOPS_CONFIG", "")

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"layout", "export"})
	assert.EqualError(t, cmd.Execute(), "API_TOKEN is required")
}

func TestServeRequiresSheetID(t *testing.T) {
	t.Setenv("GOOGLE_SHEET_ID", "")
	t.Setenv("PARROTOPS_CONFIG", "")

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve"})
	assert.EqualError(t, cmd.Execute(), "GOOGLE_SHEET_ID is required")
}
