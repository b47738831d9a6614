package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/reaction-tracker/models"
	"github.com/brettboylen/reaction-tracker/stats"
	"github.com/brettboylen/reaction-tracker/table"
)

type staticSnapshots struct {
	snapshot stats.Snapshot
}

func (s staticSnapshots) Snapshot() stats.Snapshot {
	return s.snapshot
}

var baseTime = time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)

func readySnapshot() stats.Snapshot {
	reactions := []models.Reaction{
		{
			ReactionID:  "r1",
			ReportCount: 1,
			CreatedAt:   baseTime,
			Reaction:    models.Video{ID: "a", Title: "Reaction A", ChannelID: "c1", ChannelTitle: "One"},
			ReactionTo:  models.Video{ID: "x", Title: "Original X"},
		},
		{
			ReactionID:  "r2",
			ReportCount: 0,
			CreatedAt:   baseTime.Add(time.Hour),
			Reaction:    models.Video{ID: "b", Title: "Reaction B"},
			ReactionTo:  models.Video{ID: "x", Title: "Original X"},
		},
	}
	return stats.Snapshot{
		Status:    stats.StatusReady,
		Reactions: reactions,
		Metrics:   stats.Compute(reactions),
	}
}

func newTestServer(snapshot stats.Snapshot) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(staticSnapshots{snapshot: snapshot}, 600, log)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeTable(t *testing.T, rec *httptest.ResponseRecorder) TableResponse {
	t.Helper()

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func rowIDs(resp TableResponse) []string {
	ids := make([]string, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestGetMetrics(t *testing.T) {
	rec := doRequest(t, newTestServer(readySnapshot()), http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics models.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 2, metrics.Reactions)
	assert.Equal(t, 3, metrics.Videos)
	assert.Equal(t, 1, metrics.Channels)
	require.Len(t, metrics.TopVideos, 1)
	assert.Equal(t, 2, metrics.TopVideos[0].Count)
	assert.Equal(t, "x", metrics.TopVideos[0].ID)
}

func TestGetMetricsEmptyIsNotLoading(t *testing.T) {
	snapshot := stats.Snapshot{Status: stats.StatusReady, Reactions: []models.Reaction{}, Metrics: stats.Compute(nil)}
	rec := doRequest(t, newTestServer(snapshot), http.MethodGet, "/api/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reactions":0,"videos":0,"channels":0,"recent":[],"topVideos":[],"topChannels":[]}`, rec.Body.String())
}

func TestGetMetricsLoadingAndError(t *testing.T) {
	rec := doRequest(t, newTestServer(stats.Snapshot{Status: stats.StatusLoading}), http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "loading")

	failed := stats.Snapshot{Status: stats.StatusError, Error: "failed to fetch reactions: timeout"}
	rec = doRequest(t, newTestServer(failed), http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")

	rec = doRequest(t, newTestServer(failed), http.MethodGet, "/api/table", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetTableDefaults(t *testing.T) {
	resp := decodeTable(t, doRequest(t, newTestServer(readySnapshot()), http.MethodGet, "/api/table", ""))

	assert.Equal(t, table.ColumnOrder{"video", "reaction", "reportCount", "createdAt"}, resp.State.Order)
	assert.Equal(t, table.DefaultSort, resp.State.Sorting)
	assert.Equal(t, []string{"r2", "r1"}, rowIDs(resp))
	require.Len(t, resp.Headers, 4)
	assert.Equal(t, table.Descending, resp.Headers[3].Sorted)
}

func TestGetTableWithQuery(t *testing.T) {
	s := newTestServer(readySnapshot())

	resp := decodeTable(t, doRequest(t, s, http.MethodGet, "/api/table?order=createdAt,video,reaction,reportCount&sort=reportCount&dir=desc", ""))
	assert.Equal(t, table.ColumnOrder{"createdAt", "video", "reaction", "reportCount"}, resp.State.Order)
	assert.Equal(t, []string{"r1", "r2"}, rowIDs(resp))
	assert.Equal(t, "createdAt", resp.Headers[0].ID)
	assert.Equal(t, "createdAt", resp.Rows[0].Cells[0].ColumnID)

	resp = decodeTable(t, doRequest(t, s, http.MethodGet, "/api/table?sort=", ""))
	assert.False(t, resp.State.Sorting.Sorted())
	assert.Equal(t, []string{"r1", "r2"}, rowIDs(resp))
}

func TestGetTableRejectsInvalidInput(t *testing.T) {
	s := newTestServer(readySnapshot())

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{name: "Unknown sort column", target: "/api/table?sort=views", code: "UNKNOWN_COLUMN"},
		{name: "Bad direction", target: "/api/table?sort=video&dir=sideways", code: "INVALID_REQUEST"},
		{name: "Partial order", target: "/api/table?order=video,reaction", code: "INVALID_ORDER"},
		{name: "Duplicate in order", target: "/api/table?order=video,video,reaction,createdAt", code: "INVALID_ORDER"},
		{name: "Direction without column", target: "/api/table?dir=asc", code: "INVALID_REQUEST"},
		{name: "Direction with empty column", target: "/api/table?sort=&dir=desc", code: "INVALID_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, tc.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestToggleSortCycle(t *testing.T) {
	s := newTestServer(readySnapshot())
	order := `["video","reaction","reportCount","createdAt"]`

	resp := decodeTable(t, doRequest(t, s, http.MethodPost, "/api/table/sort",
		`{"state":{"order":`+order+`,"sorting":{"column":"createdAt","direction":"desc"}},"column":"reportCount"}`))
	assert.Equal(t, table.SortState{ColumnID: "reportCount", Direction: table.Ascending}, resp.State.Sorting)
	assert.Equal(t, []string{"r2", "r1"}, rowIDs(resp))

	resp = decodeTable(t, doRequest(t, s, http.MethodPost, "/api/table/sort",
		`{"state":{"order":`+order+`,"sorting":{"column":"reportCount","direction":"asc"}},"column":"reportCount"}`))
	assert.Equal(t, table.SortState{ColumnID: "reportCount", Direction: table.Descending}, resp.State.Sorting)
	assert.Equal(t, []string{"r1", "r2"}, rowIDs(resp))

	resp = decodeTable(t, doRequest(t, s, http.MethodPost, "/api/table/sort",
		`{"state":{"order":`+order+`,"sorting":{"column":"reportCount","direction":"desc"}},"column":"reportCount"}`))
	assert.False(t, resp.State.Sorting.Sorted())
	assert.Equal(t, []string{"r1", "r2"}, rowIDs(resp))

	rec := doRequest(t, s, http.MethodPost, "/api/table/sort", `{"state":{},"column":"views"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReorderColumns(t *testing.T) {
	s := newTestServer(readySnapshot())

	resp := decodeTable(t, doRequest(t, s, http.MethodPost, "/api/table/reorder",
		`{"state":{"order":["video","reaction","reportCount","createdAt"]},"dragged":"video","target":"reportCount"}`))
	assert.Equal(t, table.ColumnOrder{"reaction", "reportCount", "video", "createdAt"}, resp.State.Order)
	assert.False(t, resp.State.Sorting.Sorted())

	resp = decodeTable(t, doRequest(t, s, http.MethodPost, "/api/table/reorder",
		`{"state":{"order":["video","reaction","reportCount","createdAt"]},"dragged":"createdAt","target":"reaction"}`))
	assert.Equal(t, table.ColumnOrder{"video", "createdAt", "reaction", "reportCount"}, resp.State.Order)

	rec := doRequest(t, s, http.MethodPost, "/api/table/reorder", `{"state":{},"dragged":"views","target":"video"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_COLUMN")
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestServer(stats.Snapshot{Status: stats.StatusLoading}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
