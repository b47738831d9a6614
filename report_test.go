package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/reaction-tracker/db"
	"github.com/brettboylen/reaction-tracker/models"
	"github.com/brettboylen/reaction-tracker/table"
	"github.com/brettboylen/reaction-tracker/utils"
)

const reportResponse = `[
  {"reactionId":"r1","videoId":"x","createdAt":"2022-09-01T12:00:00Z","reportCount":0,
   "reaction":{"id":"a","title":"First Reaction","channelId":"c1","channelTitle":"Reactor"},
   "reactionTo":{"id":"x","title":"Viral Original"}},
  {"reactionId":"r2","videoId":"x","createdAt":"2022-09-02T12:00:00Z","reportCount":4,
   "reaction":{"id":"b","title":"Second Reaction","channelId":"c1","channelTitle":"Reactor"},
   "reactionTo":{"id":"x","title":"Viral Original"}}
]`

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig(t *testing.T, apiURL string) *utils.Config {
	return &utils.Config{
		Reactions: utils.ReactionsConfig{
			APIURL:               apiURL,
			PollingInterval:      10,
			MaxRequestsPerMinute: 600,
		},
		Database: utils.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "reactions.db"),
		},
	}
}

func TestRunReportFetchesAndStores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(reportResponse))
	}))
	config := testConfig(t, server.URL)

	var out bytes.Buffer
	opts := &reportOptions{sort: "createdAt", dir: "desc"}
	require.NoError(t, runReport(context.Background(), &out, opts, config, quietLogger()))

	output := out.String()
	assert.Contains(t, output, "Reactions: 2")
	assert.Contains(t, output, "Videos: 3")
	assert.Contains(t, output, "Channels: 1")
	assert.Contains(t, output, "Viral Original")
	assert.Less(t, strings.Index(output, "Second Reaction"), strings.LastIndex(output, "First Reaction"))

	// the stored snapshot serves the offline report after the API is gone
	server.Close()
	out.Reset()
	opts.offline = true
	require.NoError(t, runReport(context.Background(), &out, opts, config, quietLogger()))
	assert.Contains(t, out.String(), "Reactions: 2")
}

func TestRunReportOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected fetch of %s", r.URL.Path)
	}))
	defer server.Close()
	config := testConfig(t, server.URL)

	created := time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)
	database, err := db.NewDatabase(config.Database.Path, quietLogger())
	require.NoError(t, err)
	require.NoError(t, database.SaveReactions([]models.Reaction{
		{
			ReactionID: "r1",
			CreatedAt:  created,
			Reaction:   models.Video{ID: "a", Title: "Stored Reaction", ChannelID: "c1", ChannelTitle: "Reactor"},
			ReactionTo: models.Video{ID: "x", Title: "Stored Original"},
		},
		{
			ReactionID: "r2",
			CreatedAt:  created.Add(time.Hour),
			Reaction:   models.Video{ID: "b", Title: "Later Reaction", ChannelID: "c2", ChannelTitle: "Other"},
			ReactionTo: models.Video{ID: "x", Title: "Stored Original"},
		},
	}))
	require.NoError(t, database.Close())

	var out bytes.Buffer
	opts := &reportOptions{offline: true, sort: "createdAt", dir: "asc"}
	require.NoError(t, runReport(context.Background(), &out, opts, config, quietLogger()))

	output := out.String()
	assert.Contains(t, output, "Reactions: 2")
	assert.Contains(t, output, "Videos: 3")
	assert.Contains(t, output, "Channels: 2")
	assert.Less(t, strings.LastIndex(output, "Stored Reaction"), strings.LastIndex(output, "Later Reaction"))
}

func TestRunReportOfflineEmptyDatabase(t *testing.T) {
	var out bytes.Buffer
	opts := &reportOptions{offline: true}
	require.NoError(t, runReport(context.Background(), &out, opts, testConfig(t, "http://127.0.0.1:1"), quietLogger()))

	output := out.String()
	assert.Contains(t, output, "Reactions: 0")
	assert.Contains(t, output, "No reactions to display.")
}

func TestRunReportFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var out bytes.Buffer
	err := runReport(context.Background(), &out, &reportOptions{}, testConfig(t, server.URL), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, out.String())
}

func TestReportTableState(t *testing.T) {
	state, err := reportTableState(&reportOptions{
		sort:  "reportCount",
		dir:   "asc",
		moves: []string{"video:reportCount", "createdAt : reaction"},
	})
	require.NoError(t, err)
	assert.Equal(t, table.ColumnOrder{"createdAt", "reaction", "reportCount", "video"}, state.Order())
	assert.Equal(t, table.SortState{ColumnID: "reportCount", Direction: table.Ascending}, state.Sorting())

	state, err = reportTableState(&reportOptions{})
	require.NoError(t, err)
	assert.False(t, state.Sorting().Sorted())

	_, err = reportTableState(&reportOptions{moves: []string{"video"}})
	assert.Error(t, err)

	_, err = reportTableState(&reportOptions{sort: "views", dir: "asc"})
	assert.ErrorIs(t, err, table.ErrUnknownColumn)

	_, err = reportTableState(&reportOptions{order: "video,reaction"})
	assert.ErrorIs(t, err, table.ErrInvalidOrder)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "report")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version)
}
