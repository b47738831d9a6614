package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brettboylen/reaction-tracker/stats"
	"github.com/brettboylen/reaction-tracker/table"
	"github.com/brettboylen/reaction-tracker/utils"
)

// SnapshotProvider exposes the latest collection result
type SnapshotProvider interface {
	Snapshot() stats.Snapshot
}

// TableStateJSON is the client-held state of one table
type TableStateJSON struct {
	Order   table.ColumnOrder `json:"order"`
	Sorting table.SortState   `json:"sorting"`
}

// TableResponse is a table view together with the state that produced it
type TableResponse struct {
	State TableStateJSON `json:"state"`
	table.View
}

type sortRequest struct {
	State  TableStateJSON `json:"state"`
	Column string         `json:"column"`
}

type reorderRequest struct {
	State   TableStateJSON `json:"state"`
	Dragged string         `json:"dragged"`
	Target  string         `json:"target"`
}

// Server serves metrics and table views over HTTP
type Server struct {
	echo      *echo.Echo
	snapshots SnapshotProvider
	columns   []table.Column
	log       *logrus.Logger
}

// New creates the echo server with its middleware and routes
func New(snapshots SnapshotProvider, maxRequestsPerMinute int, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	requestsPerSecond := float64(maxRequestsPerMinute) / 60.0
	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     maxRequestsPerMinute,
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusForbidden, map[string]string{
				"error": "Unable to identify client",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
	}
	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig))

	s := &Server{
		echo:      e,
		snapshots: snapshots,
		columns:   table.DefaultColumns(),
		log:       log,
	}

	e.GET("/api/metrics", s.getMetrics)
	e.GET("/api/table", s.getTable)
	e.POST("/api/table/sort", s.toggleSort)
	e.POST("/api/table/reorder", s.reorderColumns)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	return s
}

// Handler returns the underlying http handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on port until Shutdown is called
func (s *Server) Start(port int) error {
	s.log.WithField("port", port).Info("Starting API server")
	return s.echo.Start(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) getMetrics(c echo.Context) error {
	snapshot, ok, err := s.readySnapshot(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, snapshot.Metrics)
}

func (s *Server) getTable(c echo.Context) error {
	state := table.New(s.columns)

	order := table.ColumnOrder(utils.ParseList(c.QueryParam("order")))
	sorting := state.Sorting()
	if c.QueryParam("dir") != "" && c.QueryParam("sort") == "" {
		return badRequest(c, errors.New("dir requires a sort column"))
	}
	if column := c.QueryParam("sort"); column != "" {
		direction := table.Ascending
		if dir := c.QueryParam("dir"); dir != "" {
			d, err := table.ParseDirection(dir)
			if err != nil {
				return badRequest(c, err)
			}
			direction = d
		}
		sorting = table.SortState{ColumnID: column, Direction: direction}
	} else if c.QueryParams().Has("sort") {
		// explicit empty sort means unsorted
		sorting = table.SortState{}
	}

	state, err := table.Restore(s.columns, order, sorting)
	if err != nil {
		return badRequest(c, err)
	}
	return s.renderTable(c, state)
}

func (s *Server) toggleSort(c echo.Context) error {
	var req sortRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	state, err := s.restore(req.State)
	if err != nil {
		return badRequest(c, err)
	}
	state, err = state.ToggleSort(req.Column)
	if err != nil {
		return badRequest(c, err)
	}
	return s.renderTable(c, state)
}

func (s *Server) reorderColumns(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	state, err := s.restore(req.State)
	if err != nil {
		return badRequest(c, err)
	}
	state, err = state.MoveColumn(req.Dragged, req.Target)
	if err != nil {
		return badRequest(c, err)
	}
	return s.renderTable(c, state)
}

func (s *Server) restore(st TableStateJSON) (table.State, error) {
	return table.Restore(s.columns, st.Order, st.Sorting)
}

func (s *Server) renderTable(c echo.Context, state table.State) error {
	snapshot, ok, err := s.readySnapshot(c)
	if !ok {
		return err
	}

	view, err := state.View(snapshot.Reactions)
	if err != nil {
		return badRequest(c, err)
	}

	return c.JSON(http.StatusOK, TableResponse{
		State: TableStateJSON{Order: state.Order(), Sorting: state.Sorting()},
		View:  view,
	})
}

// readySnapshot writes the loading or error response when no data is usable
func (s *Server) readySnapshot(c echo.Context) (stats.Snapshot, bool, error) {
	snapshot := s.snapshots.Snapshot()

	switch snapshot.Status {
	case stats.StatusReady:
		return snapshot, true, nil
	case stats.StatusError:
		return snapshot, false, c.JSON(http.StatusBadGateway, map[string]any{
			"status":       snapshot.Status,
			"error":        snapshot.Error,
			"last_updated": snapshot.LastUpdated,
		})
	default:
		return snapshot, false, c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": snapshot.Status,
		})
	}
}

func badRequest(c echo.Context, err error) error {
	code := "INVALID_REQUEST"
	switch {
	case errors.Is(err, table.ErrUnknownColumn):
		code = "UNKNOWN_COLUMN"
	case errors.Is(err, table.ErrNotSortable):
		code = "NOT_SORTABLE"
	case errors.Is(err, table.ErrInvalidOrder):
		code = "INVALID_ORDER"
	}
	return c.JSON(http.StatusBadRequest, map[string]string{
		"code":  code,
		"error": err.Error(),
	})
}
