package stats

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reaction-tracker/models"
)

// Status describes whether a snapshot holds usable data
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// ReactionSource supplies the raw reaction list
type ReactionSource interface {
	FetchReactions(ctx context.Context) ([]models.Reaction, error)
}

// ReactionStore persists fetched reaction lists
type ReactionStore interface {
	SaveReactions(reactions []models.Reaction) error
}

// Snapshot is the result of the latest collection cycle.
// Reactions and Metrics are only meaningful when Status is StatusReady.
type Snapshot struct {
	Status      Status            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Reactions   []models.Reaction `json:"-"`
	Metrics     models.Metrics    `json:"metrics"`
	LastFetched time.Time         `json:"last_fetched"`
	LastUpdated time.Time         `json:"last_updated"`
}

// Collector periodically fetches reactions and recomputes metrics
type Collector struct {
	source          ReactionSource
	store           ReactionStore
	pollingInterval time.Duration
	snapshot        Snapshot
	fetchCount      int
	log             *logrus.Logger
	mutex           sync.RWMutex
}

// NewCollector creates a new collector; store may be nil
func NewCollector(
	source ReactionSource,
	store ReactionStore,
	pollingInterval int,
	log *logrus.Logger,
) *Collector {
	return &Collector{
		source:          source,
		store:           store,
		pollingInterval: time.Duration(pollingInterval) * time.Second,
		snapshot: Snapshot{
			Status:      StatusLoading,
			LastUpdated: time.Now(),
		},
		log: log,
	}
}

// Start fetches reactions until the context is cancelled
func (c *Collector) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.pollingInterval)
	defer ticker.Stop()

	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Error("Failed to refresh reactions")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.WithError(err).Error("Failed to refresh reactions")
			}
		}
	}
}

// Refresh runs a single fetch, store and compute cycle.
// A failed fetch moves the snapshot into the error state.
func (c *Collector) Refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.pollingInterval/2)
	defer cancel()

	reactions, err := c.source.FetchReactions(fetchCtx)
	if err != nil {
		err = fmt.Errorf("failed to fetch reactions: %w", err)
		c.setError(err)
		return err
	}

	if c.store != nil {
		// the in-memory snapshot is still valid when persisting fails
		if err := c.store.SaveReactions(reactions); err != nil {
			c.log.WithError(err).Error("Failed to save reactions")
		}
	}

	c.Load(reactions)
	c.logStatistics()
	return nil
}

// Load replaces the snapshot with metrics computed from reactions
func (c *Collector) Load(reactions []models.Reaction) {
	reactions = slices.Clone(reactions)
	if reactions == nil {
		reactions = []models.Reaction{}
	}
	metrics := Compute(reactions)
	now := time.Now()

	c.mutex.Lock()
	c.snapshot = Snapshot{
		Status:      StatusReady,
		Reactions:   reactions,
		Metrics:     metrics,
		LastFetched: now,
		LastUpdated: now,
	}
	c.fetchCount++
	c.mutex.Unlock()
}

func (c *Collector) setError(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.snapshot.Status = StatusError
	c.snapshot.Error = err.Error()
	c.snapshot.LastUpdated = time.Now()
}

// logStatistics logs the current statistics
func (c *Collector) logStatistics() {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	c.log.WithFields(logrus.Fields{
		"reactions":  c.snapshot.Metrics.Reactions,
		"videos":     c.snapshot.Metrics.Videos,
		"channels":   c.snapshot.Metrics.Channels,
		"fetches":    c.fetchCount,
		"fetched_at": c.snapshot.LastFetched.Format(time.RFC3339),
	}).Info("Statistics updated")
}

// Snapshot returns a copy of the current snapshot
func (c *Collector) Snapshot() Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.snapshot
}
