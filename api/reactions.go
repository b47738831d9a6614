package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brettboylen/reaction-tracker/models"
)

const (
	DefaultBaseURL              = "https://yt-reactions-server.fly.dev"
	defaultMaxRequestsPerMinute = 30
)

// ReactionsAPI represents a client for the reactions API
type ReactionsAPI struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *logrus.Logger
}

// NewReactionsAPI creates a new reactions API client
func NewReactionsAPI(baseURL string, maxRequestsPerMinute int, log *logrus.Logger) *ReactionsAPI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxRequestsPerMinute <= 0 {
		maxRequestsPerMinute = defaultMaxRequestsPerMinute
	}

	// no burst; one request per interval
	limit := rate.Every(time.Minute / time.Duration(maxRequestsPerMinute))

	return &ReactionsAPI{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(limit, 1),
		log:         log,
	}
}

// FetchReactions fetches the full reaction list
func (r *ReactionsAPI) FetchReactions(ctx context.Context) ([]models.Reaction, error) {
	if err := r.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	endpoint := r.baseURL + "/reactions"
	r.log.WithField("endpoint", endpoint).Debug("Fetching reactions")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		r.log.WithField("retry_after_sec", getHeaderAsInt(resp.Header, "Retry-After")).
			Warn("Reactions API rate limit exceeded")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.log.WithFields(logrus.Fields{
			"response_body": string(body),
			"status_code":   resp.StatusCode,
		}).Error("Reactions API error response")
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var reactions []models.Reaction
	if err := json.NewDecoder(resp.Body).Decode(&reactions); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if reactions == nil {
		reactions = []models.Reaction{}
	}

	r.log.WithField("count", len(reactions)).Info("Fetched reactions")
	return reactions, nil
}

func getHeaderAsInt(header http.Header, name string) int {
	value := header.Get(name)
	if value == "" {
		return 0
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}

	return intValue
}
