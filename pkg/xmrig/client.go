// Package xmrig provides a client for the XMRig miner's local HTTP API.
//
// Only the read-only summary endpoint is used; it reports the running version and
// the rolling hashrate windows (10s, 60s, 15m).
// See: https://xmrig.com/docs/miner/api
package xmrig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"

	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/logger"
)

// Module provides the XMRig API client as an fx module
var Module = fx.Module("xmrig",
	fx.Provide(NewClient),
)

const summaryPath = "/2/summary"

// ErrUnavailable is returned when the API answers with a non-success status
var ErrUnavailable = errors.New("xmrig api unavailable")

// Client queries the miner's local API
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

// NewClient creates a client bounded by the miner probe timeout
func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	return New(cfg.Miner.APIURL, cfg.Miner.APIToken, cfg.Miner.ProbeTimeout, log)
}

// New creates a client for baseURL. An empty token disables authentication.
func New(baseURL, token string, timeout time.Duration, log *slog.Logger) *Client {
	h := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		h.SetAuthToken(token)
	}
	return &Client{
		http: h,
		log:  log.With(logger.Scope("xmrig")),
	}
}

// Summary is the subset of the /2/summary response the daemon reads
type Summary struct {
	ID       string `json:"id"`
	WorkerID string `json:"worker_id"`
	Version  string `json:"version"`
	Kind     string `json:"kind"`
	Uptime   int64  `json:"uptime"`
	Algo     string `json:"algo"`
	Hashrate struct {
		// Total holds the 10s, 60s and 15m windows; entries are null until a window fills
		Total   []*float64 `json:"total"`
		Highest *float64   `json:"highest"`
	} `json:"hashrate"`
	Results struct {
		SharesGood  int64 `json:"shares_good"`
		SharesTotal int64 `json:"shares_total"`
	} `json:"results"`
}

// CurrentHashrate returns the shortest populated hashrate window in H/s, or 0
func (s *Summary) CurrentHashrate() float64 {
	for _, h := range s.Hashrate.Total {
		if h != nil {
			return *h
		}
	}
	return 0
}

// Summary fetches the miner summary
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	result := &Summary{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(result).
		Get(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("query miner summary: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	c.log.Debug("miner summary",
		slog.String("version", result.Version),
		slog.Float64("hashrate", result.CurrentHashrate()),
		slog.Duration("latency", resp.Time()))
	return result, nil
}
