package trigger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/clock"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
)

// DefaultCacheTTL bounds how often the campaign list is re-fetched.
const DefaultCacheTTL = 5 * time.Minute

// Fetcher is the network collaborator for campaign refresh. *api.Client
// implements it.
type Fetcher interface {
	FetchCampaigns(model.FetchCampaignRequest) (model.FetchCampaignResponse, error)
}

// Cache holds the campaign list with a time-boxed refresh. lastFetch is
// stamped only on a successful fetch, so after a failure the next call
// retries immediately instead of waiting out a failed TTL.
type Cache struct {
	fetcher Fetcher
	store   kvstore.Store
	clock   clock.Clock
	ttl     time.Duration

	mu        sync.Mutex
	campaigns []model.Campaign
	checksum  string
	loaded    bool
	lastFetch time.Time
}

// NewCache creates a campaign cache. ttl <= 0 selects DefaultCacheTTL.
func NewCache(fetcher Fetcher, store kvstore.Store, clk clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Cache{fetcher: fetcher, store: store, clock: clk, ttl: ttl}
}

// Campaigns returns the campaign list, fetching when forced or when the
// TTL has lapsed. The TTL spans restarts: the fetch time is persisted, so
// a fresh process within the window serves the persisted list. On fetch
// failure it returns whatever is cached, possibly empty, without stamping
// the fetch time.
func (c *Cache) Campaigns(force bool, req model.FetchCampaignRequest) []model.Campaign {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()

	fresh := !c.lastFetch.IsZero() && c.clock.Now().Sub(c.lastFetch) < c.ttl
	if !force && fresh {
		return c.campaigns
	}

	resp, err := c.fetcher.FetchCampaigns(req)
	if err != nil {
		slog.Warn("campaign fetch failed, serving cached list", "error", err)
		return c.campaigns
	}

	c.campaigns = resp.Campaigns
	c.checksum = resp.Checksum
	c.loaded = true
	c.lastFetch = c.clock.Now()
	if err := kvstore.SaveJSON(c.store, kvstore.KeyCampaigns, resp.Campaigns); err != nil {
		slog.Warn("campaign cache: persist failed", "error", err)
	}
	if err := kvstore.SaveJSON(c.store, kvstore.KeyCampaignFetch, c.lastFetch.UnixMilli()); err != nil {
		slog.Warn("campaign cache: persist fetch time failed", "error", err)
	}
	slog.Debug("campaign cache refreshed",
		"count", len(resp.Campaigns), "checksum", resp.Checksum)
	return c.campaigns
}

// loadLocked restores the list and fetch time persisted by a previous run,
// exactly once.
func (c *Cache) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true

	var persisted []model.Campaign
	ok, err := kvstore.LoadJSON(c.store, kvstore.KeyCampaigns, &persisted)
	if err != nil {
		slog.Warn("campaign cache: discarding unreadable persisted list", "error", err)
		return
	}
	if !ok {
		return
	}
	c.campaigns = persisted

	var ms int64
	if ok, err := kvstore.LoadJSON(c.store, kvstore.KeyCampaignFetch, &ms); err == nil && ok {
		c.lastFetch = time.UnixMilli(ms)
	}
}
