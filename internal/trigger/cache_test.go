package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketap/marketap-sdk-go/internal/api"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/testutil"
)

type fakeFetcher struct {
	resp  model.FetchCampaignResponse
	err   error
	calls int
}

func (f *fakeFetcher) FetchCampaigns(model.FetchCampaignRequest) (model.FetchCampaignResponse, error) {
	f.calls++
	if f.err != nil {
		return model.FetchCampaignResponse{}, f.err
	}
	return f.resp, nil
}

func twoCampaigns() []model.Campaign {
	return []model.Campaign{{ID: "c1"}, {ID: "c2"}}
}

func newCampaignCache() (*Cache, *fakeFetcher, *testutil.FakeClock, *kvstore.Memory) {
	store := kvstore.NewMemory()
	clk := testutil.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{resp: model.FetchCampaignResponse{Campaigns: twoCampaigns(), Checksum: "abc"}}
	return NewCache(fetcher, store, clk, 0), fetcher, clk, store
}

// TestCache_TTL a fetch inside the TTL is served from memory; the TTL
// lapsing or force both hit the network.
func TestCache_TTL(t *testing.T) {
	c, fetcher, clk, _ := newCampaignCache()
	req := model.FetchCampaignRequest{ProjectID: "p1"}

	got := c.Campaigns(false, req)
	require.Len(t, got, 2)
	assert.Equal(t, 1, fetcher.calls)

	c.Campaigns(false, req)
	assert.Equal(t, 1, fetcher.calls, "within TTL")

	c.Campaigns(true, req)
	assert.Equal(t, 2, fetcher.calls, "forced")

	clk.Advance(DefaultCacheTTL + time.Second)
	c.Campaigns(false, req)
	assert.Equal(t, 3, fetcher.calls, "TTL lapsed")
}

// TestCache_FailureKeepsStaleAndRetries a failed fetch serves the old list
// and does not stamp the fetch time, so the next call retries immediately.
func TestCache_FailureKeepsStaleAndRetries(t *testing.T) {
	c, fetcher, clk, _ := newCampaignCache()
	req := model.FetchCampaignRequest{ProjectID: "p1"}

	c.Campaigns(false, req)
	clk.Advance(DefaultCacheTTL + time.Second)

	fetcher.err = &api.Error{Kind: api.KindTransport, Path: "/campaigns"}
	got := c.Campaigns(false, req)
	assert.Len(t, got, 2, "stale list served on failure")
	assert.Equal(t, 2, fetcher.calls)

	// No TTL wait after a failure.
	c.Campaigns(false, req)
	assert.Equal(t, 3, fetcher.calls)
}

// TestCache_PersistedFallback with the network down on a fresh start, the
// list persisted by a previous run is served.
func TestCache_PersistedFallback(t *testing.T) {
	c, fetcher, _, store := newCampaignCache()
	req := model.FetchCampaignRequest{ProjectID: "p1"}

	c.Campaigns(false, req)

	c2 := NewCache(fetcher, store, testutil.NewFakeClock(time.Now()), 0)
	fetcher.err = &api.Error{Kind: api.KindTransport, Path: "/campaigns"}

	got := c2.Campaigns(false, req)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
}

// TestCache_TTLSpansRestart a restart within the TTL serves the persisted
// list without hitting the network.
func TestCache_TTLSpansRestart(t *testing.T) {
	c, fetcher, clk, store := newCampaignCache()
	req := model.FetchCampaignRequest{ProjectID: "p1"}

	c.Campaigns(false, req)
	require.Equal(t, 1, fetcher.calls)

	clk.Advance(time.Minute)
	c2 := NewCache(fetcher, store, clk, 0)
	got := c2.Campaigns(false, req)
	require.Len(t, got, 2)
	assert.Equal(t, 1, fetcher.calls, "persisted fetch time still fresh")

	clk.Advance(DefaultCacheTTL)
	c2.Campaigns(false, req)
	assert.Equal(t, 2, fetcher.calls, "TTL lapsed after restart")
}
