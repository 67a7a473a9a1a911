package trigger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/profilecache"
	"github.com/marketap/marketap-sdk-go/internal/testutil"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

type fakePresenter struct {
	mu    sync.Mutex
	shown []string
}

func (p *fakePresenter) Present(c model.Campaign) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, c.ID)
}

type fakeTracker struct {
	names []string
	props []map[string]any
}

func (t *fakeTracker) Track(name string, properties map[string]any, id string, timestamp time.Time) {
	t.names = append(t.names, name)
	t.props = append(t.props, properties)
}

type staticProvider struct{}

func (staticProvider) DeviceInfo() model.Device { return model.Device{Platform: "ios"} }

func triggeredBy(id, eventName string) model.Campaign {
	return model.Campaign{
		ID: id,
		TriggerCondition: model.TriggerCondition{
			EventFilter: model.EventFilter{EventName: eventName},
		},
	}
}

type serviceFixture struct {
	service   *Service
	fetcher   *fakeFetcher
	presenter *fakePresenter
	tracker   *fakeTracker
	clock     *testutil.FakeClock
	scheduled []time.Duration
	callbacks []func()
}

func newService(t *testing.T, campaigns ...model.Campaign) *serviceFixture {
	t.Helper()

	store := kvstore.NewMemory()
	clk := testutil.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{resp: model.FetchCampaignResponse{Campaigns: campaigns}}
	f := &serviceFixture{
		fetcher:   fetcher,
		presenter: &fakePresenter{},
		tracker:   &fakeTracker{},
		clock:     clk,
	}

	f.service = NewService(ServiceConfig{
		ProjectID:  "p1",
		Cache:      NewCache(fetcher, store, clk, 0),
		Gate:       NewGate(store, clk),
		ServerTime: NewServerTime(&fakeInfoAPI{}, clk),
		Profile:    profilecache.New(store, staticProvider{}),
		Tracker:    f.tracker,
		Schedule: func(d time.Duration, fn func()) {
			f.scheduled = append(f.scheduled, d)
			f.callbacks = append(f.callbacks, fn)
		},
	})
	f.service.SetPresenter(f.presenter)
	f.service.SetSurfaceReady(true)
	return f
}

func plainEvent(name string) model.Event {
	return model.Event{Name: name, Properties: value.Object{}}
}

// TestService_DisplaysFirstMatch the first matching, admitted campaign is
// presented; later matches are not.
func TestService_DisplaysFirstMatch(t *testing.T) {
	f := newService(t,
		triggeredBy("c1", "other_event"),
		triggeredBy("c2", "purchase"),
		triggeredBy("c3", "purchase"),
	)

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)

	assert.Equal(t, []string{"c2"}, f.presenter.shown)
}

// TestService_BridgeEventsSkipped web-bridge events never drive native
// display.
func TestService_BridgeEventsSkipped(t *testing.T) {
	f := newService(t, triggeredBy("c1", "purchase"))

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, true)

	assert.Empty(t, f.presenter.shown)
	assert.Zero(t, f.fetcher.calls, "no campaign fetch for bridge events")
}

// TestService_PendingUntilSurfaceReady an admitted campaign waits for the
// surface and is presented once it signals ready.
func TestService_PendingUntilSurfaceReady(t *testing.T) {
	f := newService(t, triggeredBy("c1", "purchase"))
	f.service.SetSurfaceReady(false)

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)
	assert.Empty(t, f.presenter.shown)

	f.service.SetSurfaceReady(true)
	assert.Equal(t, []string{"c1"}, f.presenter.shown)
}

// TestService_DelayedDisplay a campaign with delayMinutes is scheduled,
// not shown inline, and re-checked against the gate when it fires.
func TestService_DelayedDisplay(t *testing.T) {
	delayed := triggeredBy("c1", "purchase")
	delayed.TriggerCondition.DelayMinutes = 10
	f := newService(t, delayed)

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)

	assert.Empty(t, f.presenter.shown)
	require.Equal(t, []time.Duration{10 * time.Minute}, f.scheduled)

	f.callbacks[0]()
	assert.Equal(t, []string{"c1"}, f.presenter.shown)
}

// TestService_UserChangeForcesRefetch
func TestService_UserChangeForcesRefetch(t *testing.T) {
	f := newService(t, triggeredBy("c1", "purchase"))

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)
	require.Equal(t, 1, f.fetcher.calls)

	// Within the TTL, but the user changed.
	f.service.HandleUserIDChanged()
	assert.Equal(t, 2, f.fetcher.calls)
}

// TestService_InteractionEvents impressions and clicks flow back into the
// pipeline under the canonical message event names.
func TestService_InteractionEvents(t *testing.T) {
	f := newService(t)
	c := triggeredBy("c1", "purchase")
	c.Layout.LayoutSubType = "MODAL"

	f.service.OnImpression(c, "m1")
	f.service.OnClick(c, "loc1", "m2")

	require.Equal(t, []string{eventDeliveryMessage, eventClickMessage}, f.tracker.names)
	assert.Equal(t, "c1", f.tracker.props[0]["mkt_campaign_id"])
	assert.Equal(t, "MODAL", f.tracker.props[0]["mkt_sub_channel_type"])
	assert.Equal(t, "m1", f.tracker.props[0]["mkt_message_id"])
	assert.Equal(t, "loc1", f.tracker.props[1]["mkt_location_id"])
}

// TestService_HideReleasesLock after a dismissal the next matching event
// can display again.
func TestService_HideReleasesLock(t *testing.T) {
	f := newService(t, triggeredBy("c1", "purchase"))

	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)
	require.Equal(t, []string{"c1"}, f.presenter.shown)

	// Locked: same event shows nothing.
	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)
	assert.Equal(t, []string{"c1"}, f.presenter.shown)

	f.service.Hide("c1", 0)
	f.service.HandleEvent(plainEvent("purchase"), model.Device{}, false)
	assert.Equal(t, []string{"c1", "c1"}, f.presenter.shown)
}
