// Package marketap is the client SDK for the Marketap event and campaign
// platform: behavioral event tracking with session windowing and
// crash-safe retry queues, user profile management, and locally evaluated
// in-app message campaigns.
//
// A Client is created once per process with NewClient and shut down with
// Close. All tracking calls are fire-and-forget; network work happens on a
// background worker and never blocks the caller.
package marketap

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/api"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/pipeline"
	"github.com/marketap/marketap-sdk-go/internal/profilecache"
	"github.com/marketap/marketap-sdk-go/internal/trigger"
)

// Version is the library version reported in device snapshots.
const Version = "0.1.0"

// Re-exported types so hosts never import internal packages.
type (
	// Device is the device snapshot attached to outgoing requests.
	Device = model.Device

	// Campaign is a server-authored in-app message campaign.
	Campaign = model.Campaign

	// DeviceInfoProvider supplies the platform's device attributes.
	DeviceInfoProvider = profilecache.DeviceInfoProvider

	// Presenter renders an admitted campaign.
	Presenter = trigger.Presenter
)

// Config configures a Client. ProjectID is required; everything else has a
// production default.
type Config struct {
	ProjectID string

	// EventBaseURL and CRMBaseURL override the production hosts, for
	// staging and tests.
	EventBaseURL string
	CRMBaseURL   string

	// StoragePath locates the on-disk state database. Empty selects an
	// in-memory store that does not survive the process.
	StoragePath string

	// DeviceInfo supplies device attributes. Defaults to a minimal
	// runtime-derived snapshot.
	DeviceInfo DeviceInfoProvider

	// CampaignTTL overrides how long a fetched campaign list stays
	// fresh.
	CampaignTTL time.Duration

	HTTPClient *http.Client
}

// Client is the SDK entry point. Safe for concurrent use.
type Client struct {
	store    kvstore.Store
	api      *api.Client
	profile  *profilecache.Cache
	pipeline *pipeline.Pipeline
	triggers *trigger.Service
}

// NewClient wires the SDK and starts its background worker.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("marketap: ProjectID is required")
	}

	var store kvstore.Store
	if cfg.StoragePath != "" {
		s, err := kvstore.OpenSQLite(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		store = s
	} else {
		store = kvstore.NewMemory()
	}

	apiClient := api.New(api.Config{
		ProjectID:    cfg.ProjectID,
		EventBaseURL: cfg.EventBaseURL,
		CRMBaseURL:   cfg.CRMBaseURL,
		HTTPClient:   cfg.HTTPClient,
	})

	provider := cfg.DeviceInfo
	if provider == nil {
		provider = runtimeProvider{}
	}
	profile := profilecache.New(store, provider)

	triggers := trigger.NewService(trigger.ServiceConfig{
		ProjectID:  cfg.ProjectID,
		Cache:      trigger.NewCache(apiClient, store, nil, cfg.CampaignTTL),
		Gate:       trigger.NewGate(store, nil),
		ServerTime: trigger.NewServerTime(apiClient, nil),
		Profile:    profile,
	})

	pipe := pipeline.New(pipeline.Config{
		Sender:   apiClient,
		Cache:    profile,
		Store:    store,
		Delegate: triggers,
	})
	triggers.SetTracker(pipe)

	c := &Client{
		store:    store,
		api:      apiClient,
		profile:  profile,
		pipeline: pipe,
		triggers: triggers,
	}
	c.pipeline.UpdateDevice()
	return c, nil
}

// Close flushes queued work and releases the storage backend.
func (c *Client) Close() error {
	c.pipeline.Close()
	return c.store.Close()
}

// Flush blocks until every operation enqueued before the call has been
// processed. Call it when the app is about to be backgrounded.
func (c *Client) Flush() {
	c.pipeline.Flush()
}

// Track records a behavioral event.
func (c *Client) Track(name string, properties map[string]any) {
	c.pipeline.Track(name, properties, "", time.Time{})
}

// TrackEvent records an event with an explicit dedup id and timestamp.
// Zero values fall back to a generated send time.
func (c *Client) TrackEvent(name string, properties map[string]any, id string, timestamp time.Time) {
	c.pipeline.Track(name, properties, id, timestamp)
}

// TrackPurchase records the canonical purchase event with revenue.
func (c *Client) TrackPurchase(revenue float64, properties map[string]any) {
	c.pipeline.TrackPurchase(revenue, properties)
}

// TrackRevenue records a custom revenue event.
func (c *Client) TrackRevenue(name string, revenue float64, properties map[string]any) {
	c.pipeline.TrackRevenue(name, revenue, properties)
}

// TrackPageView records the canonical page view event.
func (c *Client) TrackPageView(properties map[string]any) {
	c.pipeline.TrackPageView(properties)
}

// Identify associates subsequent events with userID and updates the
// user's profile.
func (c *Client) Identify(userID string, properties map[string]any) {
	c.pipeline.Identify(userID, properties)
}

// Login identifies the user and records the canonical login event.
func (c *Client) Login(userID string, userProperties, eventProperties map[string]any) {
	c.pipeline.Login(userID, userProperties, eventProperties)
}

// Logout records the canonical logout event and unlinks the user from
// this device. A no-op when nobody is logged in.
func (c *Client) Logout(eventProperties map[string]any) {
	c.pipeline.Logout(eventProperties)
}

// FlushUser unlinks the user without recording a logout event.
func (c *Client) FlushUser() {
	c.pipeline.FlushUser()
}

// SetPushToken stores the push token and propagates it to the server.
func (c *Client) SetPushToken(token string) {
	c.pipeline.SetPushToken(token)
}

// UpdateDevice re-reads the device snapshot from the provider and sends
// it if anything changed.
func (c *Client) UpdateDevice() {
	c.pipeline.UpdateDevice()
}

// SetPresenter registers the in-app message rendering surface.
func (c *Client) SetPresenter(p Presenter) {
	c.triggers.SetPresenter(p)
}

// SetSurfaceReady signals whether the rendering surface can present.
// Campaigns admitted while it was not ready are presented on the
// transition to ready.
func (c *Client) SetSurfaceReady(ready bool) {
	c.triggers.SetSurfaceReady(ready)
}

// HideCampaign dismisses the currently shown campaign. A positive
// duration suppresses that campaign until the duration lapses.
func (c *Client) HideCampaign(campaignID string, duration time.Duration) {
	c.triggers.Hide(campaignID, duration)
}

// ReportImpression records that a campaign actually rendered.
func (c *Client) ReportImpression(campaign Campaign, messageID string) {
	c.triggers.OnImpression(campaign, messageID)
}

// ReportClick records a tap inside a rendered campaign.
func (c *Client) ReportClick(campaign Campaign, locationID, messageID string) {
	c.triggers.OnClick(campaign, locationID, messageID)
}

// FetchCampaigns returns the campaign list, bypassing the freshness
// window when forced.
func (c *Client) FetchCampaigns(force bool) []Campaign {
	return c.triggers.Campaigns(force)
}

// runtimeProvider is the fallback device source when the host supplies
// none.
type runtimeProvider struct{}

func (runtimeProvider) DeviceInfo() model.Device {
	return model.Device{
		Platform:       "go",
		OS:             runtime.GOOS,
		CPUArch:        runtime.GOARCH,
		LibraryVersion: Version,
		Timezone:       time.Local.String(),
	}
}
