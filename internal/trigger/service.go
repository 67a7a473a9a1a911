package trigger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/profilecache"
	"github.com/marketap/marketap-sdk-go/internal/rules"
)

// Campaign interaction events reported back through the tracker.
const (
	eventDeliveryMessage = "mkt_delivery_message"
	eventClickMessage    = "mkt_click_message"
)

// Presenter renders an admitted campaign. Registered by the host; all
// methods are invoked off the host's goroutines.
type Presenter interface {
	Present(model.Campaign)
}

// Tracker reports campaign interaction events back into the event
// pipeline. *pipeline.Pipeline implements it.
type Tracker interface {
	Track(name string, properties map[string]any, id string, timestamp time.Time)
}

// ServiceConfig wires the trigger service's collaborators.
type ServiceConfig struct {
	ProjectID  string
	Cache      *Cache
	Gate       *Gate
	ServerTime *ServerTime
	Profile    *profilecache.Cache
	Tracker    Tracker

	// Schedule defers delayed-display callbacks; defaults to
	// time.AfterFunc.
	Schedule func(time.Duration, func())
}

// Service reacts to pipeline events: it refreshes the campaign cache,
// evaluates trigger conditions, and pushes admitted campaigns through the
// display gate to the registered presenter.
type Service struct {
	projectID  string
	cache      *Cache
	gate       *Gate
	serverTime *ServerTime
	profile    *profilecache.Cache
	schedule   func(time.Duration, func())

	mu        sync.Mutex
	presenter Presenter
	tracker   Tracker
}

// NewService creates the trigger service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		projectID:  cfg.ProjectID,
		cache:      cfg.Cache,
		gate:       cfg.Gate,
		serverTime: cfg.ServerTime,
		profile:    cfg.Profile,
		tracker:    cfg.Tracker,
		schedule:   cfg.Schedule,
	}
	if s.schedule == nil {
		s.schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return s
}

// SetPresenter registers the rendering surface implementation.
func (s *Service) SetPresenter(p Presenter) {
	s.mu.Lock()
	s.presenter = p
	s.mu.Unlock()
}

// SetTracker registers the interaction-event sink. Split from the
// constructor because the pipeline and this service reference each other;
// the pipeline is built second and registered here.
func (s *Service) SetTracker(t Tracker) {
	s.mu.Lock()
	s.tracker = t
	s.mu.Unlock()
}

// Campaigns exposes the cached campaign list for hosts and tooling.
func (s *Service) Campaigns(force bool) []model.Campaign {
	return s.cache.Campaigns(force, s.fetchRequest())
}

// HandleEvent evaluates the event against every cached campaign and
// displays the first one whose condition matches and whose gate admits it.
// Bridge-originated events are skipped: the embedding web SDK runs its own
// display loop and showing the campaign twice is worse than not at all.
//
// Implements the pipeline delegate.
func (s *Service) HandleEvent(event model.Event, device model.Device, fromWebBridge bool) {
	if fromWebBridge {
		return
	}

	campaigns := s.cache.Campaigns(false, s.fetchRequest())
	if len(campaigns) == 0 {
		return
	}

	deviceObj := rules.DeviceObject(device)
	now := s.serverTime.Now()

	for _, c := range campaigns {
		if !rules.IsTriggered(c.TriggerCondition, event, deviceObj, now) {
			continue
		}
		if delay := c.TriggerCondition.DelayMinutes; delay > 0 {
			slog.Debug("campaign display scheduled",
				"campaign", c.ID, "delay_minutes", delay)
			s.schedule(time.Duration(delay)*time.Minute, func() { s.display(c) })
			continue
		}
		if s.display(c) {
			break
		}
	}
}

// HandleUserIDChanged force-refreshes the campaign list: targeting is
// user-scoped, so the cached list is stale the moment the user changes.
//
// Implements the pipeline delegate.
func (s *Service) HandleUserIDChanged() {
	s.cache.Campaigns(true, s.fetchRequest())
}

// Hide releases the modal lock after a dismissal. A positive duration
// suppresses the campaign until it lapses.
func (s *Service) Hide(campaignID string, duration time.Duration) {
	s.gate.Hide(campaignID, duration)
}

// SetSurfaceReady flips the rendering surface state and presents any
// campaign that was parked waiting for it.
func (s *Service) SetSurfaceReady(ready bool) {
	if c := s.gate.SetSurfaceReady(ready); c != nil {
		s.present(*c)
	}
}

// OnImpression reports a successful display back into the event pipeline.
func (s *Service) OnImpression(c model.Campaign, messageID string) {
	s.trackInteraction(eventDeliveryMessage, c, map[string]any{
		"mkt_message_id": messageID,
	})
}

// OnClick reports a tap inside the rendered campaign.
func (s *Service) OnClick(c model.Campaign, locationID, messageID string) {
	s.trackInteraction(eventClickMessage, c, map[string]any{
		"mkt_location_id": locationID,
		"mkt_message_id":  messageID,
	})
}

func (s *Service) trackInteraction(name string, c model.Campaign, extra map[string]any) {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker == nil {
		return
	}
	props := map[string]any{
		"mkt_campaign_id":       c.ID,
		"mkt_campaign_category": "ON_SITE",
		"mkt_channel_type":      "IN_APP_MESSAGE",
		"mkt_sub_channel_type":  c.Layout.LayoutSubType,
		"mkt_result_status":     200000,
		"mkt_result_message":    "SUCCESS",
		"mkt_is_success":        true,
	}
	for k, v := range extra {
		props[k] = v
	}
	tracker.Track(name, props, "", time.Time{})
}

func (s *Service) display(c model.Campaign) bool {
	admitted, presentNow := s.gate.TryShow(c)
	if !admitted {
		return false
	}
	if presentNow {
		s.present(c)
	}
	return true
}

func (s *Service) present(c model.Campaign) {
	s.mu.Lock()
	p := s.presenter
	s.mu.Unlock()

	if p == nil {
		slog.Warn("campaign admitted but no presenter registered", "campaign", c.ID)
		return
	}
	p.Present(c)
}

func (s *Service) fetchRequest() model.FetchCampaignRequest {
	dr := s.profile.Device().MakeRequest(false)
	return model.FetchCampaignRequest{
		ProjectID: s.projectID,
		UserID:    s.profile.UserID(),
		Device:    &dr,
	}
}
