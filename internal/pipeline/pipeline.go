package pipeline

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/api"
	"github.com/marketap/marketap-sdk-go/internal/clock"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/profilecache"
	"github.com/marketap/marketap-sdk-go/internal/retryqueue"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// Sender is the network collaborator. *api.Client implements it.
type Sender interface {
	IngestEvent(model.IngestEventRequest) error
	IngestEventsBulk(model.CreateBulkClientEventRequest) error
	UpdateProfile(model.UpdateProfileRequest) error
	UpdateProfilesBulk(model.BulkProfileRequest) error
	UpdateDevice(model.DeviceRequest) error
}

// Delegate observes pipeline outcomes. Registered at construction; the
// pipeline does not retain its observers cyclically - it is composed
// top-down and the delegate is passed in.
type Delegate interface {
	// HandleEvent fires after every send attempt, regardless of network
	// outcome. This powers immediate rule evaluation.
	HandleEvent(event model.Event, device model.Device, fromWebBridge bool)

	// HandleUserIDChanged fires when Identify or a logout changes the
	// effective user id.
	HandleUserIDChanged()
}

// Config wires the pipeline's collaborators.
type Config struct {
	Sender         Sender
	Cache          *profilecache.Cache
	Store          kvstore.Store
	Clock          clock.Clock        // defaults to the system clock
	SessionIDs     IDGenerator        // defaults to UUIDv7Generator
	Delegate       Delegate           // optional
	MaxStorageSize int                // retry queue bound, defaults to 100
}

// Pipeline is the single-writer ingestion actor.
type Pipeline struct {
	sender   Sender
	cache    *profilecache.Cache
	store    kvstore.Store
	clock    clock.Clock
	ids      IDGenerator
	delegate Delegate

	failedEvents   *retryqueue.Queue[model.IngestEventRequest]
	failedProfiles *retryqueue.Queue[model.UpdateProfileRequest]

	tasks *taskQueue
	wg    sync.WaitGroup
}

// SessionGap is the inactivity window after which a new session starts.
const SessionGap = 30 * time.Minute

// New creates a pipeline and starts its worker goroutine.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		sender:   cfg.Sender,
		cache:    cfg.Cache,
		store:    cfg.Store,
		clock:    cfg.Clock,
		ids:      cfg.SessionIDs,
		delegate: cfg.Delegate,
		tasks:    newTaskQueue(),
	}
	if p.clock == nil {
		p.clock = clock.System()
	}
	if p.ids == nil {
		p.ids = UUIDv7Generator{}
	}
	p.failedEvents = retryqueue.New[model.IngestEventRequest](cfg.Store, kvstore.KeyFailedEvents, cfg.MaxStorageSize)
	p.failedProfiles = retryqueue.New[model.UpdateProfileRequest](cfg.Store, kvstore.KeyFailedProfiles, cfg.MaxStorageSize)

	p.wg.Add(1)
	go p.run()
	return p
}

// Close stops the worker after the queued tasks finish.
func (p *Pipeline) Close() {
	p.tasks.Close()
	p.wg.Wait()
}

// Flush blocks until every operation enqueued before the call has been
// processed. Hosts call this before the app is backgrounded.
func (p *Pipeline) Flush() {
	done := make(chan struct{})
	if !p.tasks.Enqueue(func() { close(done) }) {
		return
	}
	<-done
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		if task, ok := p.tasks.TryDequeue(); ok {
			task()
			continue
		}
		if p.tasks.Drained() {
			return
		}
		<-p.tasks.Wait()
	}
}

func (p *Pipeline) enqueue(task func()) {
	if !p.tasks.Enqueue(task) {
		slog.Warn("pipeline closed, dropping operation")
	}
}

// Track records a behavioral event. id deduplicates server-side; a zero
// timestamp means "now". Fire-and-forget.
func (p *Pipeline) Track(name string, properties map[string]any, id string, timestamp time.Time) {
	if timestamp.IsZero() {
		timestamp = p.clock.Now()
	}
	p.enqueue(func() { p.trackTask(name, properties, id, timestamp, false) })
}

// TrackBridgeEvent records an event originating from the web bridge.
func (p *Pipeline) TrackBridgeEvent(name string, properties map[string]any) {
	timestamp := p.clock.Now()
	p.enqueue(func() { p.trackTask(name, properties, "", timestamp, true) })
}

// TrackPurchase records a purchase with the canonical event name and the
// revenue property injected.
func (p *Pipeline) TrackPurchase(revenue float64, properties map[string]any) {
	p.Track(model.EventPurchase, withRevenue(properties, revenue), "", time.Time{})
}

// TrackRevenue records a named revenue event.
func (p *Pipeline) TrackRevenue(name string, revenue float64, properties map[string]any) {
	p.Track(name, withRevenue(properties, revenue), "", time.Time{})
}

// TrackPageView records a page view event.
func (p *Pipeline) TrackPageView(properties map[string]any) {
	p.Track(model.EventPageView, properties, "", time.Time{})
}

// Identify persists the user id and sends a profile update. A changed id
// notifies the delegate (used to force-refresh the campaign cache).
func (p *Pipeline) Identify(userID string, properties map[string]any) {
	p.enqueue(func() { p.identifyTask(userID, properties) })
}

// Login identifies the user, then tracks the canonical login event.
func (p *Pipeline) Login(userID string, userProperties, eventProperties map[string]any) {
	timestamp := p.clock.Now()
	p.enqueue(func() {
		p.identifyTask(userID, userProperties)
		p.trackTask(model.EventLogin, eventProperties, "", timestamp, false)
	})
}

// Logout clears the identity and tracks the canonical logout event. A
// no-op when nobody is logged in.
func (p *Pipeline) Logout(eventProperties map[string]any) {
	timestamp := p.clock.Now()
	p.enqueue(func() {
		if p.cache.UserID() == "" {
			return
		}
		p.flushUserTask()
		p.trackTask(model.EventLogout, eventProperties, "", timestamp, false)
	})
}

// FlushUser clears the identity without emitting a logout event.
func (p *Pipeline) FlushUser() {
	p.enqueue(p.flushUserTask)
}

// SetPushToken stores the push token and resends the device snapshot.
func (p *Pipeline) SetPushToken(token string) {
	p.enqueue(func() {
		p.cache.SetPushToken(token)
		p.updateDeviceTask()
	})
}

// UpdateDevice refreshes the snapshot from the platform provider and sends
// it if it differs from the last successfully sent payload.
func (p *Pipeline) UpdateDevice() {
	p.enqueue(func() {
		p.cache.RefreshDevice()
		p.updateDeviceTask()
	})
}

// FailedEventCount reports the retry queue depth. Diagnostics only.
func (p *Pipeline) FailedEventCount() int { return p.failedEvents.Len() }

// FailedProfileCount reports the profile retry queue depth.
func (p *Pipeline) FailedProfileCount() int { return p.failedProfiles.Len() }

// --- worker-side tasks; only ever called from the run loop ---

func (p *Pipeline) trackTask(name string, rawProps map[string]any, id string, timestamp time.Time, fromBridge bool) {
	props, err := value.ObjectFromAny(rawProps)
	if err != nil {
		slog.Warn("track: dropping event with unsupported properties",
			"event", name, "error", err)
		return
	}

	sessionID := p.resolveSession(timestamp)

	if props == nil {
		props = value.Object{}
	}
	props[model.PropSessionID] = value.String(sessionID)

	event := model.Event{
		ID:         id,
		Name:       name,
		UserID:     p.cache.UserID(),
		Properties: props,
		Timestamp:  timestamp,
	}
	device := p.cache.Device()

	p.sendEvent(event, device)

	if p.delegate != nil {
		p.delegate.HandleEvent(event, device, fromBridge)
	}
}

// sendEvent attempts the single-event send, queueing on server rejection
// and draining the retry queues on success.
func (p *Pipeline) sendEvent(event model.Event, device model.Device) {
	req := model.IngestEventRequest{
		ID:         event.ID,
		Name:       event.Name,
		UserID:     event.UserID,
		Device:     device.MakeRequest(false),
		Properties: event.Properties,
		Timestamp:  event.Timestamp,
	}

	err := p.sender.IngestEvent(req)
	switch {
	case err == nil:
		slog.Debug("event sent", "event", event.Name)
		p.sendFailedIfNeeded()
	case api.IsRetryable(err):
		slog.Warn("event rejected, queueing for retry", "event", event.Name, "error", err)
		p.failedEvents.Push(req)
	default:
		slog.Warn("event send failed, not retryable", "event", event.Name, "error", err)
	}
}

func (p *Pipeline) identifyTask(userID string, rawProps map[string]any) {
	props, err := value.ObjectFromAny(rawProps)
	if err != nil {
		slog.Warn("identify: dropping unsupported properties", "error", err)
		props = nil
	}

	changed := p.cache.UserID() != userID
	p.cache.SetUserID(userID)

	device := p.cache.Device().MakeRequest(false)
	req := model.UpdateProfileRequest{
		UserID:     userID,
		Properties: props,
		Device:     &device,
		Timestamp:  p.clock.Now(),
	}

	sendErr := p.sender.UpdateProfile(req)
	switch {
	case sendErr == nil:
		slog.Debug("profile updated", "user_id", userID)
		p.sendFailedIfNeeded()
	case api.IsRetryable(sendErr):
		slog.Warn("profile rejected, queueing for retry", "error", sendErr)
		p.failedProfiles.Push(req)
	default:
		slog.Warn("profile update failed, not retryable", "error", sendErr)
	}

	if changed && p.delegate != nil {
		p.delegate.HandleUserIDChanged()
	}
}

func (p *Pipeline) flushUserTask() {
	hadUser := p.cache.UserID() != ""

	p.cache.ClearUserID()
	p.cache.MarkRemoveUserID()
	p.updateDeviceTask()

	if hadUser && p.delegate != nil {
		p.delegate.HandleUserIDChanged()
	}
}

// updateDeviceTask sends the snapshot only when it differs from the last
// successfully sent payload.
func (p *Pipeline) updateDeviceTask() {
	req := p.cache.Device().MakeRequest(p.cache.ConsumeRemoveUserID())

	payload, err := json.Marshal(req)
	if err != nil {
		slog.Error("device update: encode failed", "error", err)
		return
	}

	last, ok, err := p.store.Get(kvstore.KeyLastDeviceSent)
	if err != nil {
		slog.Warn("device update: load last payload", "error", err)
	}
	if ok && bytes.Equal(last, payload) {
		slog.Debug("device update: unchanged, skipping")
		return
	}

	if err := p.sender.UpdateDevice(req); err != nil {
		// The payload comparison fails next time too, so the update is
		// naturally retried on the next trigger.
		slog.Warn("device update failed", "error", err)
		return
	}
	if err := p.store.Set(kvstore.KeyLastDeviceSent, payload); err != nil {
		slog.Warn("device update: persist payload", "error", err)
	}
	p.sendFailedIfNeeded()
}

// sendFailedIfNeeded bulk-drains both retry queues, independently. Each
// drain either fully succeeds or restores the exact drained snapshot;
// records queued meanwhile stay in the live queue for the next drain.
func (p *Pipeline) sendFailedIfNeeded() {
	device := p.cache.Device().MakeRequest(false)

	if events := p.failedEvents.DrainAll(); len(events) > 0 {
		err := p.sender.IngestEventsBulk(model.CreateBulkClientEventRequest{
			Device: device,
			Events: events,
		})
		if err != nil {
			slog.Warn("bulk event resend failed, restoring", "count", len(events), "error", err)
			p.failedEvents.Restore(events)
		} else {
			slog.Info("bulk event resend succeeded", "count", len(events))
		}
	}

	if profiles := p.failedProfiles.DrainAll(); len(profiles) > 0 {
		err := p.sender.UpdateProfilesBulk(model.BulkProfileRequest{
			Device:   device,
			Profiles: profiles,
		})
		if err != nil {
			slog.Warn("bulk profile resend failed, restoring", "count", len(profiles), "error", err)
			p.failedProfiles.Restore(profiles)
		} else {
			slog.Info("bulk profile resend succeeded", "count", len(profiles))
		}
	}
}

func withRevenue(properties map[string]any, revenue float64) map[string]any {
	out := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		out[k] = v
	}
	out[model.PropRevenue] = revenue
	return out
}
