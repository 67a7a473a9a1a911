package pipeline

import (
	"log/slog"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// resolveSession returns the session id the event at timestamp belongs to,
// renewing the session when the inactivity gap has elapsed. On renewal a
// synthetic session-start event is sent under the new id before the caller's
// event. The last-event time advances to the event's own timestamp, not the
// wall clock, so backdated events extend the session they land in.
//
// Worker-only; must not be called from caller goroutines.
func (p *Pipeline) resolveSession(timestamp time.Time) string {
	sessionID := p.cache.SessionID()

	last, ok := p.cache.LastEventTime()
	expired := !ok || timestamp.Sub(last) >= SessionGap

	if sessionID == "" || expired {
		sessionID = p.ids.Generate()
		p.cache.SetSessionID(sessionID)
		p.cache.SetLastEventTime(timestamp)
		slog.Debug("session started", "session_id", sessionID)
		p.sendSessionStart(sessionID, timestamp)
		return sessionID
	}

	p.cache.SetLastEventTime(timestamp)
	return sessionID
}

// sendSessionStart emits the synthetic session boundary event. It carries
// only the session id; device context rides along in the request envelope.
func (p *Pipeline) sendSessionStart(sessionID string, timestamp time.Time) {
	event := model.Event{
		Name:   model.EventSessionStart,
		UserID: p.cache.UserID(),
		Properties: value.Object{
			model.PropSessionID: value.String(sessionID),
		},
		Timestamp: timestamp,
	}
	device := p.cache.Device()

	p.sendEvent(event, device)

	if p.delegate != nil {
		p.delegate.HandleEvent(event, device, false)
	}
}
