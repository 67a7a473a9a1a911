package harness

import (
	"fmt"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/api"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
	"github.com/marketap/marketap-sdk-go/internal/pipeline"
	"github.com/marketap/marketap-sdk-go/internal/profilecache"
	"github.com/marketap/marketap-sdk-go/internal/testutil"
	"github.com/marketap/marketap-sdk-go/internal/value"
)

// baseTime is the frozen scenario start instant.
var baseTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// localDeviceID is pre-seeded so the per-install id is stable across runs.
const localDeviceID = "local-device-fixed"

// Entry is one outbound request as seen by the recording sender. A digest,
// not the raw body: enough to pin ordering, identity, session attribution,
// and retry behavior without coupling goldens to every wire field.
type Entry struct {
	Endpoint     string   `json:"endpoint"`
	Outcome      string   `json:"outcome"`
	Name         string   `json:"name,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	Events       []string `json:"events,omitempty"`
	Profiles     []string `json:"profiles,omitempty"`
	PushToken    string   `json:"push_token,omitempty"`
	RemoveUserID bool     `json:"remove_user_id,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	Transcript     []Entry
	FailedEvents   int
	FailedProfiles int
}

// Run executes a scenario against a fresh in-memory pipeline and returns
// the transcript. The worker queue is flushed after every step so clock
// and network changes land between operations, never inside them.
func Run(scenario *Scenario) (*Result, error) {
	store := kvstore.NewMemory()
	if err := kvstore.SaveJSON(store, kvstore.KeyLocalDeviceID, localDeviceID); err != nil {
		return nil, fmt.Errorf("seed local device id: %w", err)
	}

	cache := profilecache.New(store, fixedDevice{})
	clk := testutil.NewFakeClock(baseTime)
	rec := &recorder{mode: ModeOK}

	pipe := pipeline.New(pipeline.Config{
		Sender:     rec,
		Cache:      cache,
		Store:      store,
		Clock:      clk,
		SessionIDs: &sequenceIDs{},
	})
	defer pipe.Close()

	for i, step := range scenario.Steps {
		switch step.Op {
		case OpTrack:
			pipe.Track(step.Event, step.Props, "", time.Time{})
		case OpPageView:
			pipe.TrackPageView(step.Props)
		case OpPurchase:
			pipe.TrackPurchase(step.Revenue, step.Props)
		case OpIdentify:
			pipe.Identify(step.UserID, step.Props)
		case OpLogin:
			pipe.Login(step.UserID, step.Props, nil)
		case OpLogout:
			pipe.Logout(step.Props)
		case OpFlushUser:
			pipe.FlushUser()
		case OpSetPushToken:
			pipe.SetPushToken(step.Token)
		case OpUpdateDevice:
			pipe.UpdateDevice()
		case OpAdvance:
			clk.Advance(time.Duration(step.Minutes) * time.Minute)
		case OpNetwork:
			rec.setMode(step.Mode)
		default:
			return nil, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		pipe.Flush()
	}

	return &Result{
		Transcript:     rec.transcript(),
		FailedEvents:   pipe.FailedEventCount(),
		FailedProfiles: pipe.FailedProfileCount(),
	}, nil
}

// fixedDevice supplies an unchanging snapshot so device payloads are
// byte-stable across runs.
type fixedDevice struct{}

func (fixedDevice) DeviceInfo() model.Device {
	return model.Device{
		Platform:  "ios",
		OS:        "iOS",
		OSVersion: "17.0",
		Model:     "iPhone15,2",
		Timezone:  "UTC",
		Locale:    "en_US",
	}
}

// sequenceIDs hands out session-1, session-2, ...
type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("session-%d", g.n)
}

// recorder implements pipeline.Sender, logging a digest of every call and
// failing according to the current network mode.
type recorder struct {
	mu      sync.Mutex
	mode    string
	entries []Entry
}

func (r *recorder) setMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

func (r *recorder) transcript() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// record appends the entry stamped with the mode's outcome and returns the
// error the real client would surface for that mode.
func (r *recorder) record(entry Entry, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.mode {
	case ModeReject:
		entry.Outcome = "rejected"
		r.entries = append(r.entries, entry)
		return &api.Error{Kind: api.KindServerRejected, Path: path, Status: 500}
	case ModeDown:
		entry.Outcome = "unreachable"
		r.entries = append(r.entries, entry)
		return &api.Error{Kind: api.KindTransport, Path: path, Err: fmt.Errorf("connection refused")}
	default:
		entry.Outcome = "ok"
		r.entries = append(r.entries, entry)
		return nil
	}
}

func sessionOf(props value.Object) string {
	if s, ok := props[model.PropSessionID].(value.String); ok {
		return string(s)
	}
	return ""
}

func (r *recorder) IngestEvent(req model.IngestEventRequest) error {
	return r.record(Entry{
		Endpoint:  "event",
		Name:      req.Name,
		UserID:    req.UserID,
		SessionID: sessionOf(req.Properties),
		Timestamp: req.Timestamp.UTC().Format(time.RFC3339),
	}, "/v1/client/events")
}

func (r *recorder) IngestEventsBulk(req model.CreateBulkClientEventRequest) error {
	names := make([]string, len(req.Events))
	for i, e := range req.Events {
		names[i] = e.Name
	}
	return r.record(Entry{Endpoint: "event_bulk", Events: names}, "/v1/client/events/bulk")
}

func (r *recorder) UpdateProfile(req model.UpdateProfileRequest) error {
	return r.record(Entry{
		Endpoint:  "profile",
		UserID:    req.UserID,
		Timestamp: req.Timestamp.UTC().Format(time.RFC3339),
	}, "/v1/client/profile/user")
}

func (r *recorder) UpdateProfilesBulk(req model.BulkProfileRequest) error {
	users := make([]string, len(req.Profiles))
	for i, p := range req.Profiles {
		users[i] = p.UserID
	}
	return r.record(Entry{Endpoint: "profile_bulk", Profiles: users}, "/v1/client/profile/user/bulk")
}

func (r *recorder) UpdateDevice(req model.DeviceRequest) error {
	return r.record(Entry{
		Endpoint:     "device",
		PushToken:    req.Token,
		RemoveUserID: req.RemoveUserID,
	}, "/v1/client/profile/device")
}
