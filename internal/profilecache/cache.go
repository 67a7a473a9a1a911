// Package profilecache holds the current identity, device snapshot, and
// session state, each guarded by its own lock and written through to the
// persistent store.
//
// The locking discipline is per-field exclusive access: readers of one
// field run concurrently with each other and with users of other fields;
// a writer serializes against both for its field only. Every read-modify-
// write of persisted state happens inside the owning lock.
package profilecache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
)

// DeviceInfoProvider is the external platform collaborator that collects
// device attributes (battery, locale, network type, identifiers). The core
// never collects these itself.
type DeviceInfoProvider interface {
	DeviceInfo() model.Device
}

// Cache is the per-field-locked state holder.
type Cache struct {
	store    kvstore.Store
	provider DeviceInfoProvider

	userMu sync.RWMutex
	userID string
	// userLoaded distinguishes "never read" from "read and absent"
	userLoaded bool

	deviceMu     sync.RWMutex
	device       *model.Device
	pushToken    string
	removeUserID bool

	sessionMu sync.RWMutex
	sessionID string
	localID   string
}

// New creates a cache over store, refreshing device attributes through
// provider.
func New(store kvstore.Store, provider DeviceInfoProvider) *Cache {
	return &Cache{store: store, provider: provider}
}

// UserID returns the cached user id, loading it from the store on first
// access. Empty string means anonymous.
func (c *Cache) UserID() string {
	c.userMu.RLock()
	if c.userLoaded {
		id := c.userID
		c.userMu.RUnlock()
		return id
	}
	c.userMu.RUnlock()

	c.userMu.Lock()
	defer c.userMu.Unlock()
	if !c.userLoaded {
		var id string
		if _, err := kvstore.LoadJSON(c.store, kvstore.KeyUserID, &id); err != nil {
			slog.Warn("profile cache: load user id", "error", err)
		}
		c.userID = id
		c.userLoaded = true
	}
	return c.userID
}

// SetUserID persists the new id and caches it.
func (c *Cache) SetUserID(id string) {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	c.userID = id
	c.userLoaded = true
	if err := kvstore.SaveJSON(c.store, kvstore.KeyUserID, id); err != nil {
		slog.Warn("profile cache: save user id", "error", err)
	}
}

// ClearUserID removes the cached identity.
func (c *Cache) ClearUserID() {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	c.userID = ""
	c.userLoaded = true
	if err := c.store.Delete(kvstore.KeyUserID); err != nil {
		slog.Warn("profile cache: clear user id", "error", err)
	}
}

// LocalDeviceID returns the stable per-install id, generating and
// persisting one on first run.
func (c *Cache) LocalDeviceID() string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.localID != "" {
		return c.localID
	}
	var id string
	ok, err := kvstore.LoadJSON(c.store, kvstore.KeyLocalDeviceID, &id)
	if err != nil {
		slog.Warn("profile cache: load local device id", "error", err)
	}
	if !ok || id == "" {
		id = uuid.NewString()
		if err := kvstore.SaveJSON(c.store, kvstore.KeyLocalDeviceID, id); err != nil {
			slog.Warn("profile cache: save local device id", "error", err)
		}
	}
	c.localID = id
	return id
}

// Device returns the current snapshot, loading the persisted one or asking
// the provider when nothing is cached. SessionID, push token, and the
// local id are stamped on the way out.
func (c *Cache) Device() model.Device {
	c.deviceMu.RLock()
	cached := c.device
	token := c.pushToken
	c.deviceMu.RUnlock()

	if cached == nil {
		c.deviceMu.Lock()
		if c.device == nil {
			var persisted model.Device
			ok, err := kvstore.LoadJSON(c.store, kvstore.KeyDevice, &persisted)
			if err != nil {
				slog.Warn("profile cache: load device", "error", err)
			}
			if !ok {
				persisted = c.provider.DeviceInfo()
				if err := kvstore.SaveJSON(c.store, kvstore.KeyDevice, persisted); err != nil {
					slog.Warn("profile cache: save device", "error", err)
				}
			}
			c.device = &persisted
		}
		cached = c.device
		token = c.pushToken
		c.deviceMu.Unlock()
	}

	dev := *cached
	dev.LocalID = c.LocalDeviceID()
	dev.SessionID = c.SessionID()
	if token != "" {
		dev.Token = token
	}
	return dev
}

// RefreshDevice re-queries the provider and persists the fresh snapshot.
func (c *Cache) RefreshDevice() model.Device {
	fresh := c.provider.DeviceInfo()

	c.deviceMu.Lock()
	c.device = &fresh
	if err := kvstore.SaveJSON(c.store, kvstore.KeyDevice, fresh); err != nil {
		slog.Warn("profile cache: save device", "error", err)
	}
	c.deviceMu.Unlock()

	return c.Device()
}

// SetPushToken stores the push token for inclusion in future snapshots.
// Receipt plumbing is external; the core only carries the token.
func (c *Cache) SetPushToken(token string) {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	c.pushToken = token
}

// MarkRemoveUserID flags the next device update to unlink the user.
func (c *Cache) MarkRemoveUserID() {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	c.removeUserID = true
}

// ConsumeRemoveUserID returns and clears the unlink flag.
func (c *Cache) ConsumeRemoveUserID() bool {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	flag := c.removeUserID
	c.removeUserID = false
	return flag
}

// SessionID returns the current session id, loading the persisted one on
// first access. Empty means no session has started yet.
func (c *Cache) SessionID() string {
	c.sessionMu.RLock()
	if c.sessionID != "" {
		id := c.sessionID
		c.sessionMu.RUnlock()
		return id
	}
	c.sessionMu.RUnlock()

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sessionID == "" {
		var id string
		if _, err := kvstore.LoadJSON(c.store, kvstore.KeySessionID, &id); err != nil {
			slog.Warn("profile cache: load session id", "error", err)
		}
		c.sessionID = id
	}
	return c.sessionID
}

// SetSessionID persists the renewed session id.
func (c *Cache) SetSessionID(id string) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.sessionID = id
	if err := kvstore.SaveJSON(c.store, kvstore.KeySessionID, id); err != nil {
		slog.Warn("profile cache: save session id", "error", err)
	}
}

// LastEventTime reads the session-gap clock. ok is false when no event has
// ever been tracked.
func (c *Cache) LastEventTime() (time.Time, bool) {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	var ms int64
	ok, err := kvstore.LoadJSON(c.store, kvstore.KeyLastEventTime, &ms)
	if err != nil {
		slog.Warn("profile cache: load last event time", "error", err)
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// SetLastEventTime records the timestamp used by the current track call.
// Deliberately the call's timestamp, not wall-clock now: back-dated events
// shift session math at call granularity.
func (c *Cache) SetLastEventTime(t time.Time) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if err := kvstore.SaveJSON(c.store, kvstore.KeyLastEventTime, t.UnixMilli()); err != nil {
		slog.Warn("profile cache: save last event time", "error", err)
	}
}
