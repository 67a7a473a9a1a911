package kvstore

import (
	"encoding/json"
	"fmt"
)

// Store is a durable key -> bytes store.
//
// Get returns (nil, false, nil) for a missing key so callers can
// distinguish absence from an empty value.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Persisted state keys. Keys are namespaced by component so a future
// migration can move one component's state without touching the others.
const (
	KeySessionID      = "cache_session_id"
	KeyLocalDeviceID  = "cache_local_device_id"
	KeyUserID         = "cache_user_id"
	KeyDevice         = "cache_device"
	KeyLastDeviceSent = "cache_last_device_sent"
	KeyLastEventTime  = "event_last_event_time"
	KeyFailedEvents   = "event_failed_events"
	KeyFailedProfiles = "event_failed_profiles"
	KeyCampaigns      = "campaign_cache"
	KeyCampaignFetch  = "campaign_last_fetch"
)

// ImpressionsKey returns the per-campaign impression timestamp key.
func ImpressionsKey(campaignID string) string {
	return "campaign_impressions_" + campaignID
}

// HideUntilKey returns the per-campaign suppression key.
func HideUntilKey(campaignID string) string {
	return "campaign_hide_until_" + campaignID
}

// LoadJSON reads key and unmarshals it into out. Returns false when the key
// is absent; out is left untouched in that case.
func LoadJSON(s Store, key string, out any) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON marshals v and writes it under key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.Set(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
