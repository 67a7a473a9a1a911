package model

import (
	"encoding/json"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/value"
)

// IngestEventRequest is the single-event ingestion body. It doubles as the
// retry record for failed events: the device snapshot is resolved at build
// time, so a replayed record carries the device state from when the event
// was originally tracked.
type IngestEventRequest struct {
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	UserID     string       `json:"user_id,omitempty"`
	Device     DeviceRequest `json:"device"`
	Properties value.Object `json:"properties,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// CreateBulkClientEventRequest is the bulk resend body used by the retry
// drain.
type CreateBulkClientEventRequest struct {
	Device DeviceRequest        `json:"device"`
	Events []IngestEventRequest `json:"events"`
}

// UpdateProfileRequest is the profile update body and the retry record for
// failed profile updates.
type UpdateProfileRequest struct {
	UserID     string         `json:"user_id"`
	Properties value.Object   `json:"properties,omitempty"`
	Device     *DeviceRequest `json:"device,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// BulkProfileRequest is the bulk resend body for failed profile updates.
type BulkProfileRequest struct {
	Device   DeviceRequest          `json:"device"`
	Profiles []UpdateProfileRequest `json:"profiles"`
}

// FetchCampaignRequest filters the campaign fetch.
type FetchCampaignRequest struct {
	ProjectID string         `json:"project_id"`
	UserID    string         `json:"user_id,omitempty"`
	Device    *DeviceRequest `json:"device,omitempty"`
}

// ServerResponse is the envelope wrapping every API response.
// A 2xx status with a decodable envelope is success; Data holds the typed
// payload for endpoints that return one.
type ServerResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FetchCampaignResponse is the campaign fetch payload.
type FetchCampaignResponse struct {
	Checksum  string     `json:"checksum,omitempty"`
	Campaigns []Campaign `json:"campaigns"`
}

// ServerInfoResponse carries the clock offset used for delayed display
// scheduling. The offset is in milliseconds relative to the client clock.
type ServerInfoResponse struct {
	ServerTimeOffset int64 `json:"server_time_offset"`
}
