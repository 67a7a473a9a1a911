package model

// Screen describes the display of the device.
type Screen struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ColorDepth *int    `json:"color_depth,omitempty"`
	PixelRatio float64 `json:"pixel_ratio,omitempty"`
}

// Device is the opaque device snapshot attached to every outgoing request.
//
// The attribute bag is supplied by an external DeviceInfoProvider (platform
// glue); the SDK core only owns SessionID, Token, and the LocalID assigned
// on first run. The snapshot is cached between provider refreshes.
type Device struct {
	Platform       string  `json:"platform"`
	LocalID        string  `json:"app_local_id,omitempty"`
	CookieID       string  `json:"cookie_id,omitempty"`
	IDFA           string  `json:"idfa,omitempty"`
	IDFV           string  `json:"idfv,omitempty"`
	GAID           string  `json:"gaid,omitempty"`
	AppSetID       string  `json:"app_set_id,omitempty"`
	OS             string  `json:"os,omitempty"`
	OSVersion      string  `json:"os_version,omitempty"`
	LibraryVersion string  `json:"library_version,omitempty"`
	Model          string  `json:"model,omitempty"`
	Manufacturer   string  `json:"manufacturer,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Token          string  `json:"token,omitempty"`
	AppVersion     string  `json:"app_version,omitempty"`
	AppBuildNumber string  `json:"app_build_number,omitempty"`
	Timezone       string  `json:"timezone,omitempty"`
	Locale         string  `json:"locale,omitempty"`
	Screen         *Screen `json:"screen,omitempty"`
	CPUArch        string  `json:"cpu_arch,omitempty"`
	MemoryTotal    *int64  `json:"memory_total,omitempty"`
	StorageTotal   *int64  `json:"storage_total,omitempty"`
	BatteryLevel   *int    `json:"battery_level,omitempty"`
	IsCharging     *bool   `json:"is_charging,omitempty"`
	NetworkType    string  `json:"network_type,omitempty"`
	Carrier        string  `json:"carrier,omitempty"`
	HasSIM         *bool   `json:"has_sim,omitempty"`
	MaxTouchPoints *int    `json:"max_touch_points,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
}

// DeviceRequest is the device snapshot as sent on the wire. RemoveUserID is
// set on the update following a logout so the server unlinks the device.
type DeviceRequest struct {
	Device
	RemoveUserID bool `json:"remove_user_id,omitempty"`
}

// MakeRequest builds the wire form of the snapshot.
func (d Device) MakeRequest(removeUserID bool) DeviceRequest {
	return DeviceRequest{Device: d, RemoveUserID: removeUserID}
}
