package model

import (
	"time"

	"github.com/marketap/marketap-sdk-go/internal/value"
)

// Canonical event names. Server-side campaign taxonomies reference these
// exact strings; do not rename.
const (
	EventLogin         = "mkt_login"
	EventLogout        = "mkt_logout"
	EventPageView      = "mkt_page_view"
	EventPurchase      = "mkt_purchase"
	EventSignup        = "mkt_signup"
	EventSessionStart  = "mkt_session_start"
	EventSessionEnd    = "mkt_session_end"
	EventSearch        = "mkt_search"
	EventProductView   = "mkt_product_view"
	EventAddToCart     = "mkt_add_to_cart"
	EventAddToWishlist = "mkt_add_to_wishlist"
	EventBeginCheckout = "mkt_begin_checkout"
	EventCartView      = "mkt_cart_view"
)

// Reserved property keys injected by the pipeline.
const (
	PropSessionID = "mkt_session_id"
	PropRevenue   = "mkt_revenue"
	PropItems     = "mkt_items"
)

// Event is an immutable behavioral event as accepted by Track.
//
// ID is optional and deduplicates server-side. Timestamp is fixed before the
// event is queued or sent; it defaults to the send time when the caller
// passes none.
type Event struct {
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	UserID     string       `json:"user_id,omitempty"`
	Properties value.Object `json:"properties,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Profile is a user profile update as accepted by Identify.
type Profile struct {
	UserID     string       `json:"user_id"`
	Properties value.Object `json:"properties,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}
