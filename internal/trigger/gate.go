package trigger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/clock"
	"github.com/marketap/marketap-sdk-go/internal/kvstore"
	"github.com/marketap/marketap-sdk-go/internal/model"
)

// maxImpressionHistory bounds the per-campaign impression log used by
// frequency capping.
const maxImpressionHistory = 100

// Gate is the display-gating state machine: at most one modal at a time,
// per-campaign frequency caps over a sliding window, and per-campaign
// hide-until suppression. Impression timestamps and hide-until marks are
// persisted; the modal lock and the pending slot are process-local.
type Gate struct {
	store kvstore.Store
	clock clock.Clock

	mu           sync.Mutex
	locked       bool
	surfaceReady bool
	pending      *model.Campaign
}

// NewGate creates a display gate. The rendering surface starts not ready;
// accepted campaigns park in the pending slot until SetSurfaceReady.
func NewGate(store kvstore.Store, clk clock.Clock) *Gate {
	if clk == nil {
		clk = clock.System()
	}
	return &Gate{store: store, clock: clk}
}

// CanShow reports whether the campaign may display right now: not hidden,
// not over its frequency cap, and no other modal on screen.
func (g *Gate) CanShow(c model.Campaign) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canShowLocked(c)
}

func (g *Gate) canShowLocked(c model.Campaign) bool {
	now := g.clock.Now()

	var hideUntil int64
	ok, err := kvstore.LoadJSON(g.store, kvstore.HideUntilKey(c.ID), &hideUntil)
	if err != nil {
		slog.Warn("display gate: load hide-until", "campaign", c.ID, "error", err)
	}
	if ok && hideUntil > now.UnixMilli() {
		return false
	}

	if fc := c.TriggerCondition.FrequencyCap; fc != nil {
		window := time.Duration(fc.DurationMinutes) * time.Minute
		if g.impressionsWithin(c.ID, now, window) >= fc.Limit {
			return false
		}
	}

	return !g.locked
}

// TryShow admits the campaign if the gate allows it. An admitted campaign
// immediately counts against its frequency cap and takes the modal lock.
// presentNow is false when the rendering surface is not ready yet; the
// campaign then waits in the pending slot (one slot, first claimant keeps
// it) and is released by SetSurfaceReady.
func (g *Gate) TryShow(c model.Campaign) (admitted, presentNow bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canShowLocked(c) {
		return false, false
	}

	g.recordImpression(c.ID)
	g.locked = true

	if g.surfaceReady {
		return true, true
	}
	if g.pending == nil {
		pc := c
		g.pending = &pc
	}
	return true, false
}

// Hide releases the modal lock. A positive duration additionally persists
// a hide-until mark suppressing the campaign; a zero duration is a plain
// close.
func (g *Gate) Hide(campaignID string, duration time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.locked = false
	if duration <= 0 {
		return
	}
	until := g.clock.Now().Add(duration).UnixMilli()
	if err := kvstore.SaveJSON(g.store, kvstore.HideUntilKey(campaignID), until); err != nil {
		slog.Warn("display gate: persist hide-until", "campaign", campaignID, "error", err)
	}
}

// SetSurfaceReady flips the rendering surface state. On becoming ready it
// returns the parked pending campaign, if any, for the caller to present.
func (g *Gate) SetSurfaceReady(ready bool) *model.Campaign {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.surfaceReady = ready
	if !ready || g.pending == nil {
		return nil
	}
	c := g.pending
	g.pending = nil
	return c
}

func (g *Gate) impressionsWithin(campaignID string, now time.Time, window time.Duration) int {
	var stamps []int64
	if _, err := kvstore.LoadJSON(g.store, kvstore.ImpressionsKey(campaignID), &stamps); err != nil {
		slog.Warn("display gate: load impressions", "campaign", campaignID, "error", err)
		return 0
	}

	cutoff := now.Add(-window).UnixMilli()
	n := 0
	for _, ts := range stamps {
		if ts >= cutoff {
			n++
		}
	}
	return n
}

func (g *Gate) recordImpression(campaignID string) {
	var stamps []int64
	if _, err := kvstore.LoadJSON(g.store, kvstore.ImpressionsKey(campaignID), &stamps); err != nil {
		slog.Warn("display gate: load impressions", "campaign", campaignID, "error", err)
		stamps = nil
	}

	stamps = append(stamps, g.clock.Now().UnixMilli())
	if len(stamps) > maxImpressionHistory {
		stamps = stamps[len(stamps)-maxImpressionHistory:]
	}
	if err := kvstore.SaveJSON(g.store, kvstore.ImpressionsKey(campaignID), stamps); err != nil {
		slog.Warn("display gate: persist impressions", "campaign", campaignID, "error", err)
	}
}
