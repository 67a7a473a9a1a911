package trigger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/clock"
	"github.com/marketap/marketap-sdk-go/internal/model"
)

// serverTimeTTL bounds how often the clock offset is re-fetched.
const serverTimeTTL = 5 * time.Minute

// ServerInfoClient fetches the server clock offset. *api.Client implements
// it.
type ServerInfoClient interface {
	ServerInfo(clientTimeMS int64) (model.ServerInfoResponse, error)
}

// ServerTime provides a server-adjusted view of the current time. The
// offset is cached for serverTimeTTL and concurrent refreshes coalesce
// into one request, with every waiter released by the same result. On
// fetch failure callers get the last known offset, or plain local time
// when none was ever fetched.
type ServerTime struct {
	api   ServerInfoClient
	clock clock.Clock

	mu        sync.Mutex
	offset    time.Duration
	fetchedAt time.Time
	fetching  bool
	waiters   []chan time.Duration
}

// NewServerTime creates a server clock. A nil clk selects the system
// clock.
func NewServerTime(api ServerInfoClient, clk clock.Clock) *ServerTime {
	if clk == nil {
		clk = clock.System()
	}
	return &ServerTime{api: api, clock: clk}
}

// Now returns the current instant adjusted by the server clock offset,
// fetching the offset first when the cached one has expired. Blocks for at
// most one network round trip.
func (s *ServerTime) Now() time.Time {
	return s.clock.Now().Add(s.currentOffset())
}

func (s *ServerTime) currentOffset() time.Duration {
	s.mu.Lock()

	if !s.fetchedAt.IsZero() && s.clock.Now().Sub(s.fetchedAt) < serverTimeTTL {
		offset := s.offset
		s.mu.Unlock()
		return offset
	}

	if s.fetching {
		ch := make(chan time.Duration, 1)
		s.waiters = append(s.waiters, ch)
		s.mu.Unlock()
		return <-ch
	}
	s.fetching = true
	s.mu.Unlock()

	start := s.clock.Now()
	resp, err := s.api.ServerInfo(start.UnixMilli())
	rtt := s.clock.Now().Sub(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = false

	if err != nil {
		// Last known offset, or zero; either way every waiter gets the
		// same answer.
		slog.Warn("server time fetch failed, using fallback", "error", err)
	} else {
		// The reported offset includes the request's travel time; half
		// the round trip approximates the one-way correction.
		s.offset = time.Duration(resp.ServerTimeOffset)*time.Millisecond - rtt/2
		s.fetchedAt = s.clock.Now()
	}

	for _, ch := range s.waiters {
		ch <- s.offset
	}
	s.waiters = nil
	return s.offset
}
