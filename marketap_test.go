package marketap

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingServer struct {
	mu    sync.Mutex
	paths []string
	srv   *httptest.Server
}

func newRecordingServer() *recordingServer {
	rs := &recordingServer{}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.Path)
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/campaigns":
			fmt.Fprint(w, `{"code":200000,"data":{"checksum":"abc","campaigns":[
				{"id":"c1","layout":{"layout_type":"MODAL"},
				 "trigger_condition":{"event_filter":{"event_name":"wanted_event"}}}
			]}}`)
		case "/api/v1/meta/server-info":
			fmt.Fprint(w, `{"code":200000,"data":{"server_time_offset":0}}`)
		default:
			fmt.Fprint(w, `{"code":200000}`)
		}
	}))
	return rs
}

func (rs *recordingServer) count(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	n := 0
	for _, p := range rs.paths {
		if p == path {
			n++
		}
	}
	return n
}

// TestNewClient_RequiresProjectID
func TestNewClient_RequiresProjectID(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

// TestClient_TrackReachesServer a tracked event produces the session-start
// and event posts on the ingestion host.
func TestClient_TrackReachesServer(t *testing.T) {
	rs := newRecordingServer()
	defer rs.srv.Close()

	client, err := NewClient(Config{
		ProjectID:    "p1",
		EventBaseURL: rs.srv.URL,
		CRMBaseURL:   rs.srv.URL,
	})
	require.NoError(t, err)

	client.Track("signup_viewed", map[string]any{"step": 1})
	client.Close()

	assert.Equal(t, 2, rs.count("/v1/client/events"), "session start plus the event")
	assert.GreaterOrEqual(t, rs.count("/v1/client/profile/device"), 1, "initial device sync")
}

// TestClient_IdentifyAndCampaigns identify posts a profile; the campaign
// list round-trips through the CRM host.
func TestClient_IdentifyAndCampaigns(t *testing.T) {
	rs := newRecordingServer()
	defer rs.srv.Close()

	client, err := NewClient(Config{
		ProjectID:    "p1",
		EventBaseURL: rs.srv.URL,
		CRMBaseURL:   rs.srv.URL,
	})
	require.NoError(t, err)
	defer client.Close()

	client.Identify("user-1", map[string]any{"plan": "pro"})

	campaigns := client.FetchCampaigns(true)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "c1", campaigns[0].ID)

	require.Eventually(t, func() bool {
		return rs.count("/v1/client/profile/user") == 1
	}, 2*time.Second, 10*time.Millisecond)
}
