package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketap/marketap-sdk-go/internal/model"
)

func newTestClient(url string) *Client {
	return New(Config{ProjectID: "proj-1", EventBaseURL: url, CRMBaseURL: url})
}

// TestClient_IngestEvent_Success a 2xx status is success regardless of body.
func TestClient_IngestEvent_Success(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery

		var body model.IngestEventRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mkt_purchase", body.Name)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).IngestEvent(model.IngestEventRequest{
		Name:      model.EventPurchase,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/client/events", gotPath)
	assert.Equal(t, "project_id=proj-1", gotQuery)
}

// TestClient_ServerRejected non-2xx classifies as retryable.
func TestClient_ServerRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).IngestEvent(model.IngestEventRequest{Name: "e"})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, KindServerRejected, KindOf(err))
}

// TestClient_Transport connection failures are not retryable: the server
// never made a decision.
func TestClient_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	err := newTestClient(srv.URL).IngestEvent(model.IngestEventRequest{Name: "e"})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, KindTransport, KindOf(err))
}

// TestClient_DecodeFailure malformed envelope on a success status is a
// local, non-retryable failure.
func TestClient_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchCampaigns(model.FetchCampaignRequest{ProjectID: "proj-1"})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, KindDecodeFailure, KindOf(err))
}

// TestClient_FetchCampaigns decodes campaigns out of the envelope.
func TestClient_FetchCampaigns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/campaigns", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{
				"checksum": "c1",
				"campaigns": []map[string]any{{
					"id":     "cmp-1",
					"layout": map[string]any{"layout_type": "MODAL"},
					"trigger_condition": map[string]any{
						"event_filter": map[string]any{"event_name": "mkt_login"},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).FetchCampaigns(model.FetchCampaignRequest{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.Checksum)
	require.Len(t, resp.Campaigns, 1)
	assert.Equal(t, "cmp-1", resp.Campaigns[0].ID)
}

// TestClient_ServerInfo round-trips the clock offset with the client_time
// query parameter.
func TestClient_ServerInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/meta/server-info", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("client_time"))
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"server_time_offset": 250},
		})
	}))
	defer srv.Close()

	info, err := newTestClient(srv.URL).ServerInfo(12345)
	require.NoError(t, err)
	assert.Equal(t, int64(250), info.ServerTimeOffset)
}

// TestError_Retryable only server rejections queue for retry.
func TestError_Retryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindServerRejected}).Retryable())
	assert.False(t, (&Error{Kind: KindTransport}).Retryable())
	assert.False(t, (&Error{Kind: KindInvalidRequest}).Retryable())
	assert.False(t, (&Error{Kind: KindDecodeFailure}).Retryable())
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(assert.AnError))
}
