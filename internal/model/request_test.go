package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketap/marketap-sdk-go/internal/value"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func fixtureDevice() DeviceRequest {
	return Device{
		Platform:       "ios",
		LocalID:        "local-1",
		OS:             "iOS 17.2",
		OSVersion:      "17.2",
		Model:          "iPhone15,2",
		Manufacturer:   "Apple",
		Brand:          "Apple",
		AppVersion:     "2.4.0",
		Timezone:       "Asia/Seoul",
		Locale:         "ko_KR",
		SessionID:      "sess-1",
	}.MakeRequest(false)
}

// TestIngestEventRequest_WireFormat pins the single-event ingestion body.
func TestIngestEventRequest_WireFormat(t *testing.T) {
	req := IngestEventRequest{
		ID:     "evt-1",
		Name:   EventPurchase,
		UserID: "user-1",
		Device: fixtureDevice(),
		Properties: value.Object{
			PropRevenue:   value.Float(9.99),
			PropSessionID: value.String("sess-1"),
		},
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)
	golden(t).Assert(t, "ingest_event_request", data)
}

// TestBulkEventRequest_WireFormat pins the bulk drain body.
func TestBulkEventRequest_WireFormat(t *testing.T) {
	req := CreateBulkClientEventRequest{
		Device: fixtureDevice(),
		Events: []IngestEventRequest{
			{
				Name:      EventPageView,
				Device:    fixtureDevice(),
				Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}

	data, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)
	golden(t).Assert(t, "bulk_event_request", data)
}

// TestUpdateProfileRequest_WireFormat pins the profile update body.
func TestUpdateProfileRequest_WireFormat(t *testing.T) {
	dev := fixtureDevice()
	req := UpdateProfileRequest{
		UserID: "user-1",
		Properties: value.Object{
			"plan": value.String("pro"),
		},
		Device:    &dev,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)
	golden(t).Assert(t, "update_profile_request", data)
}

// TestCampaign_DecodeFetchResponse decodes a realistic campaign payload.
func TestCampaign_DecodeFetchResponse(t *testing.T) {
	body := []byte(`{
		"checksum": "abc123",
		"campaigns": [{
			"id": "cmp-1",
			"layout": {"layout_type": "MODAL", "layout_sub_type": "CENTER", "orientations": ["PORTRAIT"]},
			"trigger_condition": {
				"event_filter": {"event_name": "mkt_purchase"},
				"property_conditions": [[{
					"property_name": "mkt_revenue",
					"data_type": "DOUBLE",
					"path": "EVENT",
					"operator": "GREATER_THAN",
					"target_values": [5]
				}]],
				"frequency_cap": {"limit": 2, "duration_minutes": 60},
				"delay_minutes": 1
			},
			"html": "<html></html>",
			"updated_at": "2025-03-01T00:00:00Z"
		}]
	}`)

	var resp FetchCampaignResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Campaigns, 1)

	c := resp.Campaigns[0]
	assert.Equal(t, "cmp-1", c.ID)
	assert.Equal(t, "MODAL", c.Layout.LayoutType)
	assert.Equal(t, EventPurchase, c.TriggerCondition.EventFilter.EventName)
	require.Len(t, c.TriggerCondition.PropertyConditions, 1)

	pc := c.TriggerCondition.PropertyConditions[0][0]
	assert.Equal(t, OpGreaterThan, pc.Operator)
	assert.Equal(t, TypeDouble, pc.DataType)
	assert.Equal(t, PathEvent, pc.Path)
	require.Len(t, pc.TargetValues, 1)
	assert.Equal(t, value.Int(5), pc.TargetValues[0])

	require.NotNil(t, c.TriggerCondition.FrequencyCap)
	assert.Equal(t, 2, c.TriggerCondition.FrequencyCap.Limit)
	assert.Equal(t, 1, c.TriggerCondition.DelayMinutes)
}

// TestOperator_IsNegative pins the negative operator family.
func TestOperator_IsNegative(t *testing.T) {
	negative := []Operator{
		OpNotEqual, OpNotIn, OpNotBetween, OpNotLike,
		OpArrayNotLike, OpIsNotNull, OpNotContains, OpNone,
	}
	for _, op := range negative {
		assert.True(t, op.IsNegative(), "%s should be negative", op)
	}

	positive := []Operator{OpEqual, OpIn, OpBetween, OpLike, OpContains, OpAny, OpIsNull}
	for _, op := range positive {
		assert.False(t, op.IsNegative(), "%s should be positive", op)
	}
}

// TestServerResponse_Envelope decodes the standard envelope.
func TestServerResponse_Envelope(t *testing.T) {
	var env ServerResponse
	require.NoError(t, json.Unmarshal([]byte(`{"code":0,"message":"ok","data":{"server_time_offset":-120}}`), &env))

	var info ServerInfoResponse
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, int64(-120), info.ServerTimeOffset)
}
