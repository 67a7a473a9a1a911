// Package api implements the JSON-over-HTTPS client for the ingestion and
// CRM endpoints, including the response envelope contract and the failure
// taxonomy the retry queues depend on.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marketap/marketap-sdk-go/internal/model"
)

// Default production hosts. Overridable for tests and staging.
const (
	DefaultEventBaseURL = "https://event.marketap.io"
	DefaultCRMBaseURL   = "https://crm.marketap.io"
)

const requestTimeout = 10 * time.Second

// Config configures the client.
type Config struct {
	ProjectID    string
	EventBaseURL string // defaults to DefaultEventBaseURL
	CRMBaseURL   string // defaults to DefaultCRMBaseURL
	HTTPClient   *http.Client
}

// Client talks to the two marketap hosts: event ingestion and CRM.
type Client struct {
	projectID string
	eventBase string
	crmBase   string
	http      *http.Client
}

// New creates a Client with defaults applied.
func New(cfg Config) *Client {
	c := &Client{
		projectID: cfg.ProjectID,
		eventBase: cfg.EventBaseURL,
		crmBase:   cfg.CRMBaseURL,
		http:      cfg.HTTPClient,
	}
	if c.eventBase == "" {
		c.eventBase = DefaultEventBaseURL
	}
	if c.crmBase == "" {
		c.crmBase = DefaultCRMBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	return c
}

// IngestEvent sends a single event.
func (c *Client) IngestEvent(req model.IngestEventRequest) error {
	return c.post(c.eventBase, "/v1/client/events", req, nil)
}

// IngestEventsBulk resends previously failed events in one call.
func (c *Client) IngestEventsBulk(req model.CreateBulkClientEventRequest) error {
	return c.post(c.eventBase, "/v1/client/events/bulk", req, nil)
}

// UpdateProfile sends a user profile update.
func (c *Client) UpdateProfile(req model.UpdateProfileRequest) error {
	return c.post(c.crmBase, "/v1/client/profile/user", req, nil)
}

// UpdateProfilesBulk resends previously failed profile updates in one call.
func (c *Client) UpdateProfilesBulk(req model.BulkProfileRequest) error {
	return c.post(c.crmBase, "/v1/client/profile/user/bulk", req, nil)
}

// UpdateDevice sends the device snapshot.
func (c *Client) UpdateDevice(req model.DeviceRequest) error {
	return c.post(c.eventBase, "/v1/client/profile/device", req, nil)
}

// FetchCampaigns retrieves current campaign definitions.
func (c *Client) FetchCampaigns(req model.FetchCampaignRequest) (model.FetchCampaignResponse, error) {
	var out model.FetchCampaignResponse
	if err := c.post(c.crmBase, "/api/v1/campaigns", req, &out); err != nil {
		return model.FetchCampaignResponse{}, err
	}
	return out, nil
}

// ServerInfo fetches the server clock offset. clientTimeMS is the local
// Unix time in milliseconds at call start, echoed for offset computation.
func (c *Client) ServerInfo(clientTimeMS int64) (model.ServerInfoResponse, error) {
	var out model.ServerInfoResponse
	query := url.Values{"client_time": {fmt.Sprint(clientTimeMS)}}
	if err := c.get(c.crmBase, "/api/v1/meta/server-info", query, &out); err != nil {
		return model.ServerInfoResponse{}, err
	}
	return out, nil
}

// post encodes body, sends it, and optionally decodes the envelope data
// into out. out == nil means the caller only cares about the status.
func (c *Client) post(base, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Path: path, Err: err}
	}

	u, err := c.buildURL(base, path, url.Values{"project_id": {c.projectID}})
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Path: path, Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) get(base, path string, query url.Values, out any) error {
	u, err := c.buildURL(base, path, query)
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Path: path, Err: err}
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Path: path, Err: err}
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return &Error{Kind: KindServerRejected, Path: path, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindDecodeFailure, Path: path, Err: err}
	}

	var env model.ServerResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindDecodeFailure, Path: path, Err: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindDecodeFailure, Path: path, Err: err}
	}

	slog.Debug("api response", "path", path, "code", env.Code)
	return nil
}

func (c *Client) buildURL(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(base + path)
	if err != nil {
		return "", err
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
