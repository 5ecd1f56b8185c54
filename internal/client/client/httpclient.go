package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
	"github.com/dmitrijs2005/panelkeeper/internal/netx"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	maxResponseSize = 4 << 20

	responseError = "error"
)

// HTTPClient talks to the backend over JSON/HTTP.
type HTTPClient struct {
	http *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client using hc, or http.DefaultClient when hc is
// nil. Per-call deadlines come from the caller's context.
func NewHTTPClient(hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{http: hc}
}

type envelope struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

func (c *HTTPClient) Authenticate(ctx context.Context, server string, req models.AuthRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, models.Endpoint{Server: server}, "/token/", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedResponse)
	}
	return &resp, nil
}

func (c *HTTPClient) Panels(ctx context.Context, ep models.Endpoint) ([]models.PanelSummary, error) {
	var panels []models.PanelSummary
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/site/list/", nil, nil, &panels); err != nil {
		return nil, err
	}
	return panels, nil
}

func (c *HTTPClient) Ping(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PingResponse, error) {
	var resp models.PingResponse
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/site/ping", panelQuery(panelID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) SetCode(ctx context.Context, ep models.Endpoint, panelID int64, code string) error {
	body := map[string]any{"panel_id": panelID, "panel_user_code": code}
	return c.do(ctx, http.MethodPost, ep, "/api/texecom-app/site/setcode", nil, body, nil)
}

func (c *HTTPClient) SyncUsers(ctx context.Context, ep models.Endpoint, panelID int64) (*models.SyncStatus, error) {
	var resp models.SyncStatus
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/user/download", panelQuery(panelID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) PanelLogin(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PanelLoginResponse, error) {
	var resp models.PanelLoginResponse
	body := map[string]any{"panel_id": panelID}
	if err := c.do(ctx, http.MethodPost, ep, "/api/texecom-app/site/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Timezones(ctx context.Context, ep models.Endpoint) ([]string, error) {
	var zones []string
	if err := c.do(ctx, http.MethodGet, ep, "/json/timezones.json", nil, nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *HTTPClient) SetTimezone(ctx context.Context, ep models.Endpoint, panelID int64, timezone string) error {
	body := map[string]any{"panel_id": panelID, "panel_timezone": timezone}
	return c.do(ctx, http.MethodPost, ep, "/api/texecom-app/timezone/set", nil, body, nil)
}

func (c *HTTPClient) Timers(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Timer, error) {
	var timers []models.Timer
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/recipes/timers/list", panelQuery(panelID), nil, &timers); err != nil {
		return nil, err
	}
	for i := range timers {
		timers[i].Number = i + 1
	}
	return timers, nil
}

func (c *HTTPClient) Timer(ctx context.Context, ep models.Endpoint, panelID int64, number int) (*models.Timer, error) {
	var timer models.Timer
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/recipes/timers/get", timerQuery(panelID, number), nil, &timer); err != nil {
		return nil, err
	}
	timer.Number = number
	return &timer, nil
}

func (c *HTTPClient) DeleteTimer(ctx context.Context, ep models.Endpoint, panelID int64, number int) error {
	return c.do(ctx, http.MethodGet, ep, "/api/texecom-app/recipes/timers/delete", timerQuery(panelID, number), nil, nil)
}

func (c *HTTPClient) Effects(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Effect, error) {
	var effects []models.Effect
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/recipes/effects", panelQuery(panelID), nil, &effects); err != nil {
		return nil, err
	}
	return effects, nil
}

func (c *HTTPClient) HelpImages(ctx context.Context, ep models.Endpoint, theme string) ([]models.ThemeImage, error) {
	var images []models.ThemeImage
	q := url.Values{"theme": []string{theme}}
	if err := c.do(ctx, http.MethodGet, ep, "/api/texecom-app/help/images", q, nil, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *HTTPClient) Download(ctx context.Context, url string) ([]byte, error) {
	data, err := netx.Download(ctx, c.http, url)
	if err != nil {
		return nil, c.mapError(err)
	}
	return data, nil
}

func panelQuery(panelID int64) url.Values {
	return url.Values{"panel_id": []string{strconv.FormatInt(panelID, 10)}}
}

func timerQuery(panelID int64, number int) url.Values {
	q := panelQuery(panelID)
	q.Set("recipe_timer_number", strconv.Itoa(number))
	return q
}

// do performs one request. A nil out discards the body after the envelope
// check.
func (c *HTTPClient) do(ctx context.Context, method string, ep models.Endpoint, path string, query url.Values, in, out any) error {
	target := strings.TrimRight(ep.Server, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ep.Token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+ep.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return c.mapError(err)
	}

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if env.Response == responseError {
			if env.Message != "" {
				return fmt.Errorf("%w: %s", ErrRejected, env.Message)
			}
			return ErrRejected
		}
	}

	if out == nil {
		return nil
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("%w: status %d", ErrRejected, code)
	}
}

func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
