package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"helixprint/internal/services"
)

// ErrAPIUnavailable reports that no daemon is reachable.
var ErrAPIUnavailable = errors.New("helixprint API unavailable")

// Error is a failure reported by the daemon.
type Error struct {
	Status  int
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return e.Message
}

// Unwrap maps the reason code back to its sentinel.
func (e *Error) Unwrap() error {
	switch e.Reason {
	case "disabled":
		return services.ErrDisabled
	case "not_found":
		return services.ErrNotFound
	case "invalid_path":
		return services.ErrInvalidPath
	case "bad_request":
		return services.ErrValidation
	case "host_communication":
		return services.ErrHostCommunication
	case "host_unavailable":
		return services.ErrHostUnavailable
	case "filesystem":
		return services.ErrFilesystem
	}
	return nil
}

// Client calls a running daemon's HTTP API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// NewClient builds a client for bind, which may be host:port or a URL.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 30 * time.Second},
		token: strings.TrimSpace(token),
	}, nil
}

// Status fetches the engine status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.do(ctx, http.MethodGet, "/server/helix/status", nil, nil, &out)
	return out, err
}

// PrintModified starts a modified print.
func (c *Client) PrintModified(ctx context.Context, req PrintModifiedRequest) (PrintModifiedResult, error) {
	var out PrintModifiedResult
	err := c.do(ctx, http.MethodPost, "/server/helix/print_modified", nil, req, &out)
	return out, err
}

// SetPhaseTracking enables or disables phase tracking.
func (c *Client) SetPhaseTracking(ctx context.Context, enabled bool) (PhaseTracking, error) {
	path := "/server/helix/phase_tracking/disable"
	if enabled {
		path = "/server/helix/phase_tracking/enable"
	}
	var out PhaseTracking
	err := c.do(ctx, http.MethodPost, path, nil, nil, &out)
	return out, err
}

// PhaseTrackingStatus reports whether phase tracking is on.
func (c *Client) PhaseTrackingStatus(ctx context.Context) (PhaseTracking, error) {
	var out PhaseTracking
	err := c.do(ctx, http.MethodGet, "/server/helix/phase_tracking/status", nil, nil, &out)
	return out, err
}

// ActivePrints lists tracked prints.
func (c *Client) ActivePrints(ctx context.Context) ([]ActivePrint, error) {
	var out ActivePrintsResponse
	err := c.do(ctx, http.MethodGet, "/server/helix/active_prints", nil, nil, &out)
	return out.Prints, err
}

// Cleanup cleans up one print, or all when printFilename is empty.
func (c *Client) Cleanup(ctx context.Context, printFilename string) ([]string, error) {
	var out CleanupResponse
	err := c.do(ctx, http.MethodPost, "/server/helix/cleanup", nil, CleanupRequest{PrintFilename: printFilename}, &out)
	return out.Cleaned, err
}

// Instrument asks the daemon to add phase markers to gcode.
func (c *Client) Instrument(ctx context.Context, gcode string) (string, error) {
	var out Gcode
	err := c.do(ctx, http.MethodPost, "/server/helix/instrument", nil, Gcode{Gcode: gcode}, &out)
	return out.Gcode, err
}

// Strip asks the daemon to remove phase markers from gcode.
func (c *Client) Strip(ctx context.Context, gcode string) (string, error) {
	var out Gcode
	err := c.do(ctx, http.MethodPost, "/server/helix/strip", nil, Gcode{Gcode: gcode}, &out)
	return out.Gcode, err
}

// History lists recent jobs.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryJob, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out HistoryResponse
	err := c.do(ctx, http.MethodGet, "/server/helix/history", values, nil, &out)
	return out.Jobs, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &Error{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return &Error{Status: resp.StatusCode, Reason: env.Error.Reason, Message: env.Error.Message}
	}
	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
