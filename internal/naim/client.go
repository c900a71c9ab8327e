package naim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultPort is the control port Naim streamers listen on.
const DefaultPort = 15081

// Client issues HTTP requests against one device's control API. It is
// stateless per call and performs no retries; retry policy belongs to the
// poller and command callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for one device with the given per-call timeout.
// Uses connection pooling since the poller hits the same host every tick.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if port <= 0 {
		port = DefaultPort
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: timeout}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// BaseURL returns the device base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections releases pooled connections; called on device removal.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// FetchNowPlaying reads the /nowplaying endpoint.
func (c *Client) FetchNowPlaying(ctx context.Context) (*NowPlaying, error) {
	var payload NowPlaying
	if err := c.getJSON(ctx, "/nowplaying", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchPower reads the /power endpoint.
func (c *Client) FetchPower(ctx context.Context) (*PowerStatus, error) {
	var payload PowerStatus
	if err := c.getJSON(ctx, "/power", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchLevels reads the /levels/room endpoint (volume and mute).
func (c *Client) FetchLevels(ctx context.Context) (*RoomLevels, error) {
	var payload RoomLevels
	if err := c.getJSON(ctx, "/levels/room", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchSystem reads the /system endpoint (model and hostname).
func (c *Client) FetchSystem(ctx context.Context) (*SystemInfo, error) {
	var payload SystemInfo
	if err := c.getJSON(ctx, "/system", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchInputs reads the /inputs endpoint and returns its children.
func (c *Client) FetchInputs(ctx context.Context) ([]Input, error) {
	var payload inputsResponse
	if err := c.getJSON(ctx, "/inputs", &payload); err != nil {
		return nil, err
	}
	return payload.Children, nil
}

// SendCommand performs one command round-trip. The Naim API takes commands
// as URL parameters: transport via GET /nowplaying?cmd=, levels and power
// via PUT with query parameters, source selection via GET /inputs/<id>.
func (c *Client) SendCommand(ctx context.Context, cmd Command) error {
	method := http.MethodGet
	var endpoint string

	switch cmd.Kind {
	case CommandPlay:
		endpoint = "/nowplaying?cmd=play"
	case CommandPause:
		endpoint = "/nowplaying?cmd=pause"
	case CommandStop:
		endpoint = "/nowplaying?cmd=stop"
	case CommandNext:
		endpoint = "/nowplaying?cmd=next"
	case CommandPrevious:
		endpoint = "/nowplaying?cmd=prev"
	case CommandSetVolume:
		volume := cmd.Volume
		if volume < 0 {
			volume = 0
		} else if volume > 100 {
			volume = 100
		}
		method = http.MethodPut
		endpoint = fmt.Sprintf("/levels/room?volume=%d", volume)
	case CommandSetMute:
		method = http.MethodPut
		endpoint = "/levels/room?mute=" + boolDigit(cmd.Mute)
	case CommandSetSource:
		source := strings.TrimSpace(cmd.Source)
		if source == "" {
			return &RejectedError{Endpoint: "/inputs", StatusCode: http.StatusBadRequest}
		}
		endpoint = "/inputs/" + url.PathEscape(source) + "?cmd=select"
	case CommandSetPower:
		system := PowerSystemStandby
		if cmd.PowerOn {
			system = PowerSystemOn
		}
		method = http.MethodPut
		endpoint = "/power?system=" + system
	case CommandSetRepeat:
		method = http.MethodPut
		endpoint = "/nowplaying?repeat=" + repeatValue(cmd.Repeat)
	case CommandSetShuffle:
		method = http.MethodPut
		endpoint = "/nowplaying?shuffle=" + boolDigit(cmd.Shuffle)
	default:
		return fmt.Errorf("unknown command kind: %s", cmd.Kind)
	}

	_, err := c.do(ctx, method, endpoint)
	return err
}

func repeatValue(mode string) string {
	switch strings.ToLower(mode) {
	case "one":
		return "1"
	case "all":
		return "2"
	default:
		return "0"
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "naim-hub/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &RejectedError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return body, nil
}

// IsUnreachable reports whether err is network-level, including context
// deadline errors surfaced before a request was issued.
func IsUnreachable(err error) bool {
	var unreachable *UnreachableError
	if errors.As(err, &unreachable) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// IsRejected reports whether the device refused the operation.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}

// IsMalformed reports whether the device answered with an unparseable body.
func IsMalformed(err error) bool {
	var malformed *MalformedResponseError
	return errors.As(err, &malformed)
}
