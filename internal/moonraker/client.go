package moonraker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"helixprint/internal/logging"
	"helixprint/internal/services"
)

const (
	clientName   = "helixprint"
	pingInterval = 30 * time.Second
	pongWait     = 75 * time.Second
	writeWait    = 10 * time.Second
)

// EventKind distinguishes connection changes from server notifications.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventNotification
)

// Event is delivered to the handler in arrival order.
type Event struct {
	Kind   EventKind
	Method string
	Params json.RawMessage
	Err    error
}

// Options configures a Client.
type Options struct {
	URL            string
	APIKey         string
	Version        string
	RequestTimeout time.Duration
	ReconnectDelay time.Duration
	Handler        func(Event)
	Logger         *slog.Logger
	Dialer         *websocket.Dialer
}

// Client is a reconnecting Moonraker websocket client.
type Client struct {
	opts   Options
	logger *slog.Logger
	nextID atomic.Uint64
	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan rpcMessage

	writeMu sync.Mutex
}

// New builds a client; call Run to connect.
func New(opts Options) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "moonraker"),
		events:  make(chan Event, 64),
		pending: make(map[uint64]chan rpcMessage),
	}
}

// Connected reports whether a websocket session is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run connects and reconnects until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		c.dispatch(ctx)
	}()
	defer func() { <-dispatchDone }()

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logging.WarnWithContext(c.logger, "moonraker connection lost", "host_disconnected",
			logging.Error(err),
			logging.String("url", c.opts.URL),
			logging.Duration("retry_in", c.opts.ReconnectDelay),
			logging.String(logging.FieldImpact, "prints cannot start until the connection returns"),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

func (c *Client) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			if c.opts.Handler != nil {
				c.opts.Handler(ev)
			}
		}
	}
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Client) session(ctx context.Context) error {
	header := http.Header{}
	if c.opts.APIKey != "" {
		header.Set("X-Api-Key", c.opts.APIKey)
	}
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("moonraker connected", logging.String("url", c.opts.URL))

	stop := make(chan struct{})
	go c.keepalive(conn, stop)

	c.emit(ctx, Event{Kind: EventConnected})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	readErr := c.readLoop(ctx, conn)
	close(stop)

	c.mu.Lock()
	c.conn = nil
	pending := c.pending
	c.pending = make(map[uint64]chan rpcMessage)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
	_ = conn.Close()

	c.emit(ctx, Event{Kind: EventDisconnected, Err: readErr})
	return readErr
}

func (c *Client) keepalive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg rpcMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("discarding malformed message", logging.Error(err))
			continue
		}
		if msg.Method != "" {
			// Notifications are never dropped.
			select {
			case c.events <- Event{Kind: EventNotification, Method: msg.Method, Params: msg.Params}:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if msg.ID == nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[*msg.ID]
		delete(c.pending, *msg.ID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

// Call sends one JSON-RPC request and waits for its result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, services.Wrap(services.ErrHostUnavailable, "moonraker", method, "not connected", nil)
	}
	id := c.nextID.Add(1)
	ch := make(chan rpcMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	c.writeMu.Unlock()
	if err != nil {
		forget()
		return nil, services.Wrap(services.ErrHostCommunication, "moonraker", method, "write request", err)
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, services.Wrap(services.ErrHostCommunication, "moonraker", method, "connection closed", nil)
		}
		if msg.Error != nil {
			return nil, services.Wrap(services.ErrHostCommunication, "moonraker", method, "", msg.Error)
		}
		return msg.Result, nil
	case <-timer.C:
		forget()
		return nil, services.Wrap(services.ErrHostCommunication, "moonraker", method, "request timed out", context.DeadlineExceeded)
	case <-ctx.Done():
		forget()
		return nil, services.Wrap(services.ErrHostCommunication, "moonraker", method, "", ctx.Err())
	}
}

// Identify registers this client with Moonraker.
func (c *Client) Identify(ctx context.Context) error {
	_, err := c.Call(ctx, "server.connection.identify", map[string]any{
		"client_name": clientName,
		"version":     c.opts.Version,
		"type":        "agent",
		"url":         "https://github.com/prestonbrown/helixscreen",
	})
	return err
}

// ServerInfo is the subset of server.info the daemon reads.
type ServerInfo struct {
	KlippyConnected bool   `json:"klippy_connected"`
	KlippyState     string `json:"klippy_state"`
	MoonrakerVer    string `json:"moonraker_version"`
}

// ServerInfo returns Moonraker's view of Klippy.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	raw, err := c.Call(ctx, "server.info", nil)
	if err != nil {
		return ServerInfo{}, err
	}
	var info ServerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return ServerInfo{}, services.Wrap(services.ErrHostCommunication, "moonraker", "server.info", "decode", err)
	}
	return info, nil
}

// SubscribePrintStats subscribes to print_stats and returns its current state.
func (c *Client) SubscribePrintStats(ctx context.Context) (PrintStats, error) {
	raw, err := c.Call(ctx, "printer.objects.subscribe", map[string]any{
		"objects": map[string]any{"print_stats": []string{"state", "filename"}},
	})
	if err != nil {
		return PrintStats{}, err
	}
	var result struct {
		Status struct {
			PrintStats PrintStats `json:"print_stats"`
		} `json:"status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return PrintStats{}, services.Wrap(services.ErrHostCommunication, "moonraker", "printer.objects.subscribe", "decode", err)
	}
	return result.Status.PrintStats, nil
}

// SendCommand runs a gcode script on the printer.
func (c *Client) SendCommand(ctx context.Context, script string) error {
	_, err := c.Call(ctx, "printer.gcode.script", map[string]any{"script": script})
	return err
}

// QueryVariable reads "<macro>.<variable>" from a gcode_macro object.
func (c *Client) QueryVariable(ctx context.Context, name string) (any, error) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return nil, services.Wrap(services.ErrValidation, "moonraker", "query variable", "expected <macro>.<variable>, got "+name, nil)
	}
	object := "gcode_macro " + name[:idx]
	variable := strings.ToLower(name[idx+1:])

	raw, err := c.Call(ctx, "printer.objects.query", map[string]any{
		"objects": map[string]any{object: []string{variable}},
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Status map[string]map[string]any `json:"status"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, services.Wrap(services.ErrHostCommunication, "moonraker", "printer.objects.query", "decode", err)
	}
	value, ok := result.Status[object][variable]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "moonraker", "query variable", name, nil)
	}
	return value, nil
}

// IsUnavailable reports whether err means no session was open.
func IsUnavailable(err error) bool {
	return errors.Is(err, services.ErrHostUnavailable)
}
