// Package client is the consumer half of the live-update protocol: a
// typed pub/sub wrapper over one websocket connection, a console state
// reducer applying inbound events, and a REST fallback for callers
// without a socket.
package client

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/protocol"
	"github.com/sirupsen/logrus"
)

// ConnState tracks the connection state machine.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// Options configures a client.
type Options struct {
	// URL is the websocket endpoint, e.g. wss://localhost:8000/extensions.
	URL string
	// DeferConnect suppresses the automatic dial at construction; call
	// Connect explicitly. The zero value connects immediately.
	DeferConnect bool
	// Surface filters inbound extension lists to one surface when set.
	Surface core.Surface
	// ID identifies this client in logs. Generated when empty; inject
	// a fixed id for deterministic tests.
	ID string
}

// Listener receives the raw payload of an event it subscribed to.
type Listener func(data json.RawMessage)

// Client is a typed pub/sub wrapper over one socket connection.
type Client struct {
	options Options
	logger  *logrus.Entry

	mu             sync.Mutex
	conn           *websocket.Conn
	state          ConnState
	listeners      map[string]map[int]Listener
	nextListenerID int
	done           chan struct{}

	apiOnce sync.Once
	api     *APIClient
}

// New builds a client and, unless DeferConnect is set, dials the
// server immediately.
func New(options Options) (*Client, error) {
	if options.ID == "" {
		options.ID = generateClientID()
	}

	c := &Client{
		options:   options,
		logger:    logging.NewLogger("extension-client").WithField("client", options.ID),
		listeners: make(map[string]map[int]Listener),
	}

	if !options.DeferConnect {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func generateClientID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// State returns the connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the server. Calling it while the socket is open or
// connecting is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	url := c.options.URL
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)

	c.mu.Lock()
	if err != nil {
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}
	c.conn = conn
	c.state = StateConnected
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn, done)
	return nil
}

// Close tears the connection down and clears every listener. No
// listener outlives its session.
func (c *Client) Close() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.done != nil {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
		c.done = nil
	}
	c.state = StateDisconnected
	c.listeners = make(map[string]map[int]Listener)
	c.mu.Unlock()
}

// On registers a listener for an event name and returns an
// unsubscriber removing exactly that listener. Multiple listeners per
// event are supported; each registration is independent.
func (c *Client) On(event string, listener Listener) func() {
	c.mu.Lock()
	if c.listeners[event] == nil {
		c.listeners[event] = make(map[int]Listener)
	}
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[event][id] = listener
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners[event], id)
		c.mu.Unlock()
	}
}

// Persist sends a state mutation over the socket as a bare
// {event, data} frame. Only mutation events are allowed; anything else
// is logged and dropped.
func (c *Client) Persist(event string, data interface{}) {
	msg, err := protocol.NewPersistMessage(event, data)
	if err != nil {
		c.logger.WithError(err).Warnf("persist %q refused; use Emit for dispatch events", event)
		return
	}
	c.send(msg)
}

// Emit sends a command wrapped in the dispatch envelope. Mutation
// event names are refused: a misuse is logged and nothing is sent.
func (c *Client) Emit(event string, data interface{}) {
	msg, err := protocol.NewDispatchMessage(event, data)
	if err != nil {
		c.logger.WithError(err).Warnf("emit %q refused; use Persist to mutate server state", event)
		return
	}
	c.send(msg)
}

func (c *Client) send(msg protocol.Message) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.logger.Debug("dropping outbound message; not connected")
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		c.logger.WithError(err).Debug("websocket write failed")
	}
}

// API returns the REST fallback client, constructed lazily with its
// origin derived from the socket url.
func (c *Client) API() *APIClient {
	c.apiOnce.Do(func() {
		c.api = NewAPIClient(HTTPOrigin(c.options.URL), c.options.Surface)
	})
	return c.api
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer c.markDisconnected(conn)

	for {
		select {
		case <-done:
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			c.logger.WithError(err).Warn("ignoring malformed server message")
			continue
		}
		c.dispatchInbound(msg)
	}
}

// markDisconnected records that the connection the read loop was
// serving is gone, so Connect can dial again. Listeners are kept: the
// owner decides reconnection policy, and its subscriptions carry over
// to the next connection. Close replaces the conn first, so a stale
// read loop exiting late never clobbers a newer connection's state.
func (c *Client) markDisconnected(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	conn.Close()
	c.conn = nil
	c.state = StateDisconnected
}

// dispatchInbound fans a server frame out to listeners. Dispatch
// envelopes are unwrapped: listeners subscribe to the logical command
// name, never to the literal "dispatch".
func (c *Client) dispatchInbound(msg protocol.Message) {
	event := string(msg.Event)
	data := msg.Data

	if msg.Event == protocol.EventDispatch {
		envelope, err := msg.DispatchPayload()
		if err != nil {
			c.logger.WithError(err).Warn("ignoring malformed dispatch envelope")
			return
		}
		event = envelope.Type
		data = envelope.Payload
	} else if c.options.Surface != "" && msg.Event == protocol.EventConnected {
		filtered, err := filterConnectedBySurface(data, c.options.Surface)
		if err != nil {
			c.logger.WithError(err).Warn("ignoring malformed connected payload")
			return
		}
		data = filtered
	}

	c.mu.Lock()
	registered := make([]Listener, 0, len(c.listeners[event]))
	for _, listener := range c.listeners[event] {
		registered = append(registered, listener)
	}
	c.mu.Unlock()

	for _, listener := range registered {
		listener(data)
	}
}

// filterConnectedBySurface narrows a connected snapshot to extensions
// matching the client's surface, either directly or via one of their
// extension points. Updates need no filtering: deltas for extensions
// absent from the filtered snapshot are dropped by the reducer.
func filterConnectedBySurface(data json.RawMessage, surface core.Surface) (json.RawMessage, error) {
	var snapshot protocol.ConnectedPayload
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	filtered := snapshot.Extensions[:0]
	for _, ext := range snapshot.Extensions {
		if extensionMatchesSurface(ext, surface) {
			filtered = append(filtered, ext)
		}
	}
	snapshot.Extensions = filtered
	return json.Marshal(snapshot)
}

func extensionMatchesSurface(ext core.Extension, surface core.Surface) bool {
	if ext.Surface == surface {
		return true
	}
	for _, point := range ext.Development.ExtensionPoints {
		if point.Surface == surface {
			return true
		}
	}
	return false
}
