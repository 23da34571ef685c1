package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/payload"
	"github.com/grovetools/extdev/protocol"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 1 * time.Second
	// sendBuffer bounds the per-client queue; a client that can't keep
	// up is dropped rather than allowed to stall the broadcast.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn *websocket.Conn
	send chan protocol.Message
}

// Broadcaster relays session state to every connected websocket
// client. It is the fan-out half of the live-update protocol: the
// payload store mutates, the broadcaster delivers.
type Broadcaster struct {
	store  *payload.Store
	logger *logrus.Entry

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewBroadcaster wires a broadcaster to the payload store: every
// applied patch is relayed to all clients as an update event.
func NewBroadcaster(store *payload.Store) *Broadcaster {
	b := &Broadcaster{
		store:   store,
		logger:  logging.NewLogger("broadcast"),
		clients: make(map[*wsClient]struct{}),
	}
	store.Subscribe(b.BroadcastUpdate)
	return b
}

// Handle upgrades the request and runs the connection until the client
// goes away. The first frame is always the connected snapshot, so any
// client starts from a consistent baseline regardless of join time.
func (b *Broadcaster) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan protocol.Message, sendBuffer)}

	connected, err := serverMessage(protocol.EventConnected, b.store.ConnectedPayload())
	if err != nil {
		b.logger.WithError(err).Error("failed to encode connected payload")
		conn.Close()
		return
	}

	b.mu.Lock()
	b.clients[client] = struct{}{}
	client.send <- connected
	b.mu.Unlock()

	go b.writePump(client)
	b.readPump(client)
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// BroadcastUpdate relays an applied patch to every client. The patch
// itself goes over the wire, not the recomputed state; clients run the
// same merge the store ran.
func (b *Broadcaster) BroadcastUpdate(patch core.UpdatePatch) {
	msg, err := serverMessage(protocol.EventUpdate, patch)
	if err != nil {
		b.logger.WithError(err).Error("failed to encode update event")
		return
	}
	b.broadcast(msg)
}

// DispatchCommand broadcasts a command envelope to every client. It
// never touches stored state.
func (b *Broadcaster) DispatchCommand(command string, commandPayload interface{}) error {
	msg, err := protocol.NewDispatchMessage(command, commandPayload)
	if err != nil {
		return err
	}
	msg.Version = protocol.ManifestVersion
	b.broadcast(msg)
	return nil
}

// Close disconnects every client with a normal close frame.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	clients := make([]*wsClient, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.Unlock()

	for _, client := range clients {
		_ = client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shut down"),
			time.Now().Add(writeTimeout))
		b.unregister(client)
	}
}

func serverMessage(event protocol.EventType, data interface{}) (protocol.Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Message{Event: event, Version: protocol.ManifestVersion, Data: raw}, nil
}

// broadcast queues a message for every client. Fan-out is not atomic:
// a slow or dead client is dropped without affecting delivery to the
// others, and each client's own stream stays ordered.
func (b *Broadcaster) broadcast(msg protocol.Message) {
	b.mu.Lock()
	var stalled []*wsClient
	for client := range b.clients {
		select {
		case client.send <- msg:
		default:
			stalled = append(stalled, client)
		}
	}
	for _, client := range stalled {
		delete(b.clients, client)
		close(client.send)
		client.conn.Close()
	}
	b.mu.Unlock()

	if len(stalled) > 0 {
		b.logger.WithField("clients", len(stalled)).Debug("dropped stalled websocket clients")
	}
}

func (b *Broadcaster) unregister(client *wsClient) {
	b.mu.Lock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.send)
	}
	b.mu.Unlock()
	client.conn.Close()
}

func (b *Broadcaster) writePump(client *wsClient) {
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.conn.WriteJSON(msg); err != nil {
			// Delivery failure is isolated to this client.
			b.logger.WithError(err).Debug("websocket write failed")
			b.unregister(client)
			return
		}
	}
}

func (b *Broadcaster) readPump(client *wsClient) {
	defer b.unregister(client)

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			// Malformed frames are logged; the connection stays open.
			b.logger.WithError(err).Warn("ignoring malformed websocket frame")
			continue
		}

		switch msg.Event {
		case protocol.EventUpdate:
			b.handleUpdate(msg)
		case protocol.EventDispatch:
			b.handleDispatch(msg)
		default:
			b.logger.WithField("event", msg.Event).Debug("ignoring unknown event")
		}
	}
}

func (b *Broadcaster) handleUpdate(msg protocol.Message) {
	patch, err := msg.UpdatePayload()
	if err != nil {
		b.logger.WithError(err).Warn("ignoring malformed update payload")
		return
	}

	// An update naming a different app is not ours to apply.
	if patch.App != nil && patch.App.APIKey != nil && *patch.App.APIKey != b.store.AppAPIKey() {
		b.logger.Debug("ignoring update for mismatched app api key")
		return
	}

	b.store.ApplyUpdate(patch)
}

func (b *Broadcaster) handleDispatch(msg protocol.Message) {
	envelope, err := msg.DispatchPayload()
	if err != nil {
		b.logger.WithError(err).Warn("ignoring malformed dispatch envelope")
		return
	}

	// Relay verbatim; commands trigger client-side effects only.
	relay := protocol.Message{Event: protocol.EventDispatch, Version: protocol.ManifestVersion, Data: msg.Data}
	b.logger.WithField("type", envelope.Type).Debug("relaying dispatch command")
	b.broadcast(relay)
}
