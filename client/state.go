package client

import (
	"encoding/json"
	"sync"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/protocol"
	"github.com/sirupsen/logrus"
)

// ConsoleState mirrors the server's session state on the client side.
// A connected snapshot replaces everything; update patches run the
// same per-field merge the server runs, so both sides converge on
// identical state from identical inputs.
type ConsoleState struct {
	client *Client
	logger *logrus.Entry

	mu    sync.RWMutex
	state *core.ConsoleState

	unsubscribe []func()
}

// NewConsoleState attaches a reducer to a client. It starts tracking
// immediately; Close detaches it.
func NewConsoleState(client *Client) *ConsoleState {
	c := &ConsoleState{
		client: client,
		logger: logging.NewLogger("console-state"),
		state:  core.NewConsoleState(),
	}

	c.unsubscribe = append(c.unsubscribe,
		client.On(string(protocol.EventConnected), c.onConnected),
		client.On(string(protocol.EventUpdate), c.onUpdate),
	)
	return c
}

// Close detaches the reducer from its client. The accumulated state
// stays readable.
func (c *ConsoleState) Close() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
}

// Snapshot returns a deep copy of the tracked state.
func (c *ConsoleState) Snapshot() core.ConsoleState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return core.ConsoleState{
		App:        c.state.App.Clone(),
		Store:      c.state.Store,
		Extensions: core.CloneExtensions(c.state.Extensions),
	}
}

// FindExtension looks an extension up by uuid in the tracked state.
func (c *ConsoleState) FindExtension(uuid string) (core.Extension, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ext := c.state.FindExtension(uuid)
	if ext == nil {
		return core.Extension{}, false
	}
	return ext.Clone(), true
}

// Update persists a patch to the server. Local state is not touched
// here; the server echoes the patch back and the reducer applies it,
// so every client sees mutations in the same order.
func (c *ConsoleState) Update(patch core.UpdatePatch) {
	c.client.Persist(string(protocol.EventUpdate), patch)
}

// Dispatch sends a command envelope through the client.
func (c *ConsoleState) Dispatch(command string, payload interface{}) {
	c.client.Emit(command, payload)
}

func (c *ConsoleState) onConnected(data json.RawMessage) {
	var snapshot protocol.ConnectedPayload
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.WithError(err).Warn("ignoring malformed connected payload")
		return
	}

	c.mu.Lock()
	c.state.Replace(snapshot.App, snapshot.Store, snapshot.Extensions)
	c.mu.Unlock()
}

func (c *ConsoleState) onUpdate(data json.RawMessage) {
	var patch core.UpdatePatch
	if err := json.Unmarshal(data, &patch); err != nil {
		c.logger.WithError(err).Warn("ignoring malformed update payload")
		return
	}

	c.mu.Lock()
	dropped := c.state.ApplyPatch(patch)
	c.mu.Unlock()

	for _, uuid := range dropped {
		c.logger.WithField("uuid", uuid).Debug("dropped update for unknown extension")
	}
}
