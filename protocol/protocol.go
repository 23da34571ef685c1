// Package protocol defines the wire vocabulary the dev server and its
// clients exchange over the websocket: JSON text frames of the shape
// {"event": string, "data": ...}.
//
// Events split into two channels. Persist events mutate canonical
// session state on receipt (currently only "update"). Dispatch events
// are command envelopes relayed to every client without touching state.
// The split is enforced at the API boundary: NewPersistMessage and
// NewDispatchMessage refuse an event name on the wrong channel.
package protocol

import (
	"encoding/json"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
)

// EventType names an event on the wire.
type EventType string

const (
	// EventConnected carries a full ConsoleState snapshot; it is the
	// only way a client learns about new extensions.
	EventConnected EventType = "connected"
	// EventUpdate carries an UpdatePatch; the persist channel.
	EventUpdate EventType = "update"
	// EventDispatch is the command envelope {type, payload}.
	EventDispatch EventType = "dispatch"
)

// ManifestVersion is sent alongside every server frame so clients can
// detect incompatible payload shapes.
const ManifestVersion = "3"

// Message is one JSON frame. Data stays raw until the event type
// selects a payload shape.
type Message struct {
	Event   EventType       `json:"event"`
	Version string          `json:"version,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ConnectedPayload is the data of a connected event: the full session
// snapshot a client rebuilds its state from.
type ConnectedPayload struct {
	App        *core.App        `json:"app,omitempty"`
	Store      string           `json:"store"`
	Extensions []core.Extension `json:"extensions"`
}

// DispatchEnvelope is the data of a dispatch event.
type DispatchEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsMutationEvent reports whether the event name belongs to the persist
// channel, i.e. mutates server state on receipt.
func IsMutationEvent(event string) bool {
	return EventType(event) == EventUpdate
}

// NewPersistMessage builds a bare {event, data} frame for a mutation
// event. Event names outside the mutation set are a protocol misuse.
func NewPersistMessage(event string, data interface{}) (Message, error) {
	if !IsMutationEvent(event) {
		return Message{}, errors.ProtocolMisuse("persist", event)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode persist payload")
	}
	return Message{Event: EventType(event), Data: raw}, nil
}

// NewDispatchMessage wraps a command into the dispatch envelope.
// Mutation event names are refused: they must go through persist.
func NewDispatchMessage(command string, payload interface{}) (Message, error) {
	if IsMutationEvent(command) {
		return Message{}, errors.ProtocolMisuse("emit", command)
	}
	envelope := DispatchEnvelope{Type: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode dispatch payload")
		}
		envelope.Payload = raw
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return Message{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode dispatch envelope")
	}
	return Message{Event: EventDispatch, Data: raw}, nil
}

// ParseMessage decodes one inbound frame. Frames that are not JSON or
// carry no event name are malformed; callers log and keep the
// connection open.
func ParseMessage(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, errors.MalformedMessage(err)
	}
	if msg.Event == "" {
		return Message{}, errors.New(errors.ErrCodeMalformedMessage, "frame is missing an event name")
	}
	return msg, nil
}

// UpdatePayload decodes the data of an update frame.
func (m Message) UpdatePayload() (core.UpdatePatch, error) {
	var patch core.UpdatePatch
	if err := json.Unmarshal(m.Data, &patch); err != nil {
		return core.UpdatePatch{}, errors.MalformedMessage(err)
	}
	return patch, nil
}

// DispatchPayload decodes the data of a dispatch frame.
func (m Message) DispatchPayload() (DispatchEnvelope, error) {
	var envelope DispatchEnvelope
	if err := json.Unmarshal(m.Data, &envelope); err != nil {
		return DispatchEnvelope{}, errors.MalformedMessage(err)
	}
	if envelope.Type == "" {
		return DispatchEnvelope{}, errors.New(errors.ErrCodeMalformedMessage, "dispatch envelope is missing a type")
	}
	return envelope, nil
}

// ConnectedPayloadData decodes the data of a connected frame.
func (m Message) ConnectedPayloadData() (ConnectedPayload, error) {
	var payload ConnectedPayload
	if err := json.Unmarshal(m.Data, &payload); err != nil {
		return ConnectedPayload{}, errors.MalformedMessage(err)
	}
	return payload, nil
}
