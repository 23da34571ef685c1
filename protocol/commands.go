package protocol

import (
	"encoding/json"

	"github.com/grovetools/extdev/errors"
	"github.com/mitchellh/mapstructure"
)

// Dispatch command names understood by rendering surfaces.
const (
	CommandRefresh  = "refresh"
	CommandFocus    = "focus"
	CommandUnfocus  = "unfocus"
	CommandNavigate = "navigate"
)

// ExtensionRef addresses one extension in a command payload.
type ExtensionRef struct {
	UUID string `json:"uuid" mapstructure:"uuid"`
}

// NavigateCommand asks the surface to open a url.
type NavigateCommand struct {
	URL string `json:"url" mapstructure:"url"`
}

// DecodePayload decodes a dispatch payload into a typed command
// struct. Payloads arrive as arbitrary JSON; mapstructure tolerates
// the extra keys relaying clients may attach.
func (e DispatchEnvelope) DecodePayload(out interface{}) error {
	if len(e.Payload) == 0 {
		return nil
	}
	var generic interface{}
	if err := json.Unmarshal(e.Payload, &generic); err != nil {
		return errors.MalformedMessage(err)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  out,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build payload decoder")
	}
	if err := decoder.Decode(generic); err != nil {
		return errors.MalformedMessage(err)
	}
	return nil
}

// RefreshTargets decodes the payload of a refresh or focus command.
func (e DispatchEnvelope) RefreshTargets() ([]ExtensionRef, error) {
	var refs []ExtensionRef
	if err := e.DecodePayload(&refs); err != nil {
		return nil, err
	}
	return refs, nil
}
