package core

import "path/filepath"

// ExtensionDescriptor describes one locally-built extension: identity,
// surface, bundle output location, and declared extension points. The
// list of descriptors is owned by the surrounding CLI process; the
// serving layer only reads it and computes payloads from it.
type ExtensionDescriptor struct {
	DevUUID          string   `json:"devUUID"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Version          string   `json:"version"`
	Surface          Surface  `json:"surface"`
	OutputBundlePath string   `json:"outputBundlePath"`
	ExtensionPoints  []string `json:"extensionPoints,omitempty"`
	Renderer         Renderer `json:"renderer"`
}

// BuildDirectory returns the directory assets are served from: the
// parent of the output bundle.
func (d ExtensionDescriptor) BuildDirectory() string {
	return filepath.Dir(d.OutputBundlePath)
}

// FindDescriptor returns the descriptor whose DevUUID matches id, or
// nil when none does.
func FindDescriptor(descriptors []ExtensionDescriptor, id string) *ExtensionDescriptor {
	for i := range descriptors {
		if descriptors[i].DevUUID == id {
			return &descriptors[i]
		}
	}
	return nil
}
