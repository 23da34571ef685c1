package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *DevError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *DevError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ExtensionNotFound creates the structured 404 reported when no
// extension matches the requested id.
func ExtensionNotFound(id string) *DevError {
	return New(ErrCodeExtensionNotFound, fmt.Sprintf("Extension with id %s not found", id)).
		WithDetail("extensionId", id)
}

// AssetNotFound creates the structured 404 for a missing file path.
func AssetNotFound(path string) *DevError {
	return New(ErrCodeAssetNotFound, fmt.Sprintf("Not Found: %s", path)).
		WithDetail("path", path)
}

// ExtensionPointNotConfigured creates the 404 for a target the
// extension never declared.
func ExtensionPointNotConfigured(id, target string) *DevError {
	return New(ErrCodeExtensionPointMissing,
		fmt.Sprintf("Extension with id %s has not configured the %q extension point", id, target)).
		WithDetail("extensionId", id).
		WithDetail("target", target)
}

// RedirectUnavailable creates the 404 for a declared target whose
// surface yields no valid redirect route.
func RedirectUnavailable(id, target string) *DevError {
	return New(ErrCodeRedirectUnavailable,
		fmt.Sprintf("Redirect url can't be constructed for extension with id %s and extension point %q", id, target)).
		WithDetail("extensionId", id).
		WithDetail("target", target)
}

// ProtocolMisuse creates the error logged when a persist/dispatch call
// uses the wrong channel for an event name.
func ProtocolMisuse(method, event string) *DevError {
	return New(ErrCodeProtocolMisuse,
		fmt.Sprintf("%q may not be used with the %q event", method, event)).
		WithDetail("method", method).
		WithDetail("event", event)
}

// MalformedMessage wraps a frame parse failure. The connection stays
// open; the error is only logged.
func MalformedMessage(err error) *DevError {
	return Wrap(err, ErrCodeMalformedMessage, "failed to parse inbound frame")
}
