package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/extdev/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle prints a user-friendly message for known error codes and
// returns the error unchanged so callers can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ No extdev.toml found. Create one in your project root or pass --config.\n")
		return err

	case errors.ErrCodeConfigValidation, errors.ErrCodeConfigInvalid:
		fmt.Fprintf(os.Stderr, "❌ Configuration is invalid: %v\n", err)
		return err

	case errors.ErrCodeExtensionNotFound:
		if devErr, ok := err.(*errors.DevError); ok {
			fmt.Fprintf(os.Stderr, "❌ Extension '%v' is not declared in extdev.toml\n", devErr.Details["extensionId"])
			fmt.Fprintf(os.Stderr, "Run 'extdev validate' to inspect the configured extensions.\n")
		}
		return err

	case errors.ErrCodeDeliveryFailure:
		fmt.Fprintf(os.Stderr, "❌ Could not reach the dev server: %v\n", err)
		fmt.Fprintf(os.Stderr, "Is 'extdev serve' running?\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if devErr, ok := err.(*errors.DevError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", devErr.ToJSON())
			}
		}
		return err
	}
}
