// Package core defines the data model shared by the dev server and its
// clients: the app descriptor, extension payloads, the console state
// snapshot, and the patch types used by the live-update protocol.
//
// The server and every client apply patches with the same merge functions
// from this package. That single shared implementation is what keeps
// client state from drifting away from server state.
package core

// Surface identifies the rendering context an extension targets.
type Surface string

const (
	SurfaceAdmin           Surface = "admin"
	SurfaceCheckout        Surface = "checkout"
	SurfacePostPurchase    Surface = "post-purchase"
	SurfaceCustomerAccount Surface = "customer-account"
)

// IsValidSurface reports whether s is one of the known surfaces.
func IsValidSurface(s Surface) bool {
	switch s {
	case SurfaceAdmin, SurfaceCheckout, SurfacePostPurchase, SurfaceCustomerAccount:
		return true
	}
	return false
}

// URL wraps a url string so nested payload shapes like {"root": {"url": ...}}
// serialize the way clients expect.
type URL struct {
	URL string `json:"url"`
}

// Asset is a single built artifact served for an extension.
type Asset struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	LastUpdated int64  `json:"lastUpdated"`
}

// Renderer identifies the client-side library rendering an extension.
type Renderer struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ExtensionPoint is a single target an extension renders into.
type ExtensionPoint struct {
	Target  string  `json:"target"`
	Surface Surface `json:"surface,omitempty"`
	Root    URL     `json:"root,omitempty"`
}

// Development carries the dev-mode state of an extension: build status,
// focus, and the URLs a surface needs to load it.
type Development struct {
	Hidden          bool             `json:"hidden"`
	Status          string           `json:"status"`
	Focused         bool             `json:"focused,omitempty"`
	Resource        URL              `json:"resource"`
	Root            URL              `json:"root"`
	Renderer        Renderer         `json:"renderer"`
	ExtensionPoints []ExtensionPoint `json:"extensionPoints,omitempty"`
}

// Build status values for Development.Status.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Extension is the computed, serializable payload for one extension
// instance. UUID is stable for the lifetime of a dev session and never
// duplicated within one session.
type Extension struct {
	Type        string           `json:"type"`
	UUID        string           `json:"uuid"`
	Version     string           `json:"version"`
	Surface     Surface          `json:"surface"`
	Title       string           `json:"title"`
	Assets      map[string]Asset `json:"assets"`
	Development Development      `json:"development"`
	User        ExtensionUser    `json:"user"`
}

// ExtensionUser carries per-user extension metadata.
type ExtensionUser struct {
	Metafields []Metafield `json:"metafields,omitempty"`
}

// Metafield is a namespaced key an extension reads from the platform.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// AppInstallation describes where an installed app launches.
type AppInstallation struct {
	LaunchURL string `json:"launchUrl,omitempty"`
}

// App describes the application that owns the extensions under
// development. It is replaced wholesale by a connected snapshot and
// merged field-by-field by update patches.
type App struct {
	ID             string           `json:"id"`
	APIKey         string           `json:"apiKey"`
	ApplicationURL string           `json:"applicationUrl"`
	Handle         string           `json:"handle,omitempty"`
	Title          string           `json:"title"`
	Icon           URL              `json:"icon,omitempty"`
	Installation   *AppInstallation `json:"installation,omitempty"`
	SupportEmail   string           `json:"supportEmail,omitempty"`
}

// ConsoleState is the authoritative session snapshot. Extensions are
// keyed by UUID; the slice never contains duplicates.
type ConsoleState struct {
	App        *App        `json:"app,omitempty"`
	Store      string      `json:"store"`
	Extensions []Extension `json:"extensions"`
}

// NewConsoleState returns the empty state a client holds before its
// first connected snapshot arrives.
func NewConsoleState() *ConsoleState {
	return &ConsoleState{Store: "", Extensions: []Extension{}}
}

// FindExtension returns a pointer into the state's extension slice for
// the given uuid, or nil when no extension matches.
func (s *ConsoleState) FindExtension(uuid string) *Extension {
	for i := range s.Extensions {
		if s.Extensions[i].UUID == uuid {
			return &s.Extensions[i]
		}
	}
	return nil
}
