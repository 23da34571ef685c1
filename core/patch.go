package core

// Patch types mirror the data model with pointer fields so a patch can
// distinguish "set this value" from "leave it unchanged". A field absent
// from the wire JSON decodes as a nil pointer and means unchanged; an
// explicit null decodes the same way and is treated identically.

// URLPatch updates a nested url wrapper.
type URLPatch struct {
	URL *string `json:"url,omitempty"`
}

// RendererPatch updates renderer identity fields.
type RendererPatch struct {
	Name    *string `json:"name,omitempty"`
	Version *string `json:"version,omitempty"`
}

// AssetPatch updates a single named asset.
type AssetPatch struct {
	Name        *string `json:"name,omitempty"`
	URL         *string `json:"url,omitempty"`
	LastUpdated *int64  `json:"lastUpdated,omitempty"`
}

// DevelopmentPatch updates the dev-mode block of an extension. The
// extension point list is replaced wholesale when present; per-entry
// patching is not supported.
type DevelopmentPatch struct {
	Hidden          *bool            `json:"hidden,omitempty"`
	Status          *string          `json:"status,omitempty"`
	Focused         *bool            `json:"focused,omitempty"`
	Resource        *URLPatch        `json:"resource,omitempty"`
	Root            *URLPatch        `json:"root,omitempty"`
	Renderer        *RendererPatch   `json:"renderer,omitempty"`
	ExtensionPoints []ExtensionPoint `json:"extensionPoints,omitempty"`
}

// ExtensionPatch is a deep-partial update for one extension, addressed
// by UUID. Patches never create extensions: a UUID with no matching
// entry in the target state is dropped.
type ExtensionPatch struct {
	UUID        string                `json:"uuid"`
	Type        *string               `json:"type,omitempty"`
	Version     *string               `json:"version,omitempty"`
	Surface     *Surface              `json:"surface,omitempty"`
	Title       *string               `json:"title,omitempty"`
	Assets      map[string]AssetPatch `json:"assets,omitempty"`
	Development *DevelopmentPatch     `json:"development,omitempty"`
}

// AppPatch is a field-by-field update for the app descriptor.
type AppPatch struct {
	ID             *string          `json:"id,omitempty"`
	APIKey         *string          `json:"apiKey,omitempty"`
	ApplicationURL *string          `json:"applicationUrl,omitempty"`
	Handle         *string          `json:"handle,omitempty"`
	Title          *string          `json:"title,omitempty"`
	Icon           *URLPatch        `json:"icon,omitempty"`
	Installation   *AppInstallation `json:"installation,omitempty"`
	SupportEmail   *string          `json:"supportEmail,omitempty"`
}

// UpdatePatch is the payload of an update event: an optional app patch
// plus zero or more extension deltas.
type UpdatePatch struct {
	App        *AppPatch        `json:"app,omitempty"`
	Extensions []ExtensionPatch `json:"extensions,omitempty"`
}

// IsEmpty reports whether the patch carries no changes at all.
func (p UpdatePatch) IsEmpty() bool {
	return p.App == nil && len(p.Extensions) == 0
}
