// Package config loads the dev session configuration from extdev.toml:
// app identity, store routing, server options and the extension list.
// Overrides from extdev.override.toml are merged field by field, and
// the result is validated against the embedded JSON Schema before use.
package config

import (
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/payload"
)

// Config is the root of extdev.toml.
type Config struct {
	Version    string            `toml:"version" json:"version,omitempty"`
	App        AppConfig         `toml:"app" json:"app"`
	Store      StoreConfig       `toml:"store" json:"store"`
	Server     ServerConfig      `toml:"server" json:"server,omitempty"`
	Extensions []ExtensionConfig `toml:"extensions" json:"extensions,omitempty"`
}

// AppConfig identifies the app the extensions belong to.
type AppConfig struct {
	APIKey         string `toml:"api_key" json:"apiKey" jsonschema:"required,minLength=1"`
	Title          string `toml:"title" json:"title,omitempty"`
	ApplicationURL string `toml:"application_url" json:"applicationUrl,omitempty"`
	Handle         string `toml:"handle" json:"handle,omitempty"`
}

// StoreConfig carries the development store routing inputs.
type StoreConfig struct {
	Fqdn string `toml:"fqdn" json:"fqdn" jsonschema:"required,minLength=1"`
	// ID is the numeric store id customer-account redirects embed.
	ID string `toml:"id" json:"id,omitempty"`
	// CheckoutCartURL is the store-relative cart path checkout
	// redirects use, e.g. "cart/123:1".
	CheckoutCartURL string `toml:"checkout_cart_url" json:"checkoutCartUrl,omitempty"`
}

// ServerConfig holds the listen address and public base url.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr,omitempty"`
	// URL is the public base url clients reach the server on; it may
	// differ from Addr when a tunnel fronts the server.
	URL       string `toml:"url" json:"url,omitempty"`
	PublicDir string `toml:"public_dir" json:"publicDir,omitempty"`
}

// ExtensionConfig declares one locally-built extension.
type ExtensionConfig struct {
	UUID             string         `toml:"uuid" json:"uuid" jsonschema:"required,minLength=1"`
	Type             string         `toml:"type" json:"type" jsonschema:"required,minLength=1"`
	Title            string         `toml:"title" json:"title,omitempty"`
	Version          string         `toml:"version" json:"version,omitempty"`
	Surface          string         `toml:"surface" json:"surface,omitempty" jsonschema:"enum=admin,enum=checkout,enum=post-purchase,enum=customer-account,enum="`
	OutputBundlePath string         `toml:"output_bundle_path" json:"outputBundlePath" jsonschema:"required,minLength=1"`
	ExtensionPoints  []string       `toml:"extension_points" json:"extensionPoints,omitempty"`
	Renderer         RendererConfig `toml:"renderer" json:"renderer,omitempty"`
}

// RendererConfig names the client-side renderer library.
type RendererConfig struct {
	Name    string `toml:"name" json:"name,omitempty"`
	Version string `toml:"version" json:"version,omitempty"`
}

// SessionOptions translates the config into serving-layer options.
func (c *Config) SessionOptions() payload.SessionOptions {
	return payload.SessionOptions{
		APIKey:          c.App.APIKey,
		AppTitle:        c.App.Title,
		ApplicationURL:  c.App.ApplicationURL,
		URL:             c.Server.URL,
		StoreFqdn:       c.Store.Fqdn,
		StoreID:         c.Store.ID,
		CheckoutCartURL: c.Store.CheckoutCartURL,
	}
}

// Descriptors translates the configured extensions into serving-layer
// descriptors. A missing surface is derived from the first extension
// point target.
func (c *Config) Descriptors() []core.ExtensionDescriptor {
	descriptors := make([]core.ExtensionDescriptor, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		surface := core.Surface(ext.Surface)
		if surface == "" {
			for _, target := range ext.ExtensionPoints {
				if derived := core.SurfaceForTarget(target); derived != "" {
					surface = derived
					break
				}
			}
		}
		descriptors = append(descriptors, core.ExtensionDescriptor{
			DevUUID:          ext.UUID,
			Type:             ext.Type,
			Title:            ext.Title,
			Version:          ext.Version,
			Surface:          surface,
			OutputBundlePath: ext.OutputBundlePath,
			ExtensionPoints:  ext.ExtensionPoints,
			Renderer: core.Renderer{
				Name:    ext.Renderer.Name,
				Version: ext.Renderer.Version,
			},
		})
	}
	return descriptors
}
