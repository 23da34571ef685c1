package payload

import (
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/grovetools/extdev/core"
)

// SessionOptions carries the session-wide inputs owned by the
// surrounding CLI process: the dev server base url, store identity and
// app credentials.
type SessionOptions struct {
	APIKey          string
	AppTitle        string
	ApplicationURL  string
	URL             string
	StoreFqdn       string
	StoreID         string
	CheckoutCartURL string
}

// ExtensionPayloadBuilder computes the served payload for one
// extension. The default is BuildExtensionPayload; hosting code may
// substitute its own.
type ExtensionPayloadBuilder func(descriptor core.ExtensionDescriptor, options SessionOptions) core.Extension

// RootURL returns the extensions root on the dev server.
func (o SessionOptions) RootURL() string {
	return joinURL(o.URL, "/extensions")
}

// ExtensionURL returns the dev server url for one extension.
func (o SessionOptions) ExtensionURL(devUUID string) string {
	return joinURL(o.URL, path.Join("/extensions", devUUID))
}

// WebsocketURL returns the extensions root with the socket scheme.
func (o SessionOptions) WebsocketURL() string {
	parsed, err := url.Parse(o.RootURL())
	if err != nil {
		return o.RootURL()
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	return parsed.String()
}

// DevConsoleURL returns the browser dev console location.
func (o SessionOptions) DevConsoleURL() string {
	return joinURL(o.URL, "/extensions/dev-console")
}

func joinURL(base, p string) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return base + p
	}
	parsed.Path = path.Join(parsed.Path, p)
	return parsed.String()
}

// BuildApp derives the app descriptor served to clients.
func BuildApp(options SessionOptions) *core.App {
	return &core.App{
		ID:             options.APIKey,
		APIKey:         options.APIKey,
		ApplicationURL: options.ApplicationURL,
		Title:          options.AppTitle,
	}
}

// BuildExtensionPayload computes the default served payload for a
// descriptor: asset urls rewritten against the dev server origin, dev
// status seeded from the presence of the output bundle.
func BuildExtensionPayload(descriptor core.ExtensionDescriptor, options SessionOptions) core.Extension {
	rootURL := options.ExtensionURL(descriptor.DevUUID)

	status := core.StatusSuccess
	var lastUpdated int64
	if info, err := os.Stat(descriptor.OutputBundlePath); err == nil {
		lastUpdated = info.ModTime().UnixMilli()
	} else {
		status = core.StatusError
	}

	points := make([]core.ExtensionPoint, 0, len(descriptor.ExtensionPoints))
	for _, target := range descriptor.ExtensionPoints {
		points = append(points, core.ExtensionPoint{
			Target:  target,
			Surface: core.SurfaceForTarget(target),
			Root:    core.URL{URL: rootURL},
		})
	}

	return core.Extension{
		Type:    descriptor.Type,
		UUID:    descriptor.DevUUID,
		Version: descriptor.Version,
		Surface: descriptor.Surface,
		Title:   descriptor.Title,
		Assets: map[string]core.Asset{
			"main": {
				Name:        "main",
				URL:         fmt.Sprintf("%s/assets/main.js", rootURL),
				LastUpdated: lastUpdated,
			},
		},
		Development: core.Development{
			Status:          status,
			Resource:        core.URL{URL: options.CheckoutCartURL},
			Root:            core.URL{URL: rootURL},
			Renderer:        descriptor.Renderer,
			ExtensionPoints: points,
		},
	}
}

// NewSessionStore builds the payload store for a session from its
// descriptors, using builder (or the default when nil) for each one.
func NewSessionStore(descriptors []core.ExtensionDescriptor, options SessionOptions, builder ExtensionPayloadBuilder) *Store {
	if builder == nil {
		builder = BuildExtensionPayload
	}
	extensions := make([]core.Extension, 0, len(descriptors))
	for _, descriptor := range descriptors {
		extensions = append(extensions, builder(descriptor, options))
	}
	return NewStore(BuildApp(options), options.StoreFqdn, extensions)
}
