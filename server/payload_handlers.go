package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
	"github.com/grovetools/extdev/protocol"
)

// apiResponse is the shared frame of the REST and payload endpoints.
type apiResponse struct {
	App        appResponse `json:"app"`
	Version    string      `json:"version"`
	Root       core.URL    `json:"root"`
	Socket     core.URL    `json:"socket"`
	DevConsole core.URL    `json:"devConsole"`
	Store      string      `json:"store"`
}

type appResponse struct {
	APIKey string `json:"apiKey"`
}

type extensionsResponse struct {
	apiResponse
	Extensions []core.Extension `json:"extensions"`
}

type singleExtensionResponse struct {
	apiResponse
	Extension core.Extension `json:"extension"`
}

func (s *Server) baseResponse() apiResponse {
	return apiResponse{
		App:        appResponse{APIKey: s.options.Session.APIKey},
		Version:    protocol.ManifestVersion,
		Root:       core.URL{URL: s.options.Session.RootURL()},
		Socket:     core.URL{URL: s.options.Session.WebsocketURL()},
		DevConsole: core.URL{URL: s.options.Session.DevConsoleURL()},
		Store:      s.options.Session.StoreFqdn,
	}
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// listExtensionsHandler is the socketless fallback: the full payload
// list over plain HTTP.
func (s *Server) listExtensionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, extensionsResponse{
		apiResponse: s.baseResponse(),
		Extensions:  s.store.Extensions(),
	})
}

// extensionPayloadHandler negotiates on Accept. Browsers asking for
// text/html either get the post-purchase document rendered locally or
// a 307 to the surface that hosts the extension; everything else gets
// the computed JSON payload.
func (s *Server) extensionPayloadHandler(w http.ResponseWriter, r *http.Request) {
	extensionID := mux.Vars(r)["uuid"]

	extension, ok := s.store.FindExtension(extensionID)
	if !ok {
		sendError(w, errors.ExtensionNotFound(extensionID))
		return
	}

	if strings.HasPrefix(r.Header.Get("Accept"), "text/html") {
		if extension.Surface == core.SurfacePostPurchase {
			body, err := s.options.HTMLRenderer(HTMLTemplateData{
				URL: s.options.Session.ExtensionURL(extensionID),
			}, "index", extension.Surface)
			if err != nil {
				sendError(w, errors.Wrap(err, errors.ErrCodeInternal, "failed to render extension document"))
				return
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(body))
			return
		}

		redirect, ok := redirectURL(extension.Surface, extensionID, s.options.Session)
		if !ok {
			sendError(w, errors.RedirectUnavailable(extensionID, string(extension.Surface)))
			return
		}
		http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
		return
	}

	writeJSON(w, singleExtensionResponse{
		apiResponse: s.baseResponse(),
		Extension:   extension,
	})
}

// extensionPointHandler redirects a surface to the route serving a
// specific extension point target.
func (s *Server) extensionPointHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	extensionID := vars["uuid"]
	target := vars["target"]

	extension, ok := s.store.FindExtension(extensionID)
	if !ok {
		sendError(w, errors.ExtensionNotFound(extensionID))
		return
	}

	if !extension.HasExtensionPointTarget(target) {
		sendError(w, errors.ExtensionPointNotConfigured(extensionID, target))
		return
	}

	redirect, ok := extensionPointRedirectURL(target, extensionID, s.options.Session)
	if !ok {
		sendError(w, errors.RedirectUnavailable(extensionID, target))
		return
	}
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}
