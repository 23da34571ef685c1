// Package server implements the HTTP surface of the extension dev
// server: the middleware chain serving assets and computed payloads to
// rendering surfaces, and the websocket endpoint broadcasting live
// updates to connected clients.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/grovetools/extdev/errors"
)

// allowedHeaders is the fixed header list surfaces send on cross-origin
// payload fetches.
const allowedHeaders = "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, ngrok-skip-browser-warning"

// contentTypes maps file extensions to the Content-Type the file
// server reports. Anything else is served as text/plain.
var contentTypes = map[string]string{
	".ico":  "image/x-icon",
	".html": "text/html",
	".js":   "text/javascript",
	".json": "application/json",
	".css":  "text/css",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
}

// errorBody is the JSON shape of every structured error response.
type errorBody struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// sendError writes a structured error response. All handler failures
// flow through here; no raw error ever reaches the HTTP layer.
func sendError(w http.ResponseWriter, devErr *errors.DevError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(devErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorBody{
		StatusCode:    devErr.HTTPStatus(),
		StatusMessage: devErr.Message,
	})
}

// CORSMiddleware allows payloads to be fetched cross-origin from
// platform-hosted surfaces.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		next.ServeHTTP(w, r)
	})
}

// NoCacheMiddleware marks every response uncacheable: dev content
// reflects live local state.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// ServeFile writes the file at filePath with a Content-Type from the
// fixed extension table. Directories serve their index.html; a missing
// file is a structured 404.
func ServeFile(w http.ResponseWriter, filePath string) {
	if info, err := os.Stat(filePath); err == nil && info.IsDir() {
		filePath = filepath.Join(filePath, "index.html")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		sendError(w, errors.AssetNotFound(filePath))
		return
	}

	contentType, ok := contentTypes[filepath.Ext(filePath)]
	if !ok {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// redirectToDevConsole is mounted at the server root.
func (s *Server) redirectToDevConsole(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/extensions/dev-console", http.StatusTemporaryRedirect)
}

// devConsoleHandler serves the browser dev console bundle.
func (s *Server) devConsoleHandler(w http.ResponseWriter, r *http.Request) {
	assetPath := mux.Vars(r)["assetPath"]
	ServeFile(w, filepath.Join(s.options.PublicDir, filepath.FromSlash(assetPath)))
}

// extensionAssetHandler serves a bundle file from the extension's
// build output directory.
func (s *Server) extensionAssetHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	extensionID := vars["uuid"]

	descriptor := s.findDescriptor(extensionID)
	if descriptor == nil {
		sendError(w, errors.ExtensionNotFound(extensionID))
		return
	}

	assetPath := filepath.FromSlash(vars["assetPath"])
	ServeFile(w, filepath.Join(descriptor.BuildDirectory(), assetPath))
}
