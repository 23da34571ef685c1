package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/payload"
	"github.com/sirupsen/logrus"
)

// Options configures a dev server instance. Descriptors and session
// identity are owned by the surrounding CLI process; the server only
// reads them.
type Options struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string
	// Session carries app identity, store FQDN and the public base url.
	Session payload.SessionOptions
	// Descriptors is the collaborator-supplied extension list.
	Descriptors []core.ExtensionDescriptor
	// PublicDir holds the browser dev console bundle.
	PublicDir string
	// HTMLRenderer overrides the default post-purchase document
	// renderer when non-nil.
	HTMLRenderer HTMLRenderer
	// PayloadBuilder overrides the default payload computation when
	// non-nil.
	PayloadBuilder payload.ExtensionPayloadBuilder
}

// Server serves extension assets, computed payloads and the websocket
// live-update endpoint for one dev session.
type Server struct {
	options     Options
	store       *payload.Store
	broadcaster *Broadcaster
	router      *mux.Router
	logger      *logrus.Entry
	httpServer  *http.Server
}

// New builds a server and its payload store from the session options.
func New(options Options) *Server {
	if options.HTMLRenderer == nil {
		options.HTMLRenderer = RenderHTML
	}

	store := payload.NewSessionStore(options.Descriptors, options.Session, options.PayloadBuilder)

	s := &Server{
		options:     options,
		store:       store,
		broadcaster: NewBroadcaster(store),
		logger:      logging.NewLogger("dev-server"),
	}
	s.router = s.routes()
	return s
}

// routes mounts the middleware chain in its fixed order: cors and
// no-cache wrap everything, then the root redirect, the dev console
// file server, extension assets, payloads and extension points.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(CORSMiddleware, NoCacheMiddleware, s.logMiddleware)

	r.HandleFunc("/", s.redirectToDevConsole)
	r.HandleFunc("/extensions", s.extensionsHandler)
	r.HandleFunc("/extensions/", s.extensionsHandler)
	r.HandleFunc("/extensions/dev-console", s.devConsoleHandler)
	r.HandleFunc("/extensions/dev-console/{assetPath:.*}", s.devConsoleHandler)
	r.HandleFunc("/extensions/{uuid}/assets/{assetPath:.*}", s.extensionAssetHandler)
	r.HandleFunc("/extensions/{uuid}", s.extensionPayloadHandler)
	r.HandleFunc("/extensions/{uuid}/{target}", s.extensionPointHandler)

	return r
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.WithFields(logrus.Fields{"method": r.Method, "url": r.URL.Path}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

// extensionsHandler serves both personalities of /extensions: a
// websocket upgrade attaches a live client, plain GET is the REST
// fallback listing.
func (s *Server) extensionsHandler(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.broadcaster.Handle(w, r)
		return
	}
	s.listExtensionsHandler(w, r)
}

func (s *Server) findDescriptor(id string) *core.ExtensionDescriptor {
	return core.FindDescriptor(s.options.Descriptors, id)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store exposes the payload store so the build pipeline can push
// updates.
func (s *Server) Store() *payload.Store {
	return s.store
}

// Broadcaster exposes the fan-out side for server-initiated commands.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.options.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.WithField("addr", s.options.Addr).Info("dev server listening")

	select {
	case <-ctx.Done():
		s.broadcaster.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
