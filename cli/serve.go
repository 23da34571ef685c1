package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/grovetools/extdev/config"
	"github.com/grovetools/extdev/server"
	"github.com/grovetools/extdev/watcher"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve subcommand: the dev server plus
// the bundle watcher, running until interrupted.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the extension dev server",
		Long: `Serves extension assets, computed payloads and the websocket
live-update endpoint for every extension declared in extdev.toml.
Build output is watched; rebuilding an extension pushes an update to
all connected clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := GetOptions(cmd)
			handler := NewErrorHandler(options.Verbose)
			logger := GetLogger(cmd)

			configPath, err := ResolveConfigFile(options)
			if err != nil {
				return handler.Handle(err)
			}

			cfg, err := config.LoadWithOverrides(configPath)
			if err != nil {
				return handler.Handle(err)
			}

			descriptors := cfg.Descriptors()
			srv := server.New(server.Options{
				Addr:        cfg.Server.Addr,
				Session:     cfg.SessionOptions(),
				Descriptors: descriptors,
				PublicDir:   cfg.Server.PublicDir,
			})

			w, err := watcher.New(srv.Store(), descriptors, watcher.Options{})
			if err != nil {
				return handler.Handle(err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go w.Start(ctx)

			logger.WithField("extensions", len(descriptors)).Info("starting dev server")
			if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
				return handler.Handle(err)
			}
			return nil
		},
	}

	return cmd
}
