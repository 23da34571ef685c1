package cli

import (
	"fmt"
	"strings"

	"github.com/grovetools/extdev/client"
	"github.com/grovetools/extdev/config"
	"github.com/grovetools/extdev/errors"
	"github.com/grovetools/extdev/protocol"
	"github.com/spf13/cobra"
)

// NewDispatchCommand creates the dispatch subcommand: send a command
// envelope to a running dev server, which relays it to every connected
// rendering surface.
func NewDispatchCommand() *cobra.Command {
	var (
		socketURL  string
		extensions []string
		navigateTo string
	)

	cmd := &cobra.Command{
		Use:   "dispatch <refresh|focus|unfocus|navigate>",
		Short: "Send a command to a running dev server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := GetOptions(cmd)
			handler := NewErrorHandler(options.Verbose)
			command := args[0]

			payload, err := commandPayload(command, extensions, navigateTo)
			if err != nil {
				return handler.Handle(err)
			}

			url := socketURL
			if url == "" {
				configPath, err := ResolveConfigFile(options)
				if err != nil {
					return handler.Handle(err)
				}
				cfg, err := config.LoadWithOverrides(configPath)
				if err != nil {
					return handler.Handle(err)
				}
				url = cfg.SessionOptions().WebsocketURL()
			}

			c, err := client.New(client.Options{URL: url})
			if err != nil {
				return handler.Handle(errors.Wrap(err, errors.ErrCodeDeliveryFailure, "failed to connect to dev server"))
			}
			defer c.Close()

			c.Emit(command, payload)
			fmt.Printf("dispatched %s\n", command)
			return nil
		},
	}

	cmd.Flags().StringVar(&socketURL, "url", "", "Websocket url of the dev server (derived from extdev.toml when empty)")
	cmd.Flags().StringSliceVarP(&extensions, "extension", "e", nil, "Extension uuid(s) the command targets")
	cmd.Flags().StringVar(&navigateTo, "to", "", "Destination url for the navigate command")

	return cmd
}

func commandPayload(command string, extensions []string, navigateTo string) (interface{}, error) {
	switch command {
	case protocol.CommandRefresh, protocol.CommandFocus, protocol.CommandUnfocus:
		if len(extensions) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("%s requires at least one --extension", command))
		}
		refs := make([]protocol.ExtensionRef, 0, len(extensions))
		for _, uuid := range extensions {
			refs = append(refs, protocol.ExtensionRef{UUID: strings.TrimSpace(uuid)})
		}
		return refs, nil
	case protocol.CommandNavigate:
		if navigateTo == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "navigate requires --to")
		}
		return protocol.NavigateCommand{URL: navigateTo}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown command %q", command))
	}
}
