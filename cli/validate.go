package cli

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/extdev/config"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate subcommand: load the config,
// run schema and semantic validation, and summarize what would be
// served.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate extdev.toml and list the configured extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			options := GetOptions(cmd)
			handler := NewErrorHandler(options.Verbose)

			configPath, err := ResolveConfigFile(options)
			if err != nil {
				return handler.Handle(err)
			}

			cfg, err := config.LoadWithOverrides(configPath)
			if err != nil {
				return handler.Handle(err)
			}

			if options.JSONOutput {
				out, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("✓ %s is valid\n", configPath)
			fmt.Printf("  App:   %s (%s)\n", cfg.App.Title, cfg.App.APIKey)
			fmt.Printf("  Store: %s\n", cfg.Store.Fqdn)
			for _, descriptor := range cfg.Descriptors() {
				fmt.Printf("  Extension %s [%s] surface=%s bundle=%s\n",
					descriptor.DevUUID, descriptor.Type, descriptor.Surface, descriptor.OutputBundlePath)
			}
			return nil
		},
	}
}
