// Package cli holds the cobra command tree for the extdev binary and
// the shared flag, logging and error-reporting plumbing its commands
// use.
package cli

import (
	"os"

	"github.com/grovetools/extdev/config"
	"github.com/grovetools/extdev/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the flags every extdev command shares.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command carrying the standard flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to extdev.toml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger creates a logger honoring the command's flags.
func GetLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logging.NewLogger("extdev-cli").Logger

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// GetOptions extracts the shared flags from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// ResolveConfigFile returns the config path from the flag, or searches
// upward from the working directory when the flag is empty.
func ResolveConfigFile(options CommandOptions) (string, error) {
	if options.ConfigFile != "" {
		return options.ConfigFile, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.FindConfigFile(cwd)
}
