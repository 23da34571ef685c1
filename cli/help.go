package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const helpWidth = 60

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// SetStyledHelp applies consistent styling to a command's help output.
// Call this on the root command before Execute().
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()

	if cmd.Long != "" {
		fmt.Fprintln(out, wrapText(cmd.Long, helpWidth))
	} else if cmd.Short != "" {
		fmt.Fprintln(out, wrapText(cmd.Short, helpWidth))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("Usage"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if len(cmd.Commands()) > 0 {
		fmt.Fprintln(out, headingStyle.Render("Commands"))
		for _, sub := range cmd.Commands() {
			if sub.Hidden || !sub.IsAvailableCommand() {
				continue
			}
			fmt.Fprintf(out, "  %s %s\n",
				commandStyle.Render(fmt.Sprintf("%-12s", sub.Name())),
				dimStyle.Render(sub.Short))
		}
		fmt.Fprintln(out)
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintln(out, headingStyle.Render("Flags"))
		printFlags(cmd, cmd.LocalFlags())
		fmt.Fprintln(out)
	}

	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintln(out, headingStyle.Render("Global Flags"))
		printFlags(cmd, cmd.InheritedFlags())
		fmt.Fprintln(out)
	}

	if len(cmd.Commands()) > 0 {
		fmt.Fprintln(out, dimStyle.Render(
			fmt.Sprintf(`Use "%s [command] --help" for more information about a command.`, cmd.CommandPath())))
	}
}

func printFlags(cmd *cobra.Command, flags *pflag.FlagSet) {
	out := cmd.OutOrStdout()
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", " + name
		}
		fmt.Fprintf(out, "  %s %s\n",
			flagStyle.Render(fmt.Sprintf("%-20s", name)),
			dimStyle.Render(f.Usage))
	})
}

// wrapText wraps text to the specified width, preserving existing line
// breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			if line == "" {
				line = word
			} else if len(line)+1+len(word) <= width {
				line += " " + word
			} else {
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
