package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myvite-dev/myvite/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┬ ┬┬  ┬┬┌┬┐┌─┐
  │││└┬┘└┐┌┘│ │ ├┤
  ┴ ┴ ┴  └┘ ┴ ┴ └─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "myvite",
		Short: "A development server and bundler for Vue projects",
		Long: `myvite serves a Vue project as native ES modules during development
and bundles it for production.

  • Import rewriting and on-the-fly TypeScript and .vue compilation
  • Hot updates for stylesheets and components over WebSocket
  • Dependency pre-bundling with esbuild
  • Production builds with hashed assets`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		configFile string
		noColor    bool
	)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: myvite.json/.yaml in the project root)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor {
			errors.SetColor(false)
		}
	}

	// Add commands
	rootCmd.AddCommand(
		devCmd(&configFile),
		buildCmd(&configFile),
		optimizeCmd(&configFile),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(exitCode(err))
	}
}

// projectErrors are the codes of problems in the project setup itself.
var projectErrors = []string{"E100", "E101", "E102", "E103", "E110", "E111", "E112"}

// exitCode is 2 for config and project layout errors, 1 for everything else.
func exitCode(err error) int {
	for _, code := range projectErrors {
		if errors.HasCode(err, code) {
			return 2
		}
	}
	return 1
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
