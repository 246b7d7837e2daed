package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/myvite-dev/myvite/internal/dev"
)

func devCmd(configFile *string) *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
		force       bool
		noHMR       bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot module replacement.

The dev server serves project files as native ES modules, watches
for changes and pushes updates to connected browsers. Stylesheet
and component edits apply in place; anything else reloads the page.

Examples:
  myvite dev
  myvite dev --port=8080
  myvite dev --host=0.0.0.0 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, "development")
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if openBrowser {
				cfg.Server.Open = true
			}
			if force {
				cfg.OptimizeDeps.Force = true
			}
			if noHMR {
				cfg.Server.HMR = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			printBanner()
			fmt.Println("  dev")
			fmt.Println()

			server, err := dev.NewServer(dev.ServerOptions{
				Config: cfg,
				Logger: dev.NewLogger(os.Stderr, verbose),
				OnReady: func(addr string) {
					success("Ready at http://%s", addr)
					if cfg.Server.Open {
						openURL(cfg.DevURL())
					}
				},
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			err = server.Start(ctx)
			fmt.Println("\n  Shutting down...")
			return err
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config, 5173)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config, localhost)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")
	cmd.Flags().BoolVar(&force, "force", false, "Re-bundle dependencies even if unchanged")
	cmd.Flags().BoolVar(&noHMR, "no-hmr", false, "Reload the page on every change")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request and update decision")

	return cmd
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		if !commandExists("xdg-open") {
			warn("Cannot open a browser: xdg-open not found")
			return
		}
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		warn("Cannot open a browser: %v", err)
	}
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
