package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const esbuildModule = "github.com/evanw/esbuild"

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print myvite and bundler versions",
		Long: `Print the myvite version along with the esbuild release that backs
import rewriting, pre-bundling and production builds. Include this
output when reporting a transform or bundling problem.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			printBanner()
			fmt.Println()
			fmt.Printf("  myvite:     %s (%s, %s)\n", version, commit, date)
			fmt.Printf("  esbuild:    %s\n", depVersion(esbuildModule))
			fmt.Printf("  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Println()
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the myvite version")

	return cmd
}

// depVersion returns the version of a linked module, or "unknown" when the
// binary carries no build info.
func depVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "unknown"
}
