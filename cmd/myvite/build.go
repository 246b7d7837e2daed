package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/myvite-dev/myvite/internal/build"
	"github.com/myvite-dev/myvite/internal/config"
	"github.com/myvite-dev/myvite/internal/sfc"
)

func buildCmd(configFile *string) *cobra.Command {
	var (
		output     string
		minify     bool
		sourceMaps bool
		publish    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Build the project for production deployment.

This command:
  • Bundles the entry module and its dependencies with esbuild
  • Compiles components and extracts their styles
  • Writes content-hashed chunks and assets
  • Rewrites index.html and copies public/
  • Generates manifest.json
  • Optionally uploads the output to S3

Examples:
  myvite build
  myvite build --outDir=out
  myvite build --publish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, "production")
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if output != "" {
				cfg.Build.OutDir = output
			}
			if cmd.Flags().Changed("minify") {
				cfg.Build.Minify = minify
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			compiler, compilerName, err := sfc.NewCompiler(cfg.Compiler.Mode, cfg.RootPath(), cfg.Compiler.CacheSize)
			if err != nil {
				return err
			}
			env, err := cfg.LoadEnv()
			if err != nil {
				return err
			}

			fmt.Println("  Building for production...")
			fmt.Println()

			builder := build.New(cfg, build.Options{
				Minify:     cfg.Build.Minify,
				SourceMaps: sourceMaps || cfg.Build.Sourcemap,
				Compiler:   compiler,
				FullVue:    compilerName == config.CompilerBuiltin,
				Define:     cfg.Defines(env),
				OnProgress: func(step string) {
					info("%s", step)
				},
			})

			ctx, cancel := signalContext()
			defer cancel()

			result, err := builder.Build(ctx)
			if err != nil {
				return err
			}

			// Print results
			fmt.Println()
			success("Build complete in %s", result.Duration.Round(time.Millisecond))
			fmt.Println()
			fmt.Println("  Output:")
			fmt.Printf("    %s/\n", filepath.Base(result.OutDir))
			fmt.Printf("    ├── index.html\n")
			fmt.Printf("    ├── %s\n", result.Entry)
			for _, css := range result.CSS {
				fmt.Printf("    ├── %s\n", css)
			}
			fmt.Printf("    └── manifest.json   (%d files, %s)\n", result.Files, formatBytes(result.Size))
			fmt.Println()

			if !publish && cfg.Build.Publish.Bucket == "" {
				return nil
			}
			publisher, err := build.NewPublisher(cfg.Build.Publish, nil)
			if err != nil {
				return err
			}
			keys, err := publisher.Publish(ctx, result.OutDir)
			if err != nil {
				return err
			}
			success("Published %d files to s3://%s", len(keys), cfg.Build.Publish.Bucket)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "outDir", "o", "", "Output directory (default from config, dist)")
	cmd.Flags().BoolVar(&minify, "minify", true, "Minify output")
	cmd.Flags().BoolVar(&sourceMaps, "sourcemap", false, "Generate source maps")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the output to build.publish.bucket")

	return cmd
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
