package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/myvite-dev/myvite/internal/config"
	"github.com/myvite-dev/myvite/internal/dev"
	"github.com/myvite-dev/myvite/internal/optimize"
	"github.com/myvite-dev/myvite/internal/sfc"
)

func optimizeCmd(configFile *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Pre-bundle dependencies",
		Long: `Scan src/ for bare imports and bundle them into
node_modules/.myvite/deps, one ES module per package.

The dev server does this on start; run it directly to warm the
cache or to inspect the result.

Examples:
  myvite optimize
  myvite optimize --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, "")
			if err != nil {
				return err
			}
			_, compilerName, err := sfc.NewCompiler(cfg.Compiler.Mode, cfg.RootPath(), cfg.Compiler.CacheSize)
			if err != nil {
				return err
			}

			opt := &optimize.Optimizer{
				Root:    cfg.RootPath(),
				SrcDir:  cfg.SrcPath(),
				OutDir:  cfg.DepsPath(),
				Include: cfg.OptimizeDeps.Include,
				Exclude: cfg.OptimizeDeps.Exclude,
				Force:   force || cfg.OptimizeDeps.Force,
				FullVue: compilerName == config.CompilerBuiltin,
				Logger:  dev.NewLogger(cmd.ErrOrStderr(), false),
			}

			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			res, err := opt.Run(ctx)
			if err != nil {
				return err
			}
			if res.Skipped {
				info("Dependencies unchanged (%d), use --force to re-bundle", len(res.Deps))
				return nil
			}
			success("Pre-bundled %d dependencies in %s", len(res.Deps), time.Since(start).Round(time.Millisecond))
			for _, d := range res.Deps {
				info("%s", d)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-bundle even if the dependency list is unchanged")
	return cmd
}
