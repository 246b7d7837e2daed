package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/myvite-dev/myvite/internal/config"
)

// loadConfig loads the config file named by path, else the nearest config
// file above the working directory, else defaults rooted at the working
// directory.
func loadConfig(path, mode string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	default:
		wd, werr := os.Getwd()
		if werr != nil {
			return nil, werr
		}
		if root, ferr := config.FindProjectRoot(wd); ferr == nil {
			cfg, err = config.Load(root)
		} else {
			cfg = config.New()
			cfg.SetDir(wd)
		}
	}
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.Mode = mode
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
