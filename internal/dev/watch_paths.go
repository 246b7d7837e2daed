package dev

import (
	"path/filepath"
	"strings"

	"github.com/myvite-dev/myvite/internal/config"
)

// CollectIgnore returns the watcher's ignore patterns for the project: the
// defaults, the build output directory when it lies inside the root, and
// server.watch.ignore.
func CollectIgnore(cfg *config.Config) []string {
	patterns := append([]string{}, DefaultIgnore...)

	if rel, err := filepath.Rel(cfg.RootPath(), cfg.OutputPath()); err == nil && !strings.HasPrefix(rel, "..") && rel != "." {
		patterns = append(patterns, filepath.ToSlash(rel))
	}
	patterns = append(patterns, cfg.Server.Watch.Ignore...)

	unique := make([]string, 0, len(patterns))
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
