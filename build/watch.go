package build

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/logger"
)

// WatchOptions configures Watch
type WatchOptions struct {
	Options
	Debounce time.Duration // zero keeps the watcher default
	// OnBuild receives every finished build; err is set when the build aborted
	OnBuild func(b *Build, err error)
}

// Watch builds cfg once, then rebuilds whenever the config file or a file
// below a source directory changes, until ctx is cancelled. Rebuilds use the
// reloaded configuration and never overlap.
func Watch(ctx context.Context, cfg *am.Config, opts WatchOptions) error {
	root := opts.Root
	if root == "" {
		root = "."
	}
	if opts.Registry == nil {
		opts.Registry = graph.NewAttributeRegistry()
	}
	var mu sync.Mutex
	rebuild := func(cfg *am.Config) error {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return nil
		}
		b, err := Run(ctx, cfg, opts.Options)
		if opts.OnBuild != nil {
			opts.OnBuild(b, err)
		}
		return err
	}
	rebuild(cfg)

	w, err := am.NewWatcher(opts.ConfigFile, WatchDirs(root, cfg.Traceability.Sources))
	if err != nil {
		return err
	}
	if opts.Debounce > 0 {
		w.SetDebounce(opts.Debounce)
	}
	w.Ignore(exportFilter(root, cfg.Traceability.Export))
	w.OnReload(rebuild)
	am.SetGlobalWatcher(w)
	w.Start()

	logger.LoggerFromContext(ctx).Infow("Watching for changes",
		logger.FieldFile, opts.ConfigFile,
		logger.FieldCount, len(cfg.Traceability.Sources))

	<-ctx.Done()
	am.SetGlobalWatcher(nil)
	return w.Stop()
}

// exportFilter keeps the build from retriggering itself through its export
func exportFilter(root, export string) func(path string) bool {
	if export == "" {
		return func(string) bool { return false }
	}
	if !filepath.IsAbs(export) {
		export = filepath.Join(root, export)
	}
	export = filepath.Clean(export)
	return func(path string) bool {
		return strings.HasPrefix(filepath.Clean(path), export)
	}
}
