package core

import (
	"context"
	"errors"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/pages"
)

// ConfigLoader re-reads the configuration after the config file changes.
type ConfigLoader func() (*contract.Config, error)

// ExecutePageWatch renders a page, then renders it again every time the
// config file changes, until the context is cancelled. A broken config or a
// failed render is reported and the previous configuration stays in effect.
func ExecutePageWatch(ctx context.Context, cfg *contract.Config, client contract.SeriesClient, mgr contract.CacheManager, name string, reload ConfigLoader) error {
	if cfg.ConfigFile == "" {
		return errors.New("--watch requires a config file (use --config or create .statdash.yaml)")
	}

	watcher, err := pages.NewConfigWatcher(cfg.ConfigFile, pages.DefaultDebounce)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := ExecutePage(ctx, cfg, client, mgr, name); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Changes():
			next, err := reload()
			if err != nil {
				contract.LogWarn("Config reload failed", err)
				continue
			}
			cfg = next
			if err := ExecutePage(ctx, cfg, client, mgr, name); err != nil {
				contract.LogWarn("Page render failed", err)
			}
		}
	}
}
