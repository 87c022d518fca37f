package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/internal/config"
	"github.com/amonks/prereq/internal/editor"
	"github.com/amonks/prereq/internal/logging"
	"github.com/amonks/prereq/internal/paths"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/amonks/prereq/prefs"
	"go.uber.org/zap"
)

// app holds everything a command needs: the item store, the preference
// backend and the engine wired over both.
type app struct {
	cfg    *config.Config
	items  *item.Store
	prefs  prefs.Backend
	engine *dependency.Engine
	logger *zap.Logger
}

// openApp loads configuration for the current directory and opens the
// stores it names.
func openApp() (*app, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, os.Stderr)
	if err != nil {
		return nil, err
	}

	items, err := item.Open(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}
	backend, err := prefs.Open(cfg.Prefs.Backend, cfg.Prefs.Path)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	engine := dependency.New(items, backend, dependency.Options{
		Scheme: cfg.Links.Scheme,
		Setup:  &editor.TagSetup{Tags: items},
		Logger: logger,
	})

	logger.Debug("opened store",
		zap.String("dir", cfg.Store.Dir),
		zap.String("prefs", cfg.Prefs.Backend),
		zap.String("prefs_path", cfg.Prefs.Path))

	return &app{
		cfg:    cfg,
		items:  items,
		prefs:  backend,
		engine: engine,
		logger: logger,
	}, nil
}

// Close releases the preference backend.
func (a *app) Close() error {
	_ = a.logger.Sync()
	return a.prefs.Close()
}

// highlighter returns an ID highlighter for every item in the store.
func (a *app) highlighter() (func(string) string, error) {
	index, err := a.items.IDIndex()
	if err != nil {
		return nil, err
	}
	return ui.Highlighter(index.PrefixLengths()), nil
}

// resolveItemIDs expands ID prefixes to full item IDs.
func (a *app) resolveItemIDs(prefixes []string) ([]string, error) {
	resolved := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		id, err := a.items.ResolveItemID(prefix)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

func (a *app) resolveItemID(prefix string) (string, error) {
	ids, err := a.resolveItemIDs([]string{prefix})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// tagNames maps tag IDs to names.
func (a *app) tagNames() (map[string]string, error) {
	tags, err := a.items.Tags()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, tag := range tags {
		names[tag.ID] = tag.Name
	}
	return names, nil
}

// itemName returns the name of id, or a placeholder when it is gone.
func (a *app) itemName(id string) string {
	it, err := a.items.Item(id)
	if errors.Is(err, item.ErrItemNotFound) {
		return "(deleted)"
	}
	if err != nil {
		return "?"
	}
	return it.Name
}

// withApp opens the app, runs fn and closes the app.
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
