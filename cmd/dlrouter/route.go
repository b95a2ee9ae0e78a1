package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"dlrouter/internal/engine"
	"dlrouter/internal/logging"
	"dlrouter/internal/pending"
	"dlrouter/internal/router"
	"dlrouter/internal/selector"
	"dlrouter/internal/settings"
	"dlrouter/internal/state"
)

func handleRoute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	logLevel := fs.String("log-level", "info", "log level")
	jsonOut := fs.Bool("json", false, "json logs")
	categoryID := fs.String("category", "", "route into this category id")
	useDefault := fs.Bool("default", false, "route into the default folder")
	choose := fs.Bool("choose", false, "pick the category interactively")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("route requires exactly one URL argument")
	}
	url := fs.Arg(0)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := logging.New(*logLevel, *jsonOut)

	st, err := state.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New(cfg, log, st)
	store := settings.NewFileStore(cfg.General.SettingsPath, log)
	rt := router.New(store, eng, pending.NewRegistry(nil), log, nil)

	var handle string
	switch {
	case *categoryID != "":
		handle, err = rt.DownloadWithCategoryID(ctx, url, *categoryID)
	case *useDefault:
		handle, err = rt.DownloadToDefault(ctx, url)
	case *choose:
		handle, err = routeInteractive(ctx, rt, store, url)
	default:
		return errors.New("route requires one of --category, --default, --choose")
	}
	if err != nil {
		return err
	}

	dest, err := eng.Wait(handle)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded: %s\nDest: %s\n", logging.SanitizeURL(url), dest)
	return nil
}

func routeInteractive(ctx context.Context, rt *router.Router, store settings.Store, url string) (string, error) {
	id := rt.RequestSelection(url, "")
	sel, found := rt.GetSelection(id)
	if !found {
		return "", errors.New("selection vanished")
	}
	choice, err := selector.Run(id, sel.Filename, store.Load())
	if err != nil {
		rt.CancelSelection(id)
		return "", err
	}
	if choice.Cancelled {
		rt.CancelSelection(id)
		return "", errors.New("cancelled")
	}
	return rt.ResolveSelection(ctx, id, choice.CategoryID)
}
