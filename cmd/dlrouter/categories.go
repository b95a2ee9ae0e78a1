package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dlrouter/internal/category"
	"dlrouter/internal/logging"
	"dlrouter/internal/pending"
	"dlrouter/internal/router"
	"dlrouter/internal/settings"
)

// categoriesRouter builds a router wired only for settings work; the
// commands below go through the same message surface the front ends use.
func categoriesRouter(cfgPath, logLevel string, jsonOut bool) (*router.Router, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(logLevel, jsonOut)
	store := settings.NewFileStore(cfg.General.SettingsPath, log)
	return router.New(store, nil, pending.NewRegistry(nil), log, nil), nil
}

func handleCategories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("categories requires a subcommand: list | add | rm")
	}
	sub := args[0]
	fs := flag.NewFlagSet("categories "+sub, flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	logLevel := fs.String("log-level", "warn", "log level")
	jsonOut := fs.Bool("json", false, "json logs")
	filter := fs.String("filter", "", "fuzzy filter for list")
	name := fs.String("name", "", "category name (add)")
	folder := fs.String("folder", "", "destination folder (add)")
	exts := fs.String("ext", "", "comma-separated extensions (add)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	rt, err := categoriesRouter(*cfgPath, *logLevel, *jsonOut)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		resp := rt.HandleMessage(ctx, router.Request{Action: "getSettings"})
		if !resp.OK {
			return errors.New(resp.Error)
		}
		cats := category.Filter(*filter, resp.Settings.Categories)
		if len(cats) == 0 {
			fmt.Println("no categories")
			return nil
		}
		for i, c := range cats {
			fmt.Printf("%2d. %-20s %-20s %s  [%s]\n", i+1, c.Name, c.Folder, strings.Join(c.Extensions, " "), c.ID)
		}
		fmt.Printf("default folder: %s\n", resp.Settings.DefaultFolder)
		return nil

	case "add":
		if *name == "" || *folder == "" {
			return errors.New("categories add requires --name and --folder")
		}
		resp := rt.HandleMessage(ctx, router.Request{Action: "saveCategory", Category: &settings.Category{
			ID:         uuid.NewString(),
			Name:       *name,
			Folder:     *folder,
			Extensions: settings.ParseExtensions(*exts),
		}})
		if !resp.OK {
			return errors.New(resp.Error)
		}
		fmt.Println("category added")
		return nil

	case "rm":
		if fs.NArg() != 1 {
			return errors.New("categories rm requires a category id")
		}
		resp := rt.HandleMessage(ctx, router.Request{Action: "deleteCategory", CategoryID: fs.Arg(0)})
		if !resp.OK {
			return errors.New(resp.Error)
		}
		fmt.Println("category removed")
		return nil

	default:
		return fmt.Errorf("unknown categories subcommand: %s", sub)
	}
}
