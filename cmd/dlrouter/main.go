package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"dlrouter/internal/config"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}
	switch args[0] {
	case "serve":
		return handleServe(ctx, args[1:])
	case "route":
		return handleRoute(ctx, args[1:])
	case "categories":
		return handleCategories(ctx, args[1:])
	case "status":
		return handleStatus(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`dlrouter - extension-based download router

Usage:
  dlrouter <command> [flags]

Commands:
  serve             Run the routing daemon (observation feed + message API)
  route             Route a URL: --category ID | --default | --choose
  categories        Manage routing categories (list/add/rm)
  status            Show download history (table or JSON)
  config validate   Validate a YAML config file
  config print      Print the loaded config as JSON
  version           Print version
  help              Show this help

Flags:
  --config PATH     Path to YAML config file (or DLROUTER_CONFIG env var; default: ~/.config/dlrouter/config.yml)
  --log-level L     Log level: debug|info|warn|error (per command)
  --json            JSON log output (per command)
`))
}

func defaultConfigPath() string {
	if env := os.Getenv("DLROUTER_CONFIG"); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "dlrouter", "config.yml")
	}
	return ""
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config requires a subcommand: validate | print")
	}
	sub := args[0]
	fs := flag.NewFlagSet("config "+sub, flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	c, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	switch sub {
	case "validate":
		fmt.Println("config OK")
		return nil
	case "print":
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}
