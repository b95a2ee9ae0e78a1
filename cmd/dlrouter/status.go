package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"dlrouter/internal/logging"
	"dlrouter/internal/state"
)

func handleStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	jsonOut := fs.Bool("json", false, "print history as JSON")
	onlyErrors := fs.Bool("only-errors", false, "show only failed downloads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	st, err := state.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.ListDownloads()
	if err != nil {
		return err
	}
	if *onlyErrors {
		kept := rows[:0]
		for _, r := range rows {
			if r.Status == state.StatusError {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	if *jsonOut {
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	if len(rows) == 0 {
		fmt.Println("no downloads")
		return nil
	}
	fmt.Printf("%-10s %-10s %-12s %-20s %s\n", "STATUS", "SIZE", "ROUTED BY", "UPDATED", "DEST")
	for _, r := range rows {
		size := ""
		if r.Size > 0 {
			size = humanize.Bytes(uint64(r.Size))
		}
		updated := time.Unix(r.UpdatedAt, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("%-10s %-10s %-12s %-20s %s\n", r.Status, size, r.RoutedBy, updated, r.Dest)
		if r.LastError != "" {
			fmt.Printf("           error: %s (%s)\n", r.LastError, logging.SanitizeURL(r.URL))
		}
	}
	return nil
}
