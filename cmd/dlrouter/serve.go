package main

import (
	"context"
	"flag"
	"time"

	"dlrouter/internal/api"
	"dlrouter/internal/engine"
	"dlrouter/internal/logging"
	"dlrouter/internal/metrics"
	"dlrouter/internal/pending"
	"dlrouter/internal/router"
	"dlrouter/internal/settings"
	"dlrouter/internal/state"
)

// logNotifier stands in for an interactive selector in daemon mode: the
// front end that posted the request is expected to present the choice and
// answer over the message surface.
type logNotifier struct{ log *logging.Logger }

func (n logNotifier) Present(requestID, filename string) {
	n.log.Infof("selection %s awaiting choice for %q", requestID, filename)
}

func handleServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	logLevel := fs.String("log-level", "info", "log level")
	jsonOut := fs.Bool("json", false, "json logs")
	listen := fs.String("listen", "", "override server.listen from config")
	if err := fs.Parse(args); err != nil {
		return err
	}
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

	met := metrics.New(cfg)
	eng := engine.New(cfg, log, st)
	store := settings.NewFileStore(cfg.General.SettingsPath, log)
	reg := pending.NewRegistry(nil)
	rt := router.New(store, eng, reg, log, met)
	rt.SetSelector(logNotifier{log: log})

	srv := api.New(rt, log, store.Load())
	rt.SetChangeHook(srv.UpdateMenu)

	addr := cfg.Server.Listen
	if *listen != "" {
		addr = *listen
	}
	if addr == "" {
		addr = "127.0.0.1:8632"
	}

	// Expiry sweep and metrics flush run on a minute tick.
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				rt.Sweep(now)
				if err := met.Write(); err != nil {
					log.Warnf("metrics write failed: %v", err)
				}
			}
		}
	}()

	log.Infof("dlrouter %s listening on %s", version, addr)
	return srv.ListenAndServe(ctx, addr)
}
