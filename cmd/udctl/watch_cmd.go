package main

import (
	"context"
	"flag"
	"time"

	"golang.org/x/sync/errgroup"

	"udctl/internal/channel"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/metrics"
)

// handleWatch runs the status channel headlessly and logs every state change.
// Useful for debugging the backend without the TUI in the way.
func handleWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	cfgPath, logLevel, jsonOut := commonFlags(fs)
	interval := fs.Duration("metrics-interval", 30*time.Second, "metrics textfile write interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath, *logLevel)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, *jsonOut)
	m := metrics.New(cfg)
	defer func() { _ = m.Write() }()

	store := jobs.NewStore()
	store.OnChange(func(kind jobs.Kind) {
		st := store.Snapshot(kind)
		log.Infof("%s: %s %3.0f%% %s", kind, st.Phase, st.Progress, st.Status)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := channel.New(cfg, store, log, m)
	defer ch.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ch.Run(ctx) })
	g.Go(func() error { return metricsLoop(ctx, m, *interval) })

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func metricsLoop(ctx context.Context, m *metrics.Manager, interval time.Duration) error {
	if m == nil || interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = m.Write()
		}
	}
}
