// Command atelierd runs the compliance engine daemon: the periodic scan,
// the reminder task runner, and the HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"atelier/internal/config"
	"atelier/internal/daemon"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/metrics"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, logger, metrics.New())
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("atelierd shutting down")
}
