package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/haasonsaas/chaingate/internal/chain"
	"github.com/haasonsaas/chaingate/internal/config"
	"github.com/haasonsaas/chaingate/internal/gateway"
	"github.com/haasonsaas/chaingate/internal/observability"
	"github.com/haasonsaas/chaingate/internal/peer"
	"github.com/haasonsaas/chaingate/internal/storage"
)

// runServe wires configuration, store, repositories, and the HTTP server,
// then blocks until a shutdown signal.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	metrics := observability.NewMetrics(nil)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Connect(ctx, cfg.DB.URL, cfg.DB.Name, cfg.DB.Timeout.Std(), storage.PageLimits{
		Min: cfg.DB.PageSizeMin,
		Max: cfg.DB.PageSizeMax,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn(ctx, "store close error", "error", err)
		}
	}()
	logger.Info(ctx, "connected to store", "db", cfg.DB.Name)

	chainRepo := chain.NewChain(store)
	namespaces := chain.NewNamespaces(store)

	server, err := gateway.NewServer(gateway.Deps{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Chain:        chainRepo,
		Blocks:       chain.NewBlocks(store, chainRepo),
		Transactions: chain.NewTransactions(store, chainRepo, namespaces),
		Mosaics:      chain.NewMosaics(store),
		Namespaces:   namespaces,
		Accounts:     chain.NewAccounts(store, namespaces),
		Peer:         peer.NewClient(cfg.Peer.Host, cfg.Peer.Port, cfg.Peer.Timeout.Std()),
	})
	if err != nil {
		return err
	}

	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	server.Stop(context.Background())
	return nil
}
