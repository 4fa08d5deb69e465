package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/Pleko-script/CardCrafter/internal/config"
	"github.com/Pleko-script/CardCrafter/internal/storage"
	"github.com/Pleko-script/CardCrafter/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DB, storage.WithLocation(cfg.Location))
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "path", cfg.DB)

	server := web.NewServer(store, cfg.ReposDir)
	slog.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
