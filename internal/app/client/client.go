// Package client wires the satellite role: no database of its own,
// reads from the replicated cache, writes forwarded to the server.
// The local HTTP surface binds loopback for the desktop UI.
package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"folha/internal/platform/config"
	"folha/internal/platform/logging"
	"folha/internal/sync"
	synchandler "folha/internal/transport/http/handlers/sync"
	"folha/internal/transport/http/middleware"
)

func Run(cfg config.Config) error {
	log := logging.New("client", cfg.Environment)
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	remote := sync.NewRemote(cfg.ServerURL, cfg.SyncToken, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sync.Ping(ctx, http.DefaultClient, cfg.ServerURL) {
		log.Info().Str("server", cfg.ServerURL).Msg("server reachable")
	} else {
		log.Warn().Str("server", cfg.ServerURL).Msg("server unreachable, starting offline")
	}
	go remote.Run(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"online": remote.Online(),
			"server": cfg.ServerURL,
		})
	})

	router.Route("/api/v1", func(r chi.Router) {
		synchandler.NewHandler(remote, remote.Subscribe, log).RegisterRoutes(r)
	})

	log.Info().Str("addr", cfg.Addr).Msg("payroll client listening")
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     router,
		ReadTimeout: cfg.ReadTimeout,
	}
	return srv.ListenAndServe()
}
