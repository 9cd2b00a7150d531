package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"plaza-server/api"
	"plaza-server/config"
	"plaza-server/logging"
	game "plaza-server/src"
)

func main() {
	cfg := config.LoadServerConfig()
	log := logging.New(cfg.LogFile)
	defer log.Sync()

	// Room authority
	room := game.NewRoom(game.RoomConfig{
		Log:      log,
		Capacity: cfg.RoomCapacity,
	})
	go room.Run()

	ws := game.NewServer(log, room)

	r := chi.NewRouter()

	// Optional static frontend bundle (SPA fallback to index.html).
	if cfg.StaticDir != "" {
		r.Handle("/*", game.StaticFileServer(cfg.StaticDir, "/index.html"))
	}

	// Mount REST API under /api
	r.Mount("/api", api.NewAPIRouter(cfg, room))
	// Websocket endpoint for room sessions
	r.HandleFunc("/ws", ws.HandleConnections)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	log.Infof("Server started on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
}
