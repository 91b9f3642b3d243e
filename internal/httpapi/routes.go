package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/playnowemulator/room-server/internal/config"
	"github.com/playnowemulator/room-server/internal/hub"
	"github.com/playnowemulator/room-server/internal/ws"
)

func SetupRoutes(h *hub.Hub, cfg config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(h))
	r.Get("/rooms", ListRooms(h))
	r.Get("/health", Health)
	r.Get("/stats", Stats(h))
	r.Get("/ws", ws.Handler(h, log))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllow,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
