package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Alexus55/DrawingImposter2/archive"
	"github.com/Alexus55/DrawingImposter2/util"
	"github.com/Alexus55/DrawingImposter2/ws"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config    *util.Config
	wsManager *ws.Manager
	router    *gin.Engine
	results   archive.Archive
	handler   http.Handler
}

// NewServer wires the HTTP routes. results may be nil when no archive is
// configured.
func NewServer(config *util.Config, manager *ws.Manager, results archive.Archive) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger)

	server := &Server{
		config:    config,
		wsManager: manager,
		router:    router,
		results:   results,
	}

	router.GET("/ws", server.wsManager.ServeWS)
	router.GET("/healthz", server.Healthz)
	router.POST("/auth/username", server.TokenGenerator)
	router.GET("/auth/me", server.AuthMiddleware, server.GetTokenData)

	rooms := router.Group("/rooms", server.AuthMiddleware)
	rooms.GET("/:code", server.CheckRoom)
	rooms.GET("/:code/history", server.RoomHistory)

	server.handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	return server
}

// Handler is the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", s.config.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("listening")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
