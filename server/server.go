package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koinoniahq/koinonia/config"
	"github.com/koinoniahq/koinonia/db"
	"github.com/koinoniahq/koinonia/realtime"
	"github.com/koinoniahq/koinonia/services"
)

type Server struct {
	Config          *config.Config
	AuthRepository  db.AuthRepository
	MessageService  services.MessageService
	GroupService    services.GroupService
	ReactionService services.ReactionService
	MediaService    services.MediaService
	Hub             *realtime.Hub
	DB              db.GormDB
}

// Start runs the HTTP server until an interrupt, then drains it.
func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("server listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("server exited")
}
