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

	"github.com/SkillSyncApp/SkillSyncServer/config"
	"github.com/SkillSyncApp/SkillSyncServer/db"
	"github.com/SkillSyncApp/SkillSyncServer/realtime"
	"github.com/SkillSyncApp/SkillSyncServer/services"
)

// Server wires the HTTP surface and the realtime gateway over the chat
// service.
type Server struct {
	Config         *config.Config
	ChatService    services.ChatService
	UserRepository db.UserRepository
	Hub            *realtime.Hub
}

// Start runs the HTTP server until interrupted, then drains connections.
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
		log.Printf("Server started on port %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	s.Hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
