package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kaiwa-app/kaiwa/internal/catalog"
	"github.com/kaiwa-app/kaiwa/internal/config"
	"github.com/kaiwa-app/kaiwa/internal/engine"
	"github.com/kaiwa-app/kaiwa/internal/hub"
	"github.com/kaiwa-app/kaiwa/internal/service"
	"github.com/kaiwa-app/kaiwa/internal/store"
	"github.com/kaiwa-app/kaiwa/internal/transport/httpapi"
	"github.com/kaiwa-app/kaiwa/internal/transport/ws"
	"github.com/kaiwa-app/kaiwa/internal/voice"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting kaiwa server...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Conversation model: %s", cfg.ConversationModel)

	if cfg.OpenAIAPIKey == "" {
		log.Printf("Warning: OPENAI_API_KEY is not set, voice turns will fail")
	}

	// Initialize the scenario catalog (static, read-only)
	cat := catalog.Builtin()
	log.Printf("Loaded %d scenarios", cat.Len())

	// Initialize the session store
	sessions := store.New()

	// Initialize the voice provider
	provider := voice.NewOpenAIProvider(voice.OpenAIConfig{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		ConversationModel:  cfg.ConversationModel,
		TranscriptionModel: cfg.TranscriptionModel,
		SpeechModel:        cfg.SpeechModel,
		ReplyVoice:         cfg.ReplyVoice,
		ReplyFormat:        cfg.ReplyFormat,
	})

	// Initialize the engine, hub and gateway service
	eng := engine.New(provider)
	watchHub := hub.New()
	svc := service.New(cat, sessions, eng, watchHub)

	// Create the echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Register routes
	httpapi.NewHandler(svc, cfg.MaxAudioBytes, cfg.ProviderTimeout).RegisterRoutes(e)
	ws.NewServer(svc, watchHub).RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down kaiwa server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Server stopped")
}
