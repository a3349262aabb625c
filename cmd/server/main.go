package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"confidant/internal/config"
	"confidant/internal/handler"
	"confidant/internal/middleware"
	"confidant/internal/repository/postgres"
	postgresChat "confidant/internal/repository/postgres/chat"
	"confidant/internal/service/advisor"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.Debug {
		logFile, err := config.SetupLogFile("logs", 5)
		if err != nil {
			log.Printf("file logging disabled: %v", err)
		} else {
			defer logFile.Close()
			logOut = io.MultiWriter(os.Stdout, logFile)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	contactRepo := postgres.NewContactRepository(repoConfig)
	messageRepo := postgresChat.NewMessageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	personas, err := config.LoadPersonas(cfg.PersonaFile)
	if err != nil {
		log.Fatalf("Failed to load personas: %v", err)
	}

	providerRegistry := advisor.SetupProviders(ctx, cfg, logger)

	synchronizer := advisor.NewSynchronizer(messageRepo, txManager, logger)
	composer := advisor.NewPromptComposer(cfg.HistoryWindow, cfg.MaxPromptChars)
	advisorService := advisor.NewService(
		contactRepo,
		messageRepo,
		providerRegistry,
		synchronizer,
		composer,
		personas,
		cfg,
		logger,
	)

	contactHandler := handler.NewContactHandler(contactRepo, logger)
	conversationHandler := handler.NewConversationHandler(messageRepo, logger)
	advisorHandler := handler.NewAdvisorHandler(advisorService, logger)

	logger.Info("services initialized", "providers", providerRegistry.Names())

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Contact routes
	mux.HandleFunc("POST /api/contacts", contactHandler.CreateContact)
	mux.HandleFunc("GET /api/contacts", contactHandler.ListContacts)
	mux.HandleFunc("GET /api/contacts/{id}", contactHandler.GetContact)
	mux.HandleFunc("PUT /api/contacts/{id}", contactHandler.UpdateContact)
	mux.HandleFunc("DELETE /api/contacts/{id}", contactHandler.DeleteContact)

	// Tag routes
	mux.HandleFunc("POST /api/contacts/{id}/tags", contactHandler.AddTag)
	mux.HandleFunc("GET /api/contacts/{id}/tags", contactHandler.ListTags)
	mux.HandleFunc("POST /api/tags/{id}/confirm", contactHandler.ConfirmTag)
	mux.HandleFunc("DELETE /api/tags/{id}", contactHandler.DeleteTag)

	// Conversation routes
	mux.HandleFunc("POST /api/contacts/{id}/sessions", conversationHandler.CreateSession)
	mux.HandleFunc("GET /api/contacts/{id}/sessions/{session}/messages", conversationHandler.ListMessages)
	mux.HandleFunc("GET /api/messages/{id}", conversationHandler.GetMessage)

	// Advisor routes (SendMessage streams SSE on the response)
	mux.HandleFunc("POST /api/contacts/{id}/sessions/{session}/messages", advisorHandler.SendMessage)
	mux.HandleFunc("POST /api/contacts/{id}/sessions/{session}/analyze", advisorHandler.AnalyzeConversation)
	mux.HandleFunc("POST /api/contacts/{id}/polish", advisorHandler.PolishMessage)

	// Build middleware chain (applied in reverse order, they wrap each other)
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
