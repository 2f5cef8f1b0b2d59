package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"mailreach/internal/config"
	"mailreach/internal/handler"
	"mailreach/internal/mailbox"
	"mailreach/internal/mailer"
	"mailreach/internal/middleware"
	"mailreach/internal/queue"
	"mailreach/internal/repository"
	"mailreach/internal/service"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Verify database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to database")

	// Wire repositories
	campaignRepo := repository.NewCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	logRepo := repository.NewEmailLogRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	serverRepo := repository.NewServerRepository(db)

	// Campaign events are optional: a missing broker only disables
	// push notifications, the durable counter stays authoritative
	var events service.EventSink
	var eventsState service.EventsState
	if cfg.RabbitMQ.EventsOn {
		conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
		if err != nil {
			log.Printf("⚠️  Campaign events disabled: %v", err)
		} else {
			defer conn.Close()
			publisher, err := queue.NewEventPublisher(conn, cfg.RabbitMQ.QueueName)
			if err != nil {
				log.Printf("⚠️  Campaign events disabled: %v", err)
			} else {
				events = publisher
				eventsState = publisher
				log.Printf("✅ Campaign events on queue %q", cfg.RabbitMQ.QueueName)
			}
		}
	}

	// Wire services
	sender := mailer.NewSMTPSender(cfg.Mailer.Timeout)
	templateSvc := service.NewTemplateService(templateRepo)
	campaignSvc := service.NewCampaignService(
		campaignRepo, contactRepo, templateRepo, logRepo, serverRepo,
		sender, templateSvc, events,
	)
	replySvc := service.NewReplyService(
		replyRepo, campaignRepo, templateRepo, contactRepo, logRepo, serverRepo,
		mailbox.NewIMAPMailbox(), service.SubstringMatcher{}, sender, templateSvc,
	)
	contactSvc := service.NewContactService(contactRepo)
	serverSvc := service.NewServerService(serverRepo, replyRepo)
	statsSvc := service.NewStatsService(campaignRepo, contactRepo, logRepo, replyRepo)
	healthSvc := service.NewHealthService(db, eventsState)

	// Sweep campaigns a previous process left mid-send before serving
	if _, err := campaignSvc.RecoverInterrupted(context.Background()); err != nil {
		log.Fatalf("Failed to recover interrupted campaigns: %v", err)
	}

	// Wire handlers
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	replyHandler := handler.NewReplyHandler(replySvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	serverHandler := handler.NewServerHandler(serverSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	healthHandler := handler.NewHealthHandler(healthSvc)

	// Create router
	router := mux.NewRouter()
	router.Use(middleware.Recovery)

	router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	router.HandleFunc("/stats", statsHandler.Dashboard).Methods("GET")

	router.HandleFunc("/campaigns", campaignHandler.Create).Methods("POST")
	router.HandleFunc("/campaigns", campaignHandler.List).Methods("GET")
	router.HandleFunc("/campaigns/{id}", campaignHandler.GetByID).Methods("GET")
	router.HandleFunc("/campaigns/{id}", campaignHandler.Delete).Methods("DELETE")
	router.HandleFunc("/campaigns/{id}/start", campaignHandler.Start).Methods("POST")
	router.HandleFunc("/campaigns/{id}/progress", campaignHandler.Progress).Methods("GET")
	router.HandleFunc("/campaigns/{id}/duplicate", campaignHandler.Duplicate).Methods("POST")

	router.HandleFunc("/replies/check", replyHandler.Check).Methods("POST")
	router.HandleFunc("/replies", replyHandler.List).Methods("GET")
	router.HandleFunc("/replies/{id}", replyHandler.GetByID).Methods("GET")
	router.HandleFunc("/replies/{id}/read", replyHandler.MarkRead).Methods("POST")
	router.HandleFunc("/replies/{id}/followup", replyHandler.Followup).Methods("POST")
	router.HandleFunc("/replies/{id}/resend", replyHandler.Resend).Methods("POST")

	router.HandleFunc("/templates", templateHandler.Create).Methods("POST")
	router.HandleFunc("/templates", templateHandler.List).Methods("GET")
	router.HandleFunc("/templates/preview", templateHandler.Preview).Methods("POST")
	router.HandleFunc("/templates/{id}", templateHandler.GetByID).Methods("GET")
	router.HandleFunc("/templates/{id}", templateHandler.Update).Methods("PUT")
	router.HandleFunc("/templates/{id}", templateHandler.Delete).Methods("DELETE")

	router.HandleFunc("/contacts", contactHandler.Create).Methods("POST")
	router.HandleFunc("/contacts", contactHandler.List).Methods("GET")
	router.HandleFunc("/contacts/{id}", contactHandler.GetByID).Methods("GET")
	router.HandleFunc("/contacts/{id}", contactHandler.Delete).Methods("DELETE")
	router.HandleFunc("/groups", contactHandler.CreateGroup).Methods("POST")
	router.HandleFunc("/groups", contactHandler.ListGroups).Methods("GET")
	router.HandleFunc("/groups/{id}/contacts", contactHandler.AddToGroup).Methods("POST")

	router.HandleFunc("/servers", serverHandler.Create).Methods("POST")
	router.HandleFunc("/servers", serverHandler.List).Methods("GET")
	router.HandleFunc("/servers/{id}", serverHandler.GetByID).Methods("GET")
	router.HandleFunc("/servers/{id}", serverHandler.Update).Methods("PUT")
	router.HandleFunc("/servers/{id}", serverHandler.Delete).Methods("DELETE")
	router.HandleFunc("/servers/{id}/primary", serverHandler.SetPrimary).Methods("POST")

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("🚀 API Server starting on port :%s", cfg.Server.Port)
		log.Printf("🌍 Environment: %s", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	log.Println("Server stopped")
}
