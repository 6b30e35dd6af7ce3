package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calldrip/internal/config"
	"calldrip/internal/infra/database"
	"calldrip/internal/infra/dedup"
	"calldrip/internal/infra/http/handlers"
	"calldrip/internal/infra/http/middleware"
	"calldrip/internal/infra/integration/ultravox"
	"calldrip/internal/infra/mail"
	"calldrip/internal/infra/queue"
	"calldrip/internal/infra/worker"
	"calldrip/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ database: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.Rabbit.User, cfg.Rabbit.Pass, cfg.Rabbit.Host, cfg.Rabbit.Port)
	if err != nil {
		log.Fatalf("❌ rabbitmq: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Repositories and stores
	userRepo := database.NewUserRepository(db)
	prospectRepo := database.NewProspectRepository(db)
	conversationRepo := database.NewConversationRepository(db)
	outcomeStore := database.NewOutcomeStore(db)
	workerStore := database.NewWorkerStore(userRepo, prospectRepo, conversationRepo)

	dedupStore := dedup.NewRedisStore(cfg.Redis.Addr)
	if err := dedupStore.Ping(ctx); err != nil {
		log.Printf("⚠️ redis unreachable, event dedup degraded to DB guard only: %v", err)
	}

	// 2. Integrations
	caller := ultravox.NewClient(cfg.Caller.APIKey, cfg.Caller.APIURL, cfg.Caller.FromNumber)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	var notifier usecase.AppointmentNotifierInterface
	if cfg.Mail.Host != "" {
		notifier = mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Pass)
	}

	// 3. Call executor (consumes the queue and dials out)
	callWorker := queue.NewWorker(rabbitMQ.Ch, caller, workerStore, cfg.ServiceURL)
	go func() {
		if err := callWorker.Start(ctx, queue.QueueName); err != nil && ctx.Err() == nil {
			log.Printf("❌ call worker stopped: %v", err)
		}
	}()

	// 4. Scheduling engine
	filter := usecase.NewEligibilityFilter(cfg.Sched.HardCap)
	prioritizer := usecase.NewPrioritizer(prospectRepo)
	distributor := usecase.NewDistributor()
	orchestrator := usecase.NewBatchOrchestrator(
		userRepo, filter, prioritizer, distributor, producer,
		cfg.Sched.BatchSize, cfg.Sched.RunDeadline,
	)
	go worker.NewSchedulerWorker(orchestrator, cfg.Sched.Interval).Start(ctx)

	// 5. Outcome processing
	processor := usecase.NewOutcomeProcessor(outcomeStore, dedupStore, notifier)
	webhookHandler := handlers.NewWebhookHandler(processor)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/webhooks/outcome", webhookHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down service")
		srv.Shutdown(context.Background())
	}()

	log.Printf("🔥 Calldrip engine running on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("❌ server: %v", err)
		os.Exit(1)
	}
}
