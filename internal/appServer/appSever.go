package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshkeeper/config"
	repository "freshkeeper/internal/database/postgres"
	"freshkeeper/internal/service"
	"freshkeeper/internal/transport"
	"freshkeeper/pkg/mailer"
	"freshkeeper/pkg/postgres"
	"freshkeeper/pkg/queue"
	"freshkeeper/pkg/redis"
	"freshkeeper/pkg/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize email transport
	var emailSender service.Mailer
	if cfg.Email.Enabled {
		emailSender = mailer.New(&cfg.Email)
		logrus.Info("SMTP mailer initialized")
	} else {
		logrus.Warn("Email disabled, expiry alerts will be in-app only")
	}

	// Initialize task queue. The queue carries outbound emails with retry
	// and a DLQ; without Redis the dispatcher falls back to direct sends.
	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher
	var dlqHandler queue.DLQHandler

	if cfg.Redis.Addr != "" && emailSender != nil {
		queueConfig := queue.DefaultRedisQueueConfig()
		queueConfig.Addr = cfg.Redis.Addr
		queueConfig.Password = cfg.Redis.Password
		queueConfig.DB = cfg.Redis.DB

		// The DLQ handler gets its own client so admin inspection keeps
		// working while the consumer is blocked on BRPopLPush.
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
		dlq := queue.NewDefaultDLQHandler(redisClient, queueConfig.DLQ, queueConfig.MainQueue)

		rq, err := queue.NewRedisQueue(queueConfig, nil, dlq)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
		} else {
			redisQueue = rq
			dlqHandler = dlq
			taskPublisher = service.NewQueuePublisher(rq)
			logrus.Info("Redis queue initialized")
		}
	}

	// Initialize services
	itemService := service.NewItemService(itemRepo, userRepo)
	userService := service.NewUserService(userRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	expiryService := service.NewExpiryService(itemRepo, userRepo, notificationRepo, emailSender, taskPublisher)

	// Start queue consumer if queue is available
	if redisQueue != nil {
		taskHandler := queue.NewTaskHandler(emailSender, cfg.Email.Timeout)

		go func() {
			if err := redisQueue.Subscribe(context.Background(), taskHandler.HandleTask); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")
	}

	// Initialize and start scheduler
	expiryScheduler, err := scheduler.New(expiryService, cfg.Scheduler.DailyAt, cfg.Scheduler.UrgentInterval)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := expiryScheduler.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	if cfg.Scheduler.RunOnStartup {
		go func() {
			if err := expiryScheduler.TriggerManualScan(context.Background()); err != nil {
				logrus.Errorf("Startup expiry scan failed: %v", err)
			}
		}()
	}

	// Initialize handlers
	itemHandler := transport.NewItemHandler(itemService)
	userHandler := transport.NewUserHandler(userService)
	notificationHandler := transport.NewNotificationHandler(notificationService)
	adminHandler := transport.NewAdminHandler(expiryScheduler, dlqHandler)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		routes := transport.InitRoutes(itemHandler, userHandler, notificationHandler, adminHandler)
		if err := srv.Run(cfg, routes); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	expiryScheduler.Stop()

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutdown: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
