package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rickar/cal/v2"

	"github.com/godesk-io/godesk-ce/internal/api"
	"github.com/godesk-io/godesk-ce/internal/auth"
	"github.com/godesk-io/godesk-ce/internal/cache"
	"github.com/godesk-io/godesk-ce/internal/config"
	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/runner"
	"github.com/godesk-io/godesk-ce/internal/service"
	"github.com/godesk-io/godesk-ce/internal/sla"
	"github.com/godesk-io/godesk-ce/internal/ticketnumber"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	logger := log.New(os.Stdout, "[godesk] ", log.LstdFlags|log.Lmsgprefix)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}
	cfg := config.Get()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database.SetDriver(cfg.Database.Driver)
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Ticket numbers come from Redis when available, the database otherwise.
	var counters ticketnumber.CounterStore = ticketnumber.NewDBStore(db, cfg.Ticket.SystemID)
	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		counters = ticketnumber.NewRedisStore(client, cfg.Ticket.SystemID)
	}
	generator, err := ticketnumber.Resolve(cfg.Ticket.NumberGenerator, cfg.Ticket.SystemID, nil)
	if err != nil {
		logger.Fatalf("invalid ticket number generator: %v", err)
	}

	ticketRepo := repository.NewTicketRepository(db, generator, counters)
	teamRepo := repository.NewTeamRepository(db)
	userRepo := repository.NewUserRepository(db)
	policyRepo := repository.NewSLAPolicyRepository(db)
	ruleRepo := repository.NewEscalationRuleRepository(db, logger)
	execRepo := repository.NewEscalationExecutionRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	slaSvc := sla.NewService(policyRepo)
	accessSvc := service.NewAccessService(userRepo, teamRepo, nil, logger)
	ticketSvc := service.NewTicketService(ticketRepo, teamRepo, accessSvc, slaSvc, nil, logger)
	evaluator := escalation.NewEvaluator(ticketRepo, teamRepo, userRepo, feedbackRepo, execRepo, slaSvc, nil, logger)
	escalationSvc := service.NewEscalationService(ticketRepo, ruleRepo, evaluator, accessSvc, logger)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, ticketRepo, accessSvc, logger)

	var calendar *cal.BusinessCalendar
	if cfg.Escalation.CalendarFile != "" {
		calendar, err = escalation.LoadCalendarFile(cfg.Escalation.CalendarFile)
		if err != nil {
			logger.Fatalf("failed to load business calendar: %v", err)
		}
	}
	sweeper := escalation.NewSweeper(ticketRepo, ruleRepo, evaluator, calendar, logger)

	registry := runner.NewRegistry()
	registry.Register(runner.NewSweepTask(sweeper, cfg.Escalation.SweepInterval))
	tasks := runner.NewRunner(registry, logger)
	if err := tasks.Start(ctx); err != nil {
		logger.Fatalf("failed to start background tasks: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTLifetime)
	router := api.NewRouter(
		middleware.NewAuthMiddleware(jwtManager),
		api.NewTicketHandler(ticketSvc),
		api.NewEscalationHandler(escalationSvc),
		api.NewFeedbackHandler(feedbackSvc),
	)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("forced shutdown: %v", err)
	}
	tasks.Stop()
	logger.Println("stopped")
}
