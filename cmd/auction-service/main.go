package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api/handlers"
	apimiddleware "auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/lotlock"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}
	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Configuration loaded", "config", cfg.GetConfigString())

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := utils.InitializeRedis(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer rdb.Close()

	if cfg.MySQL.AutoMigrate {
		if err := mysql.Migrate(cfg.MySQL.DSN); err != nil {
			log.Fatal("Failed to apply migrations", "error", err)
		}
		log.Info("Database migrations applied")
	}

	db, err := utils.InitializeMysql(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to MySQL", "error", err)
	}
	defer db.Close()

	clk := clock.NewSystem()

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	userRepo := mysql.NewMySQLUserRepository(db)
	schedulerRepo := mysql.NewMySQLSchedulerRepository(db)

	// Redis services
	eventPublisher := redis.NewEventPublisher(rdb, cfg.Redis.Channel)
	snapshots := redis.NewRedisLotSnapshotCache(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.Key, cfg.Leader.TTL)

	var otpStore domain.OTPStore
	switch cfg.Verification.Store {
	case "memory":
		otpStore = memory.NewOTPStore(cfg.Verification.CacheSize, clk)
	default:
		otpStore = redis.NewRedisOTPStore(rdb)
	}

	// Core services
	ledger := services.NewBidLedger(bidRepo, clk)
	engine := services.NewBiddingEngine(auctionRepo, userRepo, ledger, lotlock.NewPool(), clk,
		eventPublisher, snapshots, log)

	auctionManager := services.NewAuctionManager(
		auctionRepo,
		userRepo,
		engine,
		eventPublisher,
		leaderElection,
		clk,
		cfg.Instance.ID,
		log,
	)
	scheduler := services.NewCronAuctionScheduler(schedulerRepo, auctionManager, clk, cfg.Scheduler.Spec, log)
	auctionManager.SetScheduler(scheduler)

	verification := services.NewVerificationService(otpStore, services.NewLogOTPSender(log),
		cfg.Verification.OTPTTL, log)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = apimiddleware.NewCustomValidator(validator.New())
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(apimiddleware.CORS(nil))
	e.Use(apimiddleware.RequestLogger(log))

	handlers.RegisterRoutes(e, handlers.Handlers{
		Auctions:     handlers.NewAuctionHandler(auctionManager, clk, log),
		Lots:         handlers.NewLotHandler(auctionManager, log),
		Bids:         handlers.NewBidHandler(engine, ledger, auctionManager, log),
		Verification: handlers.NewVerificationHandler(verification, log),
	}, tokens)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-service",
			"timestamp": clk.Now().Format(time.RFC3339),
			"instance":  cfg.Instance.ID,
		})
	})

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := scheduler.Start(runCtx); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}

	go campaignForLeadership(runCtx, leaderElection, cfg.Instance.ID, log)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting auction service", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")
	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction service stopped")
}

// campaignForLeadership retries the election until ctx is done so another
// instance takes over the scheduler when the leader goes away.
func campaignForLeadership(ctx context.Context, election domain.LeaderElection, instanceID string, log logger.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	leading := false
	for {
		became, err := election.BecomeLeader(ctx, instanceID)
		switch {
		case err != nil:
			log.Error("Failed to attempt leadership", "error", err)
		case became && !leading:
			log.Info("Became auction leader", "instance_id", instanceID)
		case !became && leading:
			log.Warn("Lost auction leadership", "instance_id", instanceID)
		}
		leading = err == nil && became

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
