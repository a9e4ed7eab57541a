package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avinasha18/interview-proctor/internal/config"
	"github.com/avinasha18/interview-proctor/internal/handlers"
	"github.com/avinasha18/interview-proctor/internal/jobs"
	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
	mongorepo "github.com/avinasha18/interview-proctor/internal/repositories/mongo"
	"github.com/avinasha18/interview-proctor/internal/routers"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/session"
	"github.com/avinasha18/interview-proctor/internal/storage"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

// stores are the two persistence ports plus whatever must be closed on shutdown.
type stores struct {
	interviews repositories.InterviewStore
	events     repositories.EventStore
	close      func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := mongorepo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		interviews, err := mongorepo.NewInterviewRepo(ctx, client)
		if err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		events, err := mongorepo.NewEventRepo(ctx, client)
		if err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		return &stores{interviews: interviews, events: events, close: client.Disconnect}, nil

	default:
		db, err := openGorm(cfg)
		if err != nil {
			return nil, err
		}
		closeDB := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return &stores{
			interviews: &repositories.InterviewRepository{DB: db},
			events:     &repositories.EventRepository{DB: db},
			close:      closeDB,
		}, nil
	}
}

// openGorm connects to postgres (or a sqlite file) and migrates the schema.
func openGorm(cfg *config.Config) (*gorm.DB, error) {
	dialector := postgres.Open(cfg.PostgresDSN())
	if cfg.StoreDriver == config.StoreDriverSQLite {
		dialector = sqlite.Open(cfg.SQLitePath)
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Interview{}, &models.Event{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// openVideoStore returns the recording sink and, for the local store, the
// directory the router should serve under /videos.
func openVideoStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.VideoStore, string, error) {
	if cfg.VideoStore == config.VideoStoreS3 {
		store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, logger)
		return store, "", err
	}
	dir, err := filepath.Abs(cfg.VideoDir)
	if err != nil {
		return nil, "", err
	}
	store, err := storage.NewLocalStore(dir, "/videos")
	if err != nil {
		return nil, "", err
	}
	return store, dir, nil
}

// connectRedis returns nil when pub/sub is disabled or unreachable; the
// service then runs without the finalize fan-out.
func connectRedis(ctx context.Context, addr string, logger *zap.Logger) *redis.Client {
	if addr == "" {
		logger.Info("REDIS_ADDR not set, lifecycle pub/sub disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, lifecycle pub/sub disabled", zap.String("addr", addr), zap.Error(err))
		rdb.Close()
		return nil
	}
	return rdb
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("store", cfg.StoreDriver),
		zap.String("video_store", cfg.VideoStore),
		zap.Bool("redis", cfg.RedisAddr != ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	interviewSvc := services.NewInterviewService(st.interviews, st.events, logger)

	videoStore, videoDir, err := openVideoStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize video store", zap.Error(err))
	}
	recordingSvc, err := services.NewRecordingService(interviewSvc, videoStore, cfg.RecordingTempDir, cfg.MaxChunkBytes, logger)
	if err != nil {
		logger.Fatal("Failed to initialize recording service", zap.Error(err))
	}

	rdb := connectRedis(ctx, cfg.RedisAddr, logger)
	if rdb != nil {
		interviewSvc.SetNotifier(services.NewLifecyclePublisher(rdb, logger))
		go services.NewRecordingSubscriber(rdb, recordingSvc, logger).Run(ctx, nil)
	}

	sweeper := jobs.NewRecordingSweeperJob(recordingSvc, cfg.RecordingSweepSchedule, cfg.RecordingMaxIdle, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start recording sweeper", zap.Error(err))
	}

	secret := []byte(cfg.JWTSecret)
	coord := session.NewCoordinator(interviewSvc, secret, logger)
	router := routers.New(routers.Handlers{
		Health:     handlers.NewHealthHandler(interviewSvc),
		Interviews: handlers.NewInterviewHandler(interviewSvc, coord, secret, cfg.TokenTTL, logger),
		Events:     handlers.NewEventHandler(coord, logger),
		Reports:    handlers.NewReportHandler(interviewSvc, logger),
		Recordings: handlers.NewRecordingHandler(recordingSvc, interviewSvc, cfg.MaxChunkBytes, logger),
		WS:         handlers.NewWSHandler(coord, cfg.AllowedOrigins, cfg.HeartbeatInterval, cfg.HeartbeatTimeout, logger),
	}, routers.Options{AllowedOrigins: cfg.AllowedOrigins, VideoDir: videoDir})

	serverAddr := ":" + cfg.Port
	// WriteTimeout stays unset for long-lived websocket connections
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Proctoring service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Proctoring service shutting down...")
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	cancel()
	if rdb != nil {
		rdb.Close()
	}
	if err := st.close(shutdownCtx); err != nil {
		logger.Warn("store close failed", zap.Error(err))
	}
	logger.Info("Proctoring service exited")
}
