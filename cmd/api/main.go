package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"Bulletin_Board/internal/config"
	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/pkg"
	"Bulletin_Board/internal/repository/rdb"
	"Bulletin_Board/internal/repository/redis"
	"Bulletin_Board/internal/router"
	"Bulletin_Board/internal/service"
	"Bulletin_Board/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.New(cfg.Server.Mode)
	logger.SetGlobalLogger(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := gormlogger.Info
	if cfg.Server.Mode == logger.ProductionMode {
		level = gormlogger.Warn
		gin.SetMode(gin.ReleaseMode)
	}
	db, err := rdb.Open(cfg.Database.Driver, cfg.Database.DSN, level)
	if err != nil {
		log.Logger.Fatal("open database", zap.Error(err))
	}
	// 自动建表
	if err := rdb.Migrate(db); err != nil {
		log.Logger.Fatal("migrate", zap.Error(err))
	}

	// 连接redis
	rdc, err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdc.Close()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		log.Logger.Fatal("init storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	sender := service.LogSender(log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkg.NewPostEventProducer(pkg.PostEventConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			log.Logger.Fatal("kafka producer", zap.Error(err))
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	issuer := pkg.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokens := redis.NewTokenRepository(rdc, issuer.AccessTTL())
	attachments := service.NewAttachmentService(db, store)

	go service.NewOutboxRelayer(db, sender, cfg.Workers.OutboxInterval, log).Run(ctx)
	go service.NewAttachmentReconciler(attachments, cfg.Workers.ReconcileInterval, log).Run(ctx)

	r := router.InitRouter(router.Deps{
		Log:               log,
		Issuer:            issuer,
		Tokens:            tokens,
		Users:             service.NewUserService(db, tokens, issuer, log),
		Posts:             service.NewPostService(db, store, log),
		Attachments:       attachments,
		PageSize:          cfg.Board.PageSize,
		CommentOwnerCheck: cfg.Board.CommentOwnerCheck,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		log.Logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error("server shutdown", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	case "minio":
		return storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return storage.NewLocalStore(cfg.UploadDir)
	}
}
