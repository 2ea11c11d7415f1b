package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	nats "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/cozydenis/auth-lab/config"
	httpadapter "github.com/cozydenis/auth-lab/internal/adapters/http"
	apiv1 "github.com/cozydenis/auth-lab/internal/adapters/http/api/v1"
	handlers "github.com/cozydenis/auth-lab/internal/adapters/http/api/v1/handlers"
	sessionmw "github.com/cozydenis/auth-lab/internal/adapters/http/middleware"
	natsadapter "github.com/cozydenis/auth-lab/internal/adapters/nats"
	oauthadapter "github.com/cozydenis/auth-lab/internal/adapters/oauth"
	repo "github.com/cozydenis/auth-lab/internal/adapters/postgres"
	redisstore "github.com/cozydenis/auth-lab/internal/adapters/redis"
	"github.com/cozydenis/auth-lab/internal/domain"
	"github.com/cozydenis/auth-lab/internal/usecase"
	pkglog "github.com/cozydenis/auth-lab/pkg/log"
)

type App struct {
	cfg      *config.Config
	logger   pkglog.Logger
	db       *gorm.DB
	rdb      *redis.Client
	natsConn *nats.Conn
	echo     *echo.Echo
}

func New(ctx context.Context) (*App, error) {
	cfg := config.MustLoad()
	logr := pkglog.New(cfg.AppEnv, cfg.AppName)

	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		Logger:         loggerForGorm(cfg),
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Principal{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Printf("nats connect failed: %v", err)
	}

	principals := repo.NewPrincipalRepository(db)
	sessionStore := redisstore.NewSessionStore(rdb)

	var events natsadapter.EventPublisher
	if nc != nil {
		events = natsadapter.NewEventPublisher(nc, cfg.NATSPrincipalCreatedSub)
	}

	hasher := usecase.NewHasher(usecase.ParamsFromConfig(cfg))
	identity := usecase.NewIdentityService(principals, hasher, events, logr)
	sessions := usecase.NewSessionManager(sessionStore, principals, cfg.SessionTTL, time.Now, logr)
	provider := oauthadapter.NewProvider(cfg)

	authHandler := handlers.NewAuthHandler(identity, sessions, provider, cfg, logr)
	principalHandler := handlers.NewPrincipalHandler(identity, logr)
	sessionMW := sessionmw.NewSessionMiddleware(sessions, cfg.SessionCookieName)
	router := httpadapter.NewRouter(cfg, apiv1.NewRouter(authHandler, principalHandler, sessionMW))

	if nc != nil {
		verifyHandler := natsadapter.NewVerifyHandler(sessions)
		_ = verifyHandler.Subscribe(nc, cfg.NATSVerifySubject, cfg.AppName)
	}

	e := echo.New()
	router.Setup(e)

	return &App{cfg: cfg, logger: logr, db: db, rdb: rdb, natsConn: nc, echo: e}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.echo.Shutdown(shutdownCtx)
	}()
	go func() {
		errCh <- a.echo.Start(fmt.Sprintf("%s:%s", a.cfg.HTTPHost, a.cfg.HTTPPort))
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

func loggerForGorm(cfg *config.Config) logger.Interface {
	level := logger.Silent
	switch cfg.AppEnv {
	case "local":
		level = logger.Info
	default:
		level = logger.Warn
	}
	return logger.Default.LogMode(level)
}
