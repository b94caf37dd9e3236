package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	config "github.com/zapeame/nostr-market/internal/cfg"
	v1Http "github.com/zapeame/nostr-market/internal/delivery/v1/http"
	"github.com/zapeame/nostr-market/internal/infrastructure/kafka"
	"github.com/zapeame/nostr-market/internal/infrastructure/signer"
	"github.com/zapeame/nostr-market/internal/repository/redis"
	"github.com/zapeame/nostr-market/internal/repository/relay"
	"github.com/zapeame/nostr-market/internal/usecase"
	"github.com/zapeame/nostr-market/pkg/clients"
	"github.com/zapeame/nostr-market/pkg/closer"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// App собирает зависимости сервиса: пул реле, подписант, кэш,
// фид и HTTP-сервер. Redis и Kafka опциональны и включаются конфигурацией.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	httpSrv *v1Http.Server
	closer  *closer.Closer
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	c := closer.NewCloser(2 * time.Second)

	pool := relay.NewPool(cfg.Relay, relay.NostrDial, log)
	c.Add(pool.Close)

	listingRepo := relay.NewListingRepo(pool, log)

	cacheRepo, err := initCache(cfg, log, c)
	if err != nil {
		return nil, err
	}

	feed, err := initFeed(cfg, log, c)
	if err != nil {
		return nil, err
	}

	var sgn usecase.Signer
	if cfg.Signer.Addr != "" {
		sgn = signer.NewRemote(cfg.Signer, log)
	} else {
		log.Warnf("SIGNER_ADDR is not set, publishing and follows are disabled")
		sgn = signer.NewDisabled()
	}

	marketUC := usecase.NewMarketUC(listingRepo, cacheRepo, sgn, feed, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(marketUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	c.Add(httpSrv.Stop)

	return &App{
		cfg:     cfg,
		logger:  log,
		httpSrv: httpSrv,
		closer:  c,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до сигнала остановки
// или фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("Shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof("Application shutdown complete")
	}

	return appErr
}

// initCache подключает Redis-кэш, если он сконфигурирован,
// иначе возвращает заглушку без кэширования.
func initCache(cfg *config.Config, log logger.Logger, c *closer.Closer) (usecase.CacheRepository, error) {
	if cfg.Redis == nil {
		log.Infof("REDIS_ADDR is not set, caching is disabled")
		return redis.NewNoopCache(), nil
	}

	redisClient := clients.NewRedisClient(cfg.Redis)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, err
	}

	c.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})

	return redis.NewCacheRepo(redisClient, cfg.Redis, log), nil
}

// initFeed инициализирует Kafka-продюсер фида, если он сконфигурирован.
// Отсутствующий фид — штатный режим, usecase переживает nil.
func initFeed(cfg *config.Config, log logger.Logger, c *closer.Closer) (usecase.FeedProducer, error) {
	if cfg.Kafka == nil {
		log.Infof("KAFKA_BROKERS is not set, listing feed is disabled")
		return nil, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Errorf(err, "failed to initialize kafka producer")
		return nil, err
	}

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Errorf(err, "failed to initialize kafka topic")
		return nil, err
	}

	c.Add(func(_ context.Context) error {
		return producer.Close()
	})

	return producer, nil
}
