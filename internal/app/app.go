package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fxhub/internal/adapters"
	"fxhub/internal/adapters/cache"
	"fxhub/internal/adapters/filestore"
	"fxhub/internal/adapters/httpclient"
	"fxhub/internal/adapters/kafka"
	"fxhub/internal/adapters/redislock"
	"fxhub/internal/api"
	"fxhub/internal/config"
	"fxhub/internal/domain"
	httpserver "fxhub/internal/platform/http"
	redisclient "fxhub/internal/platform/redis"
	"fxhub/internal/rate"
	ratehandler "fxhub/internal/rate/handler"
	"fxhub/internal/trade"
	tradehandler "fxhub/internal/trade/handler"

	"github.com/sirupsen/logrus"
)

const configPath = "config.yaml"

// Run wires the application components, starts HTTP server and scheduler
func Run() error {
	appCfg, err := config.Init(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(appCfg.Logging)
	logger.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	base := appCfg.Rates.BaseCurrency
	ttl := time.Duration(appCfg.Rates.TTLSeconds) * time.Second

	// CoinGecko first so that ExchangeRate-API wins on overlapping pairs
	sources := []adapters.RateSource{
		httpclient.NewCoinGeckoSource(baseHTTPClient, appCfg.CoinGecko.BaseURL, appCfg.CoinGecko.APIKey,
			base, appCfg.Rates.Crypto, appCfg.Rates.CryptoIDs),
		httpclient.NewExchangeRateSource(baseHTTPClient, appCfg.ExchangeRateAPI.BaseURL, appCfg.ExchangeRateAPI.APIKey,
			base, appCfg.Rates.Fiat),
	}

	store, err := filestore.New(appCfg.Storage.RatesFile, appCfg.Storage.HistoryFile)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare rate storage")
		return err
	}

	snapshotCache, err := cache.NewSnapshotCache(appCfg.Cache.MaxItems, time.Duration(appCfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		logger.WithError(err).Error("Failed to create snapshot cache")
		return err
	}
	defer snapshotCache.Close()

	opts := []rate.AggregatorOption{
		rate.WithSnapshotCache(snapshotCache),
		rate.WithFetchTimeout(httpTimeout),
	}

	if appCfg.Redis.Addr != "" {
		startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		redisClient, redisErr := redisclient.CreateClientAndPing(startupCtx, appCfg.Redis)
		cancel()
		if redisErr != nil {
			logger.WithError(redisErr).Error("Error connecting to redis")
			return redisErr
		}
		defer func() { _ = redisClient.Close() }()
		lockTTL := time.Duration(appCfg.Redis.LockTTLSec) * time.Second
		opts = append(opts, rate.WithCycleLock(redislock.New(redisClient, redislock.DefaultKey, lockTTL)))
		logger.Info("✅ Redis cycle lock enabled")
	}

	if len(appCfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewHistoryPublisher(appCfg.Kafka.Brokers, appCfg.Kafka.Topic)
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("Kafka publisher close error")
			}
		}()
		opts = append(opts, rate.WithHistoryPublisher(publisher))
		logger.WithField("topic", appCfg.Kafka.Topic).Info("✅ Kafka history publisher enabled")
	} else {
		opts = append(opts, rate.WithHistoryPublisher(kafka.NoopPublisher{}))
	}

	// Services
	registry := rate.NewRegistry(domain.DefaultCurrencies())
	aggregator := rate.NewAggregator(sources, store, logger, opts...)
	resolver := rate.NewResolver(registry, cache.NewCachedSnapshotReader(store, snapshotCache), time.Now)
	valuator := rate.NewValuator(registry, resolver, ttl, logger)

	scheduler := rate.NewScheduler(aggregator, time.Duration(appCfg.Scheduler.JobDurationSec)*time.Second, logger)
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logger.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logger.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logger.Info("✅ Scheduler activation successful")

	tradeService := trade.WithActionLog(logger,
		trade.NewService(trade.NewWalletStore(), registry, resolver, valuator, base, ttl))

	// Handlers and router
	rateHandler := ratehandler.NewRateHandler(registry, resolver, aggregator, store, ttl, logger)
	router := api.NewRouter(rateHandler, tradehandler.NewTradeHandler(tradeService, logger))

	logger.Info("Starting http server")
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router, logger); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logger.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func newLogger(cfg config.Logging) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Level); parseErr != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(parsedLvl)
	}
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
