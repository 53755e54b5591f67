package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/CarTrace/config"
	"github.com/BearBump/CarTrace/internal/accessgate"
	ordersapi "github.com/BearBump/CarTrace/internal/api/orders_api"
	"github.com/BearBump/CarTrace/internal/broker/kafka"
	"github.com/BearBump/CarTrace/internal/cache/rediscache"
	"github.com/BearBump/CarTrace/internal/files"
	"github.com/BearBump/CarTrace/internal/idgen"
	"github.com/BearBump/CarTrace/internal/ratelimit"
	"github.com/BearBump/CarTrace/internal/services/orders"
	"github.com/BearBump/CarTrace/internal/storage/pgorders"
)

type carTraceAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     carTraceAPIOpts
	svc      *orders.Service
	limiter  ratelimit.Limiter
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapCarTraceAPI() *carTraceAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.CarTrace.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.CarTrace.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "cartrace-api"
	}
	topic := cfg.Kafka.OrderUpdatedTopicName
	if topic == "" {
		topic = "order.updated"
	}

	cacheTTL := time.Duration(cfg.CarTrace.CurrentOrderTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	uploadDir := cfg.CarTrace.UploadDir
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	limiter := ratelimit.NewRedisLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	gate := accessgate.New(limiter, !cfg.CarTrace.AccessCodeDisabled)
	svc := orders.New(st, idgen.New(st), gate, rc, producer, files.NewStore(uploadDir), orders.Options{
		CacheTTL:     cacheTTL,
		Topic:        topic,
		DemoTracking: cfg.CarTrace.DemoTracking,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &carTraceAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: carTraceAPIOpts{
			httpAddr:      httpAddr,
			adminToken:    cfg.CarTrace.AdminToken,
			limits:        buildLimits(cfg.CarTrace),
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		limiter:  limiter,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

// buildLimits — лимиты публичных ручек; нули в конфиге заменяются
// рабочими значениями, отключение лимита — осознанно отрицательным числом.
func buildLimits(cfg config.CarTraceConfig) ordersapi.Limits {
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	return ordersapi.Limits{
		Window:    window,
		Track:     defaultLimit(cfg.RateLimitTrack, 20),
		ChatSend:  defaultLimit(cfg.RateLimitChatSend, 15),
		Lists:     defaultLimit(cfg.RateLimitLists, 30),
		FileFetch: defaultLimit(cfg.RateLimitFileFetch, 60),
	}
}

func defaultLimit(v int, def int64) int64 {
	if v == 0 {
		return def
	}
	return int64(v)
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgorders.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgorders.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *carTraceAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *carTraceAPIApp) Run() error {
	return runCarTraceAPI(a.ctx, a.opts, a.svc, a.limiter, a.consumer)
}
