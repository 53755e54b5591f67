package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	ordersapi "github.com/BearBump/CarTrace/internal/api/orders_api"
	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/ratelimit"
	"github.com/BearBump/CarTrace/internal/services/orders"
)

type carTraceAPIOpts struct {
	httpAddr   string
	adminToken string
	limits     ordersapi.Limits

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runCarTraceAPI(ctx context.Context, opts carTraceAPIOpts, svc *orders.Service, limiter ratelimit.Limiter, consumer kafkaConsumer) error {
	api := ordersapi.New(svc, limiter, opts.limits, opts.adminToken)

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}

	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: api.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		_ = consumer.Consume(ctx, func(_key, value []byte) error {
			var m messages.OrderUpdated
			if err := json.Unmarshal(value, &m); err != nil {
				return err
			}
			return svc.ApplyOrderUpdated(ctx, m)
		})
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
