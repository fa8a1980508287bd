package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"salgados/internal/audit"
	"salgados/internal/cache"
	"salgados/internal/config"
	"salgados/internal/db"
	"salgados/internal/identity"
	"salgados/internal/kafka"
	"salgados/internal/metrics"
	"salgados/internal/rabbitmq"
	"salgados/internal/repository"
	"salgados/internal/server"
	"salgados/internal/service"
	"salgados/internal/telegram"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Error opening %s store: %v", cfg.StoreDriver, err)
	}
	defer handle.Close()

	repos := repository.New(handle.Store, cfg.StrictVersions)
	if err := identity.Seed(ctx, repos.Admins, repos.Users, time.Now().UTC()); err != nil {
		log.Fatalf("Error seeding accounts: %v", err)
	}

	processors, closers := auditProcessors(cfg, handle)
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	pool := audit.NewPool(audit.PoolConfig{
		BatchSize:   cfg.AuditBatchSize,
		Timeout:     cfg.AuditTimeout,
		ChannelSize: cfg.AuditChannelSize,
	}, processors...)
	poolCtx, poolCancel := context.WithCancel(context.Background())
	pool.Start(poolCtx, cfg.AuditWorkers)
	defer pool.Shutdown(poolCancel)

	rec := metrics.NewRecorder()
	svc := service.New(repos, service.WithAudit(pool), service.WithMetrics(rec))
	active := cache.NewActiveOrders()
	if err := active.Refresh(ctx, repos.Orders); err != nil {
		log.Printf("Error loading active orders: %v", err)
	}
	srv := server.NewServer(svc, rec, pool, cfg.Addr()).WithActiveOrders(active)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		active.StartAutoRefresh(gctx, repos.Orders, 5*time.Second)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return runHealth(gctx, cfg.GRPCAddr())
	})
	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server stopped: %v", err)
	}
	log.Printf("Shutting down, %d audit records dropped", pool.Dropped())
}

// auditProcessors builds the sinks enabled by cfg. The log sink is always on.
func auditProcessors(cfg *config.Config, handle *db.Handle) ([]audit.Processor, []func()) {
	processors := []audit.Processor{&audit.LogProcessor{Filter: cfg.FilterWord}}
	var closers []func()

	if handle.SQL != nil {
		processors = append(processors, audit.NewSQLProcessor(handle.SQL, handle.Driver))
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Printf("Kafka disabled: %v", err)
		} else {
			processors = append(processors, kafka.NewAuditProcessor(producer, cfg.KafkaTopic))
			closers = append(closers, func() { _ = producer.Close() })
		}
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Printf("RabbitMQ disabled: %v", err)
		} else {
			processors = append(processors, publisher)
			closers = append(closers, publisher.Close)
		}
	}
	if cfg.TelegramToken != "" {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram disabled: %v", err)
		} else {
			processors = append(processors, notifier)
		}
	}
	return processors, closers
}

func runHealth(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		gs.GracefulStop()
	}()
	log.Printf("gRPC health listening on %s", addr)
	return gs.Serve(lis)
}
