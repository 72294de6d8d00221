// Command matchbookd runs the matching engine process: it wires the
// dispatch queue, the snapshot manager, the batching executor, the
// egress publisher and the HTTP/WebSocket façade together, then serves
// until SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natspubsub "github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/config"
	"github.com/orderflow/matchbook/internal/dispatch"
	"github.com/orderflow/matchbook/internal/egress"
	"github.com/orderflow/matchbook/internal/egress/schema"
	"github.com/orderflow/matchbook/internal/logging"
	"github.com/orderflow/matchbook/internal/metrics"
	"github.com/orderflow/matchbook/internal/snapshot"
	"github.com/orderflow/matchbook/internal/transport"
)

const (
	appName    = "matchbookd"
	appVersion = "v1.0.0"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file (YAML); empty uses built-in defaults")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", appName, appVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{EnableFileLog: cfg.EnableFileLog})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry := schema.NewRegistry()
	registry.MustRegister(egress.AllSubjects...)

	publisher, closePub, err := buildPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build egress publisher", zap.Error(err))
	}
	defer closePub()

	egressPublisher := egress.NewPublisher(publisher, registry, logger, m, egress.Config{TopicPrefix: cfg.Egress.Topic + "."})
	sink, err := egress.NewSink(cfg.Egress.WorkerPoolSize, egressPublisher, logger)
	if err != nil {
		logger.Fatal("failed to build egress sink", zap.Error(err))
	}
	defer sink.Release()

	engineID := ksuid.New().String()
	logger.Info("engine instance", zap.String("engine_id", engineID), zap.String("symbol", cfg.Symbol))
	manager := snapshot.NewManager(engineID, cfg.Symbol, cfg.OrderBook.StoreCapacity, cfg.OrderBook.QueueCapacity)
	queue := dispatch.NewQueue(cfg.Dispatch.QueueCapacity)
	executor := dispatch.NewExecutor(queue, manager, sink, logger, m, dispatch.ExecutorConfig{
		BatchSize:    cfg.Dispatch.BatchSize,
		BatchTimeout: cfg.Dispatch.BatchTimeout,
	})
	snapshotTask := snapshot.NewTask(manager, cfg.OrderBook.SnapshotInterval, logger, m)

	srv := transport.NewServer(queue, manager, logger, transport.Config{
		RateLimitPerSecond: cfg.Ingress.RateLimitPerSecond,
		RateLimitBurst:     cfg.Ingress.RateLimitBurst,
		QuoteCadence:       time.Second,
		MaxQuoteCount:      cfg.RFQ.MaxCount,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", srv.Router())

	httpServer := &http.Server{
		Addr:    cfg.SocketAddress,
		Handler: mux,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go executor.Run(ctx)
	go snapshotTask.Run(ctx)

	go func() {
		logger.Info("matchbookd listening", zap.String("addr", cfg.SocketAddress), zap.String("symbol", cfg.Symbol))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("matchbookd stopped")
}

// buildPublisher returns the watermill message.Publisher the egress path
// publishes onto: an in-process gochannel bus when
// cfg.Egress.UseInMemoryBus is set (the default, so the process runs
// standalone without a NATS server), otherwise a NATS publisher at
// cfg.Egress.Broker.
// The returned closer flushes the underlying transport at shutdown.
func buildPublisher(cfg *config.Config, logger *zap.Logger) (message.Publisher, func(), error) {
	watermillLogger := egress.NewWatermillLogger(false)

	if cfg.Egress.UseInMemoryBus {
		bus := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 1024,
			Persistent:          false,
		}, watermillLogger)
		return bus, func() { _ = bus.Close() }, nil
	}

	pub, err := natspubsub.NewPublisher(natspubsub.PublisherConfig{
		URL:       cfg.Egress.Broker,
		Marshaler: natspubsub.GobMarshaler{},
	}, watermillLogger)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { _ = pub.Close() }, nil
}
