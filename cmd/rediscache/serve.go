package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/application"
	"github.com/davicafu/rediscache/internal/cache/domain"
	cacheEvents "github.com/davicafu/rediscache/internal/cache/infra/inbound/events"
	cacheHttp "github.com/davicafu/rediscache/internal/cache/infra/inbound/http"
	"github.com/davicafu/rediscache/internal/cache/infra/outbound/notify"
	"github.com/davicafu/rediscache/internal/config"
	infraEvents "github.com/davicafu/rediscache/internal/shared/infra/events"
	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
	promstats "github.com/davicafu/rediscache/internal/shared/infra/platform/stats/prometheus"
	"github.com/davicafu/rediscache/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP cache service",
	Long: `Run the HTTP cache service on HTTP_PORT.

If Redis is not reachable at startup the service falls back to an in-memory
store. With USE_KAFKA=true unsupported-feature notifications are published to
KAFKA_NOTIFY_TOPIC and invalidation commands are consumed from
KAFKA_INVALIDATION_TOPIC.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var shutdownTimeout time.Duration

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// ---------------- Store ----------------
	st, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer st.close()

	// ---------------- Metrics ----------------
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := promstats.New(registry)

	// ---------------- Events ---------------
	notifier, closeEvents := setupNotifications(ctx, cfg, log, collector)
	defer closeEvents()

	backend := application.NewRedisBackend(cfg.Cache, st.connector, log,
		application.WithNotifier(notifier),
		application.WithStats(collector),
	)
	defer backend.Close()
	shared := application.NewSyncBackend(backend)

	if cfg.UseKafka {
		reader := infraEvents.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaInvalidationTopic, cfg.KafkaGroupID)
		consumer := infraEvents.NewConsumerAdapter(reader, cfg.KafkaInvalidationTopic,
			cacheEvents.NewInvalidationConsumer(shared, log, collector), log)
		consumer.Start(ctx)
		defer consumer.Close()
	}

	// ---------------- HTTP ----------------
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	cacheHttp.RegisterCacheRoutes(router, cacheHttp.NewCacheHandler(shared, log))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running",
			zap.String("url", "http://localhost:"+cfg.HTTPPort),
			zap.String("store", st.name),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupNotifications publica las notificaciones en Kafka o, sin Kafka, en un bus en memoria
// que las escribe en el log.
func setupNotifications(ctx context.Context, cfg *config.Config, log *zap.Logger, collector stats.Collector) (domain.Notifier, func()) {
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka para notificaciones", zap.String("topic", cfg.KafkaNotifyTopic))
		writer := infraEvents.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		publisher := infraEvents.NewKafkaPublisher(writer, log)
		notifier := notify.Multi{
			application.NewLogNotifier(log),
			notify.NewBusNotifier(publisher, log, collector),
		}
		return notifier, func() { _ = writer.Close() }
	}

	log.Info("⚡️Usando bus de notificaciones en memoria")
	bus := infraEvents.NewInMemoryEventBus(cfg.KafkaNotifyTopic)
	ch := bus.Subscribe(64)
	go func() {
		for {
			select {
			case payload := <-ch:
				log.Info("cache notification", zap.String("topic", bus.Topic()), zap.ByteString("event", payload))
			case <-ctx.Done():
				return
			}
		}
	}()
	return notify.NewBusNotifier(bus, log, collector), func() {}
}
