package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/internal/handler/api"
	mid "MarketDash/internal/middleware"
	internalrepo "MarketDash/internal/repository"
	"MarketDash/internal/service/ratelimit"
	"MarketDash/internal/service/stream"
	"MarketDash/internal/services/upstream"
	"MarketDash/internal/usecase"
	"MarketDash/pkg/cache"
	pkgch "MarketDash/pkg/clickhouse"
	"MarketDash/pkg/config"
	xhttp "MarketDash/pkg/http"
	pkgkafka "MarketDash/pkg/kafka"
	applogger "MarketDash/pkg/logger"
	"MarketDash/pkg/metrics"
	"MarketDash/pkg/queue"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// ProvideLogger builds the application logger. When log collection is on,
// repeated warnings and errors are aggregated and shipped to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collect.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.Interval,
			CountThreshold: cfg.Log.Collect.Threshold,
			Topic:          cfg.Log.Collect.Topic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRedisClient connects to Redis when the cache or the prewarm queue
// needs it, and returns nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.NeedsRedis() {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 0, 0),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideCache picks the snapshot and decision cache backend.
func ProvideCache(cfg *config.Config, rc *redis.Client) (cache.Service, func(), error) {
	var c cache.Service
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		c = cache.NewRedisCache(rc, cfg.Redis.Prefix)
	case config.CacheLayered:
		c = cache.NewLayeredCache(
			cache.NewRedisCache(rc, cfg.Redis.Prefix),
			cache.WithLayeredMemory(cfg.Cache.MaxEntries, cfg.Cache.SnapshotTTL),
		)
	case config.CacheMemory:
		c = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
			cache.WithMemoryDefaultTTL(cfg.Cache.SnapshotTTL),
			cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		)
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	// The Redis client is closed by its own cleanup.
	if cfg.Cache.Backend == config.CacheMemory {
		return c, func() { _ = c.Close() }, nil
	}
	return c, func() {}, nil
}

// ProvideMarketBackend creates the analytics backend client.
func ProvideMarketBackend(cfg *config.Config, m domrepo.Metrics) domrepo.MarketBackend {
	return upstream.NewClient(cfg, m)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when nothing
// publishes to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.NeedsKafka() {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the decision
// table when the archive is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.NeedsClickHouse() {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideDecisionArchive returns the ClickHouse decision store, or nil
// when the archive is off.
func ProvideDecisionArchive(ch *pkgch.Client, l *applogger.Logger) (domrepo.DecisionArchive, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHDecisionStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideDecisionPublisher returns the Kafka decision publisher for the
// kafka archive backend.
func ProvideDecisionPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.EventPublisher {
	if producer == nil || cfg.Archive.Backend != config.ArchiveKafka {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideDecisionRecorder routes completed analyses to the archive backend.
func ProvideDecisionRecorder(pub domrepo.EventPublisher, store domrepo.DecisionArchive, m domrepo.Metrics, cfg *config.Config) *usecase.DecisionRecorder {
	if cfg.Archive.Backend == config.ArchiveNone {
		return nil
	}
	return usecase.NewDecisionRecorder(pub, store, m, cfg.Archive.Backend)
}

// ProvideEventPipeline buffers decision events in front of the recorder.
func ProvideEventPipeline(rec *usecase.DecisionRecorder, m domrepo.Metrics, cfg *config.Config) *mid.EventPipeline {
	if rec == nil {
		return nil
	}
	return mid.NewEventPipeline(rec, m,
		mid.WithMinGap(time.Second),
		mid.WithBufferSize(cfg.Archive.BatchSize),
	)
}

// ProvideKafkaConsumer creates the archive consumer for the kafka backend.
func ProvideKafkaConsumer(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Archive.Backend != config.ArchiveKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.LoggingHook{Log: l, Slow: 2 * time.Second},
		pkgkafka.HookFuncs{Err: func(context.Context, string, kafka.Message, []byte, error) {
			m.RecordError("archive_consume")
		}},
	))
	return consumer, nil
}

// ProvideArchiveHandler stores decision events read from Kafka.
func ProvideArchiveHandler(cfg *config.Config, store domrepo.DecisionArchive, m domrepo.Metrics) *usecase.ArchiveHandler {
	if cfg.Archive.Backend != config.ArchiveKafka || store == nil {
		return nil
	}
	return usecase.NewArchiveHandler(cfg.Kafka.Topic, store, m)
}

// ProvideSessionStore keeps per-session analysis state.
func ProvideSessionStore(cfg *config.Config) *usecase.SessionStore {
	return usecase.NewSessionStore(cfg.Cache.SessionTTL)
}

// ProvideDashboardUseCase creates the dashboard view use case.
func ProvideDashboardUseCase(backend domrepo.MarketBackend, c cache.Service, m domrepo.Metrics, cfg *config.Config) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(backend, c, m, cfg.Cache.SnapshotTTL, cfg.Cache.Backend)
}

// ProvideAnalysisUseCase creates the analyse action use case.
func ProvideAnalysisUseCase(
	backend domrepo.MarketBackend,
	sessions *usecase.SessionStore,
	c cache.Service,
	store domrepo.DecisionArchive,
	pipe *mid.EventPipeline,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalysisUseCase {
	opts := []usecase.AnalysisOption{usecase.WithDecisionCache(c, cfg.Cache.DecisionTTL)}
	if store != nil {
		opts = append(opts, usecase.WithArchive(store))
	}
	if pipe != nil {
		opts = append(opts, usecase.WithDecisionSink(pipe))
	}
	return usecase.NewAnalysisUseCase(backend, sessions, m, l, opts...)
}

// ProvideHub creates the ticker websocket hub.
func ProvideHub(m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *stream.Hub {
	origins := cfg.Server.AllowOrigins
	return stream.NewHub(m, l, stream.WithPingInterval(cfg.Server.PingInterval), stream.WithCheckOrigin(func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}))
}

// ProvideRefresher polls index and watchlist quotes for the ticker.
func ProvideRefresher(backend domrepo.MarketBackend, hub *stream.Hub, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.Refresher {
	return usecase.NewRefresher(backend, hub, m, l, cfg.Upstream.RefreshInterval, cfg.Upstream.Watchlist)
}

// ProvideRedisQueue creates the prewarm work queue when prewarm is on.
func ProvideRedisQueue(cfg *config.Config, rc *redis.Client, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Prewarm.Enabled || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Prewarm.Workers,
		RetryLimit: cfg.Prewarm.RetryLimit,
		RetryDelay: cfg.Prewarm.RetryDelay,
	}, rc, queue.WithKeyPrefix("marketdash:prewarm"), queue.WithRetryPoll(cfg.Prewarm.RetryDelay/2))
}

// ProvidePrewarmJob runs one queued forecast prewarm.
func ProvidePrewarmJob(backend domrepo.MarketBackend, l *applogger.Logger) *usecase.PrewarmJob {
	return usecase.NewPrewarmJob(backend, l)
}

// ProvidePrewarmer enqueues forecasts for the top ranked stocks.
func ProvidePrewarmer(backend domrepo.MarketBackend, q *queue.RedisQueue, l *applogger.Logger, cfg *config.Config) *usecase.Prewarmer {
	if q == nil {
		return nil
	}
	return usecase.NewPrewarmer(backend, q, l, cfg.Prewarm.TopN, cfg.Prewarm.DedupeTTL)
}

// ProvideLimiter creates the per-client analyse rate limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.AnalyseRPS, cfg.RateLimit.AnalyseBurst, cfg.RateLimit.IdleTTL)
}

// ProvideHandlers collects every route group the server exposes.
func ProvideHandlers(
	l *applogger.Logger,
	dash *usecase.DashboardUseCase,
	analysis *usecase.AnalysisUseCase,
	limiter *ratelimit.Limiter,
	hub *stream.Hub,
	refresher *usecase.Refresher,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewDashboardHandler(l, dash),
		api.NewAnalysisHandler(l, analysis, limiter.Middleware()),
		api.NewStreamHandler(l, hub, refresher),
	}
}

// ProvideHTTPServer builds the Echo server. The write timeout is stretched
// to cover the slowest decision call.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	write := cfg.Server.WriteTimeout
	if floor := cfg.Upstream.DecisionTimeout + 10*time.Second; write < floor {
		write = floor
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, write, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.AllowOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}
