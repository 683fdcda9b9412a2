package di

import (
	"fmt"

	"GanttGen/internal/domain/repository"
	"GanttGen/internal/handler/api"
	"GanttGen/internal/prompt"
	internalrepo "GanttGen/internal/repository"
	"GanttGen/internal/service/gemini"
	"GanttGen/internal/service/ratelimit"
	"GanttGen/internal/services/extract"
	"GanttGen/internal/services/layout"
	"GanttGen/pkg/cache"
	"GanttGen/pkg/config"
	xhttp "GanttGen/pkg/http"
	pkgkafka "GanttGen/pkg/kafka"
	applogger "GanttGen/pkg/logger"
	"GanttGen/pkg/metrics"
	"GanttGen/pkg/retry"
	"GanttGen/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.Default()
}

// ProvideSessionCache creates the cache backend selected by session.backend.
func ProvideSessionCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Session.Backend == "memory" {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Session.MemorySize)), nil
	}

	host, port, err := cfg.RedisHostPort()
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Session.Redis.Password),
		cache.WithRedisDB(cfg.Session.Redis.DB),
		cache.WithRedisPool(cfg.Session.Redis.PoolSize, 0, 0),
		cache.WithRedisPrefix(cfg.Session.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}

	if cfg.Session.Backend == "layered" {
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Session.MemorySize),
			cache.WithLayeredMemoryTTL(cfg.Session.TTL),
		), nil
	}
	return rc, nil
}

// ProvideSessionStore stores research sessions in the session cache.
func ProvideSessionStore(c cache.Service, cfg *config.Config, l *applogger.Logger) repository.SessionStore {
	return internalrepo.NewCacheSessionStore(c, cfg.Session.TTL, l)
}

// ProvideCompleter creates the Gemini client for llm.transport.
func ProvideCompleter(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (repository.Completer, error) {
	c, err := gemini.New(gemini.Config{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		BaseURL:         cfg.LLM.BaseURL,
		Transport:       cfg.LLM.Transport,
		Timeout:         cfg.LLM.Timeout,
		Temperature:     cfg.LLM.Temperature,
		TopP:            cfg.LLM.TopP,
		TopK:            cfg.LLM.TopK,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Retry: retry.Policy{
			MaxAttempts: cfg.LLM.Retry.Attempts,
			Backoff:     retry.Linear(cfg.LLM.Retry.Backoff),
		},
	}, l, m)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return c, nil
}

// ProvideExtractor creates the upload text extractor.
func ProvideExtractor(cfg *config.Config, l *applogger.Logger) repository.TextExtractor {
	return extract.New(l,
		extract.WithMaxFiles(cfg.Upload.MaxFiles),
		extract.WithMaxFileBytes(cfg.Upload.MaxFileBytes),
		extract.WithAllowedExtensions(cfg.Upload.AllowedExtensions...),
	)
}

// ProvidePrompts loads the embedded prompt templates.
func ProvidePrompts() (*prompt.Set, error) {
	return prompt.Load()
}

// ProvideEventPublisher creates the Kafka event publisher, or a no-op one
// when events are disabled. With log.collect set, aggregated error logs are
// shipped through the same producer.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Events.BatchTimeout),
		pkgkafka.WithAsync(cfg.Events.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := internalrepo.NewKafkaPublisher(producer, cfg.Events.Topic)
	if cfg.Log.Collect {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Events.Topic + ".logs",
			Publisher: pub,
		})
	}
	return pub, nil
}

// ProvideLayout creates the chart layout service.
func ProvideLayout() *layout.Service {
	return layout.New()
}

// ProvideRateLimiter creates the per-client token bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPServer creates the Echo server with the chart routes.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.ChartsEchoHandler,
	l *applogger.Logger,
	limiter *ratelimit.Limiter,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORS(cfg.Server.CORS.Enabled, cfg.Server.CORS.AllowOrigins...),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.SlowThreshold))
	} else {
		opts = append(opts, xhttp.WithMetrics("", cfg.Metrics.SlowThreshold))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(limiter, cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	limiter *ratelimit.Limiter,
	sessions cache.Service,
	events repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, srv, limiter, sessions, events)
}
