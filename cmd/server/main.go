package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"folio/internal/platform/config"
	"folio/internal/platform/httpserver"
	"folio/internal/platform/kafka"
	"folio/internal/platform/logger"
	platformmetrics "folio/internal/platform/metrics"
	"folio/internal/platform/postgres"
	"folio/internal/platform/redis"
	"folio/internal/registry/address"
	"folio/internal/registry/auth"
	"folio/internal/registry/handler"
	registrymetrics "folio/internal/registry/metrics"
	"folio/internal/registry/service"
	"folio/internal/registry/store"
	"folio/internal/registry/store/slots"
	"folio/pkg/platform/audit"
	"folio/pkg/platform/audit/publisher"
	kafkaaudit "folio/pkg/platform/audit/store/kafka"
	"folio/pkg/platform/audit/store/memory"
	pgaudit "folio/pkg/platform/audit/store/postgres"
	"folio/pkg/platform/circuit"
	"folio/pkg/platform/httputil"
	"folio/pkg/platform/middleware/metadata"
	request "folio/pkg/platform/middleware/request"
	"folio/pkg/platform/middleware/requesttime"
)

// main wires configuration, storage and transport. Registry behaviour
// lives in internal/registry.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kgo.Client
	checks map[string]func(context.Context) error
}

func (i *infra) close(log *slog.Logger) {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("redis close", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("postgres close", "error", err)
		}
	}
}

func connect(ctx context.Context, cfg *config.Config) (*infra, error) {
	in := &infra{checks: map[string]func(context.Context) error{}}
	var err error
	if cfg.Backend == config.BackendPostgres || cfg.AuditSink == config.AuditPostgres {
		if in.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
			return in, err
		}
		in.checks["postgres"] = in.db.PingContext
	}
	if cfg.Backend == config.BackendRedis {
		if in.redis, err = redis.New(ctx, cfg.Redis); err != nil {
			return in, err
		}
		in.checks["redis"] = in.redis.Health
	}
	if cfg.AuditSink == config.AuditKafka {
		if in.kafka, err = kafka.NewProducer(cfg.Kafka.Brokers); err != nil {
			return in, err
		}
		if err := kafka.EnsureTopic(ctx, in.kafka, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			return in, err
		}
		in.checks["kafka"] = in.kafka.Ping
	}
	return in, nil
}

// substrate picks the slot backend. Remote backends sit behind a circuit
// breaker so an outage answers 503 quickly instead of piling up requests.
func substrate(ctx context.Context, cfg *config.Config, in *infra, log *slog.Logger) (store.Substrate, error) {
	var remote store.Substrate
	switch cfg.Backend {
	case config.BackendPostgres:
		pg := slots.NewPostgres(in.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		remote = pg
	case config.BackendRedis:
		remote = slots.NewRedis(in.redis.Client)
	default:
		return slots.NewMemory(), nil
	}
	return store.NewGuarded(remote, circuit.New(cfg.Backend), store.WithGuardLogger(log)), nil
}

// auditStore returns the sink and, when it can be queried, a lister for the
// admin endpoint.
func auditStore(ctx context.Context, cfg *config.Config, in *infra) (audit.Store, audit.Lister, error) {
	switch cfg.AuditSink {
	case config.AuditPostgres:
		st := pgaudit.New(in.db)
		if err := st.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case config.AuditKafka:
		return kafkaaudit.New(in.kafka, cfg.Kafka.AuditTopic), nil, nil
	default:
		st := memory.NewInMemoryStore()
		return st, st, nil
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	in, err := connect(ctx, cfg)
	defer in.close(log)
	if err != nil {
		return err
	}

	slotStore, err := substrate(ctx, cfg, in, log)
	if err != nil {
		return err
	}
	sink, lister, err := auditStore(ctx, cfg, in)
	if err != nil {
		return err
	}
	auditPublisher := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(log),
	)
	defer func() {
		if err := auditPublisher.Close(); err != nil {
			log.Warn("audit publisher close", "error", err)
		}
	}()

	reg := prometheus.DefaultRegisterer
	httpMetrics := platformmetrics.New(reg)
	httpMetrics.TrackAuditDropped(auditPublisher.Dropped)

	svc := service.New(
		store.New(slotStore),
		address.NewDeriver(cfg.Registry.ProgramID),
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(registrymetrics.NewWithRegistry(reg)),
	)
	var replays auth.ReplayCache = auth.NewMemoryReplayCache(nil)
	if in.redis != nil {
		replays = auth.NewRedisReplayCache(in.redis.Client)
	}
	proofs := auth.NewProofService(cfg.Registry.ProofAudience,
		auth.WithMaxLifetime(cfg.Registry.ProofMaxLifetime),
		auth.WithReplayCache(replays),
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", healthz(in.checks, log))
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, proofs, log,
		handler.WithAuditPublisher(auditPublisher),
		handler.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	).Register(r)
	if lister != nil {
		handler.NewAuditHandler(lister, cfg.Server.AdminToken, log).Register(r)
	}

	log.Info("starting folio",
		"addr", cfg.Server.Addr,
		"backend", cfg.Backend,
		"audit_sink", cfg.AuditSink,
		"program_id", cfg.Registry.ProgramID.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, httpserver.New(cfg.Server.Addr, r), cfg.Server.ShutdownTimeout, log)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func healthz(checks map[string]func(context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				log.WarnContext(r.Context(), "health check failed", "dependency", name, "error", err)
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, map[string]any{"healthy": healthy, "dependencies": status})
	}
}
