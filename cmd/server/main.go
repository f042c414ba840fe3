package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"metaregistry/internal/attest"
	"metaregistry/internal/audit"
	"metaregistry/internal/domain"
	"metaregistry/internal/fees"
	"metaregistry/internal/ledger"
	"metaregistry/internal/platform/config"
	"metaregistry/internal/platform/httpserver"
	"metaregistry/internal/platform/logger"
	"metaregistry/internal/platform/metrics"
	platformredis "metaregistry/internal/platform/redis"
	"metaregistry/internal/resolver"
	httptransport "metaregistry/internal/transport/http"
	"metaregistry/internal/validator"
	"metaregistry/internal/xdomain"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var perms domain.Permissions
	if cfg.OwnerAddress != "" {
		owner, err := domain.ParseAddress(cfg.OwnerAddress)
		if err != nil {
			log.Error("invalid owner address", "error", err)
			os.Exit(1)
		}
		perms.Owner = owner
	} else {
		log.Warn("no owner configured; administrative operations are disabled")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var store ledger.Store = ledger.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := ledger.EnsureSchema(ctx, db); err != nil {
			log.Error("ledger schema failed", "error", err)
			os.Exit(1)
		}
		store = ledger.NewPostgresStore(db)
	}

	auditStore := audit.NewMemoryStore()
	auditInbox := make(chan audit.Event, 256)
	publisher := audit.NewAsyncPublisher(auditInbox, log.With("component", "audit"))
	auditWorker := audit.NewWorker(auditStore, auditInbox)

	var usedSet attest.UsedSet = attest.NewMemoryUsedSet()
	var processedSet xdomain.ProcessedSet = xdomain.NewMemoryProcessedSet()
	if redisClient != nil {
		usedSet = attest.NewRedisUsedSet(redisClient.Client, "", cfg.ReplayRetention)
		processedSet = xdomain.NewRedisProcessedSet(redisClient.Client, "", cfg.ReplayRetention)
		defer redisClient.Close()
	}

	authority := attest.NewAuthority(perms, usedSet, publisher, log.With("component", "attest"))
	engine := fees.NewEngine(fees.Config{
		Permissions:           perms,
		DefaultRateMicroUSDKB: cfg.DefaultRateMicroUSDPerKB,
		GasHighWatermarkWei:   cfg.GasHighWatermarkWei,
		GasLowWatermarkWei:    cfg.GasLowWatermarkWei,
	}, publisher, m, log.With("component", "fees"))

	var notifier resolver.Notifier = resolver.Noop{}
	if cfg.ResolverURL != "" {
		notifier = resolver.NewHTTPNotifier(cfg.ResolverURL)
	}

	svc := ledger.NewService(store, authority, engine, publisher, notifier, m,
		log.With("component", "ledger"), perms, cfg.LocalDomainID)
	receiver := xdomain.NewReceiver(processedSet, authority, svc, cfg.LocalDomainID, m,
		log.With("component", "xdomain"))

	v := validator.New(validator.DefaultConfig())
	admin := httptransport.NewAdminHandler(svc, authority, engine)
	handler := httptransport.NewHandler(svc, v, receiver, admin, m, log.With("component", "http"))
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, cfg.AdminJWTKey))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.Info("starting metaregistry", "addr", cfg.Addr, "domain", cfg.LocalDomainID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := xdomain.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup,
			receiver, log.With("component", "consumer"))
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		group.Go(func() error {
			defer consumer.Close()
			return consumer.Run(ctx)
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
