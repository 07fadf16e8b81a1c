package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/faeln1/go-discord-observer/internal/app/controllers"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/app/services"
	"github.com/faeln1/go-discord-observer/internal/config"
	"github.com/faeln1/go-discord-observer/internal/platform/database"
	"github.com/faeln1/go-discord-observer/internal/platform/discord"
	httpPlatform "github.com/faeln1/go-discord-observer/internal/platform/http"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	natsPlatform "github.com/faeln1/go-discord-observer/internal/platform/nats"
	redisPlatform "github.com/faeln1/go-discord-observer/internal/platform/redis"
	"github.com/faeln1/go-discord-observer/pkg/eventlog"
	"github.com/faeln1/go-discord-observer/pkg/logger"
	storagepkg "github.com/faeln1/go-discord-observer/pkg/storage"
	minioStorage "github.com/faeln1/go-discord-observer/pkg/storage/minio"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.MustLoad()
	loggers := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLog := loggers.App

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	journal := eventlog.NewWriter(cfg.EventLogDir, appLog.Sub("EventLog"))
	checks := map[string]httpPlatform.HealthCheck{}

	appLog.Infof("configuration: driver=%s session_store=%s", cfg.DBDriver, cfg.SessionStore)

	registrations, diagnosticsRepo, closeDB, err := openStores(cfg, journal, checks)
	if err != nil {
		log.Fatalf("storage initialization error: %v", err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			appLog.Warnf("error closing database: %v", err)
		}
	}()

	sessionStore := repositories.NewInMemoryVoiceSessionStore()
	if cfg.SessionStore == config.SessionStoreRedis {
		client, err := redisPlatform.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis initialization error: %v", err)
		}
		defer client.Close()
		sessionStore = repositories.NewRedisVoiceSessionStore(client, "")
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		appLog.Infof("voice sessions stored in redis")
	}

	var objectStorage storagepkg.Service
	if cfg.Storage.Enabled() {
		store, err := minioStorage.New(ctx, minioStorage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatalf("storage initialization error: %v", err)
		}
		objectStorage = store
		appLog.Infof("attachment archiving enabled bucket=%s endpoint=%s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
	}

	var sinks []services.EventSink
	if d := services.NewCommunityEventsDispatcher(cfg.EventsWebhookURL, cfg.EventsWebhookToken, nil, appLog.Sub("Webhook")); d != nil {
		sinks = append(sinks, d)
	}
	publisher, err := natsPlatform.Connect(natsPlatform.Config{URL: cfg.NATS.URL, SubjectPrefix: cfg.NATS.SubjectPrefix}, appLog.Sub("NATS"))
	if err != nil {
		log.Fatalf("nats initialization error: %v", err)
	}
	if publisher != nil {
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	gateway, err := discord.NewGateway(discord.Options{
		Token:            cfg.Discord.Token,
		MessageCacheSize: cfg.Discord.MessageCacheSize,
	}, appLog.Sub("Discord"))
	if err != nil {
		log.Fatalf("discord initialization error: %v", err)
	}
	api := gateway.API()

	diag := services.NewDiagnostics(diagnosticsRepo, m, appLog.Sub("Diagnostics"))
	snapshots := repositories.NewSnapshotStore()
	resolver := services.NewChannelResolver(api, registrations, services.ChannelResolverConfig{
		ChannelName: cfg.Observer.ChannelName,
		OpTimeout:   cfg.Observer.ChannelOpTimeout,
	}, diag, m, appLog.Sub("Resolver"))
	emitter := services.NewEmitter(resolver, api, services.EmitterConfig{
		SendRetries: cfg.Observer.SendRetries,
	}, diag, m, appLog.Sub("Emitter"), sinks...)
	differ := services.NewProfileDiffer(api, snapshots, emitter, services.ProfileDifferConfig{
		Interval:    cfg.Observer.DiffInterval,
		Concurrency: cfg.Observer.DiffConcurrency,
	}, diag, m, appLog.Sub("Differ"))
	correlator := services.NewAuditCorrelator(api, services.AuditCorrelatorConfig{
		Limit:     cfg.Observer.AuditLimit,
		Timeout:   cfg.Observer.AuditTimeout,
		Freshness: cfg.Observer.AuditFreshness,
	}, diag, m, appLog.Sub("Audit"))
	sessions := services.NewSessionTracker(sessionStore, services.SessionTrackerConfig{
		SweepInterval: cfg.Observer.SweepInterval,
		MaxAge:        cfg.Observer.SessionMaxAge,
	}, diag, m, appLog.Sub("Voice"))

	observer := services.NewObserver(services.ObserverDeps{
		Resolver:    resolver,
		Snapshots:   snapshots,
		Differ:      differ,
		Correlator:  correlator,
		Sessions:    sessions,
		Emitter:     emitter,
		Admin:       api,
		Archiver:    services.NewAttachmentArchiver(objectStorage, nil, cfg.Observer.AttachmentMaxSize, appLog.Sub("Archive")),
		Diagnostics: diag,
		Log:         appLog.Sub("Observer"),
	}, services.ObserverConfig{
		RequireAdmin:         cfg.Observer.RequireAdmin,
		IgnoredVoiceChannels: cfg.Observer.IgnoredVoiceChannels,
	})

	queue := services.NewGuildQueue(ctx, cfg.Observer.QueueDepth, m, appLog.Sub("Queue"))
	gateway.Bind(observer, queue, journal)
	if err := gateway.Open(); err != nil {
		log.Fatalf("discord connection error: %v", err)
	}

	if cfg.OpsToken == "" {
		appLog.Warnf("OPS_TOKEN not set: /metrics refuses every request and /registrations is disabled")
	}
	router := httpPlatform.NewRouter(httpPlatform.RouterConfig{
		Logger:           loggers.HTTP,
		Gatherer:         registry,
		Checks:           checks,
		Guilds:           func(ctx context.Context) int { return len(api.GuildIDs(ctx)) },
		RegistrationCtrl: controllers.NewRegistrationController(registrations, resolver),
		OpsToken:         cfg.OpsToken,
	})
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return differ.Run(gctx) })
	g.Go(func() error { return sessions.Run(gctx) })
	g.Go(func() error {
		appLog.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLog.Infof("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Errorf("observer stopped: %v", err)
	}
	if err := gateway.Close(); err != nil {
		appLog.Warnf("error closing gateway: %v", err)
	}
	queue.Close()
}

// openStores picks the registration and diagnostic backends for cfg.DBDriver.
func openStores(cfg *config.AppConfig, journal *eventlog.Writer, checks map[string]httpPlatform.HealthCheck) (repositories.RegistrationRepository, repositories.DiagnosticRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DBDriver {
	case config.DriverPostgres:
		pg, err := database.OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, noop, err
		}
		regs, err := repositories.NewPostgresRegistrationRepo(pg.SQL)
		if err != nil {
			pg.Close()
			return nil, nil, noop, err
		}
		diags, err := repositories.NewGormDiagnosticRepo(pg.Gorm)
		if err != nil {
			pg.Close()
			return nil, nil, noop, err
		}
		checks["database"] = pg.SQL.PingContext
		return regs, diags, pg.Close, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, noop, err
		}
		regs, err := repositories.NewSQLiteRegistrationRepo(db)
		if err != nil {
			db.Close()
			return nil, nil, noop, err
		}
		diags, err := repositories.NewSQLiteDiagnosticRepo(db)
		if err != nil {
			db.Close()
			return nil, nil, noop, err
		}
		checks["database"] = db.PingContext
		return regs, diags, db.Close, nil

	case config.DriverYAML:
		regs, err := repositories.NewYAMLRegistrationRepo(cfg.DataFile)
		if err != nil {
			return nil, nil, noop, err
		}
		return regs, fileOrMemoryDiagnostics(journal), noop, nil

	default:
		return repositories.NewInMemoryRegistrationRepo(), fileOrMemoryDiagnostics(journal), noop, nil
	}
}

func fileOrMemoryDiagnostics(journal *eventlog.Writer) repositories.DiagnosticRepository {
	if repo, err := repositories.NewEventLogDiagnosticRepo(journal); err == nil {
		return repo
	}
	return repositories.NewInMemoryDiagnosticRepo(0)
}
