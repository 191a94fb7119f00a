// Command server runs the loan origination API: the status transition and
// verification engines, their HTTP surface, and the audit outbox worker.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	apphandler "origen/internal/application/handler"
	appmetrics "origen/internal/application/metrics"
	appservice "origen/internal/application/service"
	appstore "origen/internal/application/store"
	httprouter "origen/internal/http"
	personhandler "origen/internal/person/handler"
	personservice "origen/internal/person/service"
	personstore "origen/internal/person/store"
	"origen/internal/platform/config"
	"origen/internal/platform/httpserver"
	"origen/internal/platform/logger"
	platformredis "origen/internal/platform/redis"
	"origen/internal/platform/token"
	"origen/internal/registry"
	registryhandler "origen/internal/registry/handler"
	staffhandler "origen/internal/staff/handler"
	staffservice "origen/internal/staff/service"
	staffstore "origen/internal/staff/store"
	tenanthandler "origen/internal/tenant/handler"
	tenantmetrics "origen/internal/tenant/metrics"
	tenantservice "origen/internal/tenant/service"
	tenantstore "origen/internal/tenant/store"
	verificationhandler "origen/internal/verification/handler"
	verificationmetrics "origen/internal/verification/metrics"
	verificationservice "origen/internal/verification/service"
	verificationstore "origen/internal/verification/store"
	audit "origen/pkg/platform/audit"
	auditpublisher "origen/pkg/platform/audit/publisher"
	auditmemory "origen/pkg/platform/audit/store/memory"
	auditpostgres "origen/pkg/platform/audit/store/postgres"
	auditworker "origen/pkg/platform/audit/worker"
	"origen/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when a DSN is configured, in-memory otherwise so the
	// service runs standalone in local development.
	var (
		db            *sql.DB
		apps          appstore.ApplicationStore
		staff         staffstore.StaffStore
		tenants       tenantstore.TenantStore
		persons       personstore.PersonStore
		idents        personstore.IdentificationStore
		accounts      personstore.AccountStore
		verifications verificationstore.VerificationStore
		auditStore    audit.Store
		outboxStore   *auditpostgres.Store
		runner        tx.Runner = tx.PassthroughRunner{}
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		apps = appstore.NewPostgres(db)
		staff = staffstore.NewPostgres(db)
		tenants = tenantstore.NewPostgres(db)
		persons = personstore.NewPostgresPersons(db)
		idents = personstore.NewPostgresIdentifications(db)
		accounts = personstore.NewPostgresAccounts(db)
		verifications = verificationstore.NewPostgres(db)
		outboxStore = auditpostgres.New(db)
		auditStore = outboxStore
		runner = tx.NewSQLRunner(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		apps = appstore.NewInMemory()
		staff = staffstore.NewInMemory()
		tenants = tenantstore.NewInMemory()
		persons = personstore.NewInMemoryPersons()
		idents = personstore.NewInMemoryIdentifications()
		accounts = personstore.NewInMemoryAccounts()
		verifications = verificationstore.NewInMemory()
		auditStore = auditmemory.New()
	}

	auditor := auditpublisher.New(auditStore)
	tokens := token.NewManager(cfg.JWTSigningKey, time.Hour)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var kafkaClient *kgo.Client
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err = auditworker.NewClient(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
	}

	staffSvc, err := staffservice.New(staff, tokens,
		staffservice.WithLogger(log),
		staffservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		log.Error("staff service init failed", "error", err)
		os.Exit(1)
	}

	appSvc, err := appservice.New(apps, staffSvc,
		appservice.WithLogger(log),
		appservice.WithAuditPublisher(auditor),
		appservice.WithMetrics(appmetrics.New()),
		appservice.WithStaleThreshold(cfg.StaleAfter),
		appservice.WithTxRunner(runner),
	)
	if err != nil {
		log.Error("application service init failed", "error", err)
		os.Exit(1)
	}

	verificationSvc, err := verificationservice.New(verifications, persons, idents, accounts,
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditor),
		verificationservice.WithMetrics(verificationmetrics.New()),
	)
	if err != nil {
		log.Error("verification service init failed", "error", err)
		os.Exit(1)
	}

	personSvc, err := personservice.New(persons, idents, accounts,
		personservice.WithLogger(log),
	)
	if err != nil {
		log.Error("person service init failed", "error", err)
		os.Exit(1)
	}

	tenantSvc, err := tenantservice.New(tenants, apps, staff,
		tenantservice.WithLogger(log),
		tenantservice.WithAuditPublisher(auditor),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)
	if err != nil {
		log.Error("tenant service init failed", "error", err)
		os.Exit(1)
	}

	registryOpts := []registry.Option{
		registry.WithLogger(log),
		registry.WithAuditPublisher(auditor),
	}
	if redisClient != nil {
		registryOpts = append(registryOpts,
			registry.WithCache(registry.NewRedisCache(redisClient.Client, config.RegistryCacheTTL, log)))
	}
	registrySvc, err := registry.New(registry.NewStubRENAPO(), registry.NewStubSAT(), verificationSvc, persons, registryOpts...)
	if err != nil {
		log.Error("registry service init failed", "error", err)
		os.Exit(1)
	}

	router := httprouter.NewRouter(httprouter.Dependencies{
		Logger:        log,
		Tokens:        tokens,
		Tenants:       tenanthandler.New(tenantSvc, log),
		Staff:         staffhandler.New(staffSvc, log),
		Applications:  apphandler.New(appSvc, log),
		Persons:       personhandler.New(personSvc, log),
		Verifications: verificationhandler.New(verificationSvc, log),
		Registry:      registryhandler.New(registrySvc, log),
	})
	server := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if outboxStore != nil {
		worker := auditworker.New(outboxStore, kafkaClient, log)
		g.Go(func() error {
			err := worker.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
