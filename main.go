package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/hvidsten/skylight/internal/acquire"
	"github.com/hvidsten/skylight/internal/adapters/archive"
	"github.com/hvidsten/skylight/internal/adapters/database"
	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/adapters/tiers"
	"github.com/hvidsten/skylight/internal/app"
	"github.com/hvidsten/skylight/internal/config"
	"github.com/hvidsten/skylight/internal/domain"
	"github.com/hvidsten/skylight/internal/executor"
	"github.com/hvidsten/skylight/internal/ports"
	"github.com/hvidsten/skylight/internal/reporting"
	"github.com/hvidsten/skylight/internal/telemetry"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "smcgov.org"

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "skylight")
	if err != nil {
		fail("Failed to set up telemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	registry := sources.NewDefaultRegistry(httpClient, conf.RequestDelay())

	exec, err := executor.New(registry, executor.Options{
		MaxRetries:       conf.MaxRetries(),
		BackoffBase:      conf.BackoffBase(),
		BackoffMax:       conf.BackoffMax(),
		FailureThreshold: conf.FailureThreshold(),
		Cooldown:         conf.BreakerCooldown(),
	}, nil, nil)
	if err != nil {
		fail("Failed to initialize executor", "error", err.Error())
	}

	var tierList []tiers.Tier
	if conf.TierEnabled("memory") {
		tierList = append(tierList, tiers.NewMemoryTier())
	}
	if conf.TierEnabled("redis") {
		redisClient := redis.NewClient(&redis.Options{Addr: conf.RedisAddr()})
		tierList = append(tierList, tiers.NewRedisTier(redisClient))
	}
	if conf.TierEnabled("bolt") {
		boltTier, err := tiers.NewBoltTier(conf.BoltPath(), time.Now)
		if err != nil {
			fail("Failed to open bolt cache", "error", err.Error(), "path", conf.BoltPath())
		}
		tierList = append(tierList, boltTier)
	}

	cacheManager, err := tiers.NewManager(tierList, time.Now)
	if err != nil {
		fail("Failed to initialize cache manager", "error", err.Error())
	}
	logger.Info("Initialized cache manager")

	acquireService, err := acquire.NewService(
		exec,
		cacheManager,
		func(kind domain.Kind) time.Duration { return conf.TTLForKind(string(kind)) },
		time.Now,
	)
	if err != nil {
		fail("Failed to initialize acquisition service", "error", err.Error())
	}

	var fetchArchive archive.FetchArchive
	if conf.DatabaseURL() != "" {
		logger.Info("Initializing database connection")
		db, err := database.NewPostgresDatabase(conf.DatabaseURL())
		if err != nil {
			fail("Failed to initialize database", "error", err.Error())
		}

		schemaName := database.GetSchemaName(!conf.IsProduction())
		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		fetchArchive = archive.NewPostgresFetchArchive(db, schemaName)
		logger.Info("Initialized fetch archive")
	} else {
		fetchArchive = archive.NewMockFetchArchive()
		logger.Info("No database configured, fetch history will not be persisted")
	}

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	getStatistics := app.BuildGetStatistics(acquireService, fetchArchive, time.Now)
	getIncomeLimits := app.BuildGetIncomeLimits(acquireService, fetchArchive, time.Now)
	getNotices := app.BuildGetNotices(acquireService, fetchArchive, time.Now)
	getPrograms := app.BuildGetPrograms(acquireService, fetchArchive, time.Now)
	getProjects := app.BuildGetProjects(acquireService, fetchArchive, time.Now)
	checkEligibility := app.BuildCheckEligibility(acquireService, fetchArchive, time.Now)
	searchNotices := app.BuildSearchNotices(acquireService, fetchArchive, time.Now)
	searchHousingData := app.BuildSearchHousingData(acquireService, fetchArchive, time.Now)
	getCacheStats := app.BuildGetCacheStats(cacheManager)
	clearCache := app.BuildClearCache(cacheManager)
	getFetchHistory := app.BuildGetFetchHistory(fetchArchive)

	http.HandleFunc(
		"OPTIONS /v1/statistics",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/statistics",
		ports.MakeGetStatisticsHandler(
			getStatistics,
			allowedOrigins,
			logger.With("port", "statistics"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/income-limits",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/income-limits",
		ports.MakeGetIncomeLimitsHandler(
			getIncomeLimits,
			allowedOrigins,
			logger.With("port", "incomelimits"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/notices",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/notices",
		ports.MakeGetNoticesHandler(
			getNotices,
			allowedOrigins,
			logger.With("port", "notices"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/programs",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/programs",
		ports.MakeGetProgramsHandler(
			getPrograms,
			allowedOrigins,
			logger.With("port", "programs"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/projects",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/projects",
		ports.MakeGetProjectsHandler(
			getProjects,
			allowedOrigins,
			logger.With("port", "projects"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/eligibility",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/eligibility",
		ports.MakeCheckEligibilityHandler(
			checkEligibility,
			allowedOrigins,
			logger.With("port", "eligibility"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/notices/search",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/notices/search",
		ports.MakeSearchNoticesHandler(
			searchNotices,
			allowedOrigins,
			logger.With("port", "searchnotices"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/search",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/search",
		ports.MakeSearchHousingDataHandler(
			searchHousingData,
			allowedOrigins,
			logger.With("port", "search"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"GET /v1/cache/stats",
		ports.MakeCacheStatsHandler(
			getCacheStats,
			allowedOrigins,
			logger.With("port", "cachestats"),
			sentryMiddleware,
		),
	)
	http.HandleFunc(
		"DELETE /v1/cache",
		ports.MakeClearCacheHandler(
			clearCache,
			allowedOrigins,
			logger.With("port", "clearcache"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"GET /v1/fetches/{kind}",
		ports.MakeFetchHistoryHandler(
			getFetchHistory,
			allowedOrigins,
			logger.With("port", "fetchhistory"),
			sentryMiddleware,
		),
	)

	http.HandleFunc("GET /health", ports.MakeHealthHandler())

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", conf.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
