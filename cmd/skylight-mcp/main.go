// Command skylight-mcp exposes the acquisition pipeline as MCP tools over
// stdio, so LLM clients can query county housing data with the same caching
// and fallback behavior as the HTTP API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
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
)

type refreshArgs struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type incomeLimitsArgs struct {
	Year       int  `json:"year,omitempty" jsonschema:"limit table year, e.g. 2025"`
	FamilySize int  `json:"family_size,omitempty" jsonschema:"household size between 1 and 8"`
	Refresh    bool `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type noticesArgs struct {
	Limit   int  `json:"limit,omitempty" jsonschema:"maximum number of notices to return"`
	Days    int  `json:"days,omitempty" jsonschema:"only notices published within the last N days"`
	Refresh bool `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type projectsArgs struct {
	Status  string `json:"status,omitempty" jsonschema:"filter by phase: complete, predevelopment or construction"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type eligibilityArgs struct {
	AnnualIncome float64 `json:"annual_income" jsonschema:"gross annual household income in dollars"`
	FamilySize   int     `json:"family_size" jsonschema:"household size between 1 and 8"`
	AMICategory  string  `json:"ami_category,omitempty" jsonschema:"AMI band to check against: 30%, 50%, 80% or 120%"`
	Year         int     `json:"year,omitempty" jsonschema:"limit table year, defaults to the current year"`
	Refresh      bool    `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type searchNoticesArgs struct {
	Query   string `json:"query" jsonschema:"keywords to match against notice titles, summaries and types"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of notices to return"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type searchDataArgs struct {
	Query    string `json:"query" jsonschema:"keywords to search for"`
	DataType string `json:"data_type,omitempty" jsonschema:"restrict the search: all, statistics, notices or programs"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of hits to return"`
	Refresh  bool   `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch from the source"`
}

type emptyArgs struct{}

type searchDataResult struct {
	Hits []app.SearchHit `json:"hits"`
}

type cacheStatsResult struct {
	Tiers []tiers.TierStats `json:"tiers"`
}

// envelope mirrors the HTTP response shape so both surfaces report data
// provenance the same way.
type envelope struct {
	Origin      string    `json:"origin"`
	RetrievedAt time.Time `json:"retrievedAt"`
	Data        any       `json:"data"`
}

func recordEnvelope(result app.RecordResult, data any) envelope {
	return envelope{
		Origin:      string(result.Origin),
		RetrievedAt: result.Record.RetrievedAt,
		Data:        data,
	}
}

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	// stdout carries the MCP transport, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

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
	} else {
		fetchArchive = archive.NewMockFetchArchive()
		logger.Info("No database configured, fetch history will not be persisted")
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

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "skylight",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_housing_statistics",
		Description: "Countywide affordable housing dashboard: unit and project totals, funding, and breakdowns by status and city.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args refreshArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := getStatistics(ctx, args.Refresh)
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, recordEnvelope(result, result.Record.Statistics), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_income_limits",
		Description: "Income and rent limits by year and family size, per AMI band.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args incomeLimitsArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := getIncomeLimits(ctx, app.IncomeLimitsQuery{
			Year:         args.Year,
			FamilySize:   args.FamilySize,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, recordEnvelope(result, result.Record.IncomeLimits), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_public_notices",
		Description: "Recent public notices from the county housing department.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args noticesArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := getNotices(ctx, app.NoticesQuery{
			Limit:        args.Limit,
			Days:         args.Days,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, recordEnvelope(result, result.Record.Notices), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_housing_programs",
		Description: "Housing assistance programs with eligibility requirements and application details.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args refreshArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := getPrograms(ctx, args.Refresh)
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, recordEnvelope(result, result.Record.Programs), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_housing_projects",
		Description: "Affordable housing development projects, optionally filtered by phase.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectsArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := getProjects(ctx, app.ProjectsQuery{
			Status:       args.Status,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, recordEnvelope(result, result.Record.Projects), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_eligibility",
		Description: "Check whether a household income qualifies for an AMI band, with the applicable limit and maximum affordable rent.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args eligibilityArgs) (*mcp.CallToolResult, app.EligibilityResult, error) {
		result, err := checkEligibility(ctx, app.EligibilityQuery{
			AnnualIncome: args.AnnualIncome,
			FamilySize:   args.FamilySize,
			AMIBand:      args.AMICategory,
			Year:         args.Year,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, app.EligibilityResult{}, err
		}
		return nil, result, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notices",
		Description: "Search public notices by keyword, ranked by where the match occurs.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchNoticesArgs) (*mcp.CallToolResult, envelope, error) {
		result, err := searchNotices(ctx, app.SearchNoticesQuery{
			Query:        args.Query,
			Limit:        args.Limit,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, envelope{}, err
		}
		return nil, envelope{
			Origin:      string(result.Origin),
			RetrievedAt: result.RetrievedAt,
			Data:        result.Notices,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_housing_data",
		Description: "Keyword search across notices, statistics and programs, most relevant hits first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchDataArgs) (*mcp.CallToolResult, searchDataResult, error) {
		hits, err := searchHousingData(ctx, app.SearchHousingDataQuery{
			Query:        args.Query,
			DataType:     args.DataType,
			Limit:        args.Limit,
			ForceRefresh: args.Refresh,
		})
		if err != nil {
			return nil, searchDataResult{}, err
		}
		return nil, searchDataResult{Hits: hits}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cache_stats",
		Description: "Entry counts and availability for each cache tier.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, cacheStatsResult, error) {
		return nil, cacheStatsResult{Tiers: getCacheStats(ctx)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop all cached entries from every tier.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, emptyArgs, error) {
		if err := clearCache(ctx); err != nil {
			return nil, emptyArgs{}, err
		}
		return nil, emptyArgs{}, nil
	})

	logger.Info("Init complete, serving MCP over stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		fail("Server error", "error", err.Error())
	}
	logger.Info("Server shutdown")
}
