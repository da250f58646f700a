package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/analyze"
	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/db"
	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/hub"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/monitoring"
	"github.com/sells-group/hubmatch/internal/resilience"
	"github.com/sells-group/hubmatch/internal/resolve"
	"github.com/sells-group/hubmatch/internal/store"
	"github.com/sells-group/hubmatch/pkg/geocode"
)

// analysisEnv holds everything the analyze/table/nearest/serve commands
// need: the registry, the resolver chain and the analyzer.
type analysisEnv struct {
	Registry *hub.Registry
	Resolver resolve.Resolver
	Analyzer *analyze.Analyzer
	Metrics  *monitoring.Metrics
	Checker  *monitoring.Checker

	closers []func()
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// Analyze resolves every assigned postal code and builds the report.
func (e *analysisEnv) Analyze(ctx context.Context, concurrency int) (*model.Report, resolve.Resolution, error) {
	start := time.Now()
	res, err := resolve.ResolveAll(ctx, e.Resolver, e.Registry.Pincodes(), concurrency)
	if err != nil {
		return nil, res, eris.Wrap(err, "resolve postal codes")
	}

	rep := e.Analyzer.Run(res)
	e.Checker.Check(ctx, rep)

	zap.L().Info("analysis complete",
		zap.Int("hubs", e.Registry.Len()),
		zap.Int("resolved", len(res.Locations)),
		zap.Int("unresolved", len(res.Unresolved)),
		zap.Int("mismatches", len(rep.Mismatches)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, res, nil
}

// initAnalysis loads the hub file, applies the optional assignment table
// and builds the resolver chain. Callers should defer env.Close().
func initAnalysis(ctx context.Context, c *config.Config, mode string) (*analysisEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	file, err := hub.LoadFile(c.Data.HubsFile)
	if err != nil {
		return nil, err
	}
	reg, err := file.Registry()
	if err != nil {
		return nil, err
	}

	if c.Data.AssignmentsFile != "" {
		reg, err = applyAssignments(reg, c.Data.AssignmentsFile)
		if err != nil {
			return nil, err
		}
	}

	env := &analysisEnv{
		Registry: reg,
		Metrics:  monitoring.NewMetrics(),
	}
	env.Checker = monitoring.NewChecker(env.Metrics, monitoring.NewAlerter(c.Monitoring))

	env.Resolver, err = buildResolver(ctx, c, env, file.Pincodes, reg.Pincodes())
	if err != nil {
		env.Close()
		return nil, err
	}

	searcher, err := hub.NewSearcher(reg, c.Analysis.Index)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Analyzer = analyze.New(reg,
		analyze.WithSearcher(searcher),
		analyze.WithCoverageRadius(c.Analysis.CoverageRadiusKM),
	)

	zap.L().Info("hub registry loaded",
		zap.String("file", c.Data.HubsFile),
		zap.Int("hubs", reg.Len()),
		zap.Int("postal_codes", len(reg.Pincodes())),
		zap.String("index", c.Analysis.Index),
	)
	return env, nil
}

func applyAssignments(reg *hub.Registry, path string) (*hub.Registry, error) {
	rows, err := hub.ReadAssignments(path)
	if err != nil {
		return nil, err
	}
	next, ignored, err := reg.WithAssignments(rows)
	if err != nil {
		return nil, err
	}
	for _, row := range ignored {
		zap.L().Warn("assignment names unknown hub, ignoring",
			zap.String("hub", row.Hub),
			zap.String("pincode", row.Pincode),
		)
	}
	zap.L().Info("assignment table applied",
		zap.String("file", path),
		zap.Int("rows", len(rows)),
		zap.Int("ignored", len(ignored)),
	)
	return next, nil
}

// buildResolver assembles static table -> Postgres -> cached geocoder, each
// instrumented, behind an LRU memo.
func buildResolver(ctx context.Context, c *config.Config, env *analysisEnv, table map[string]geo.Point, codes []string) (resolve.Resolver, error) {
	chain := resolve.Chain{
		resolve.NewInstrumented(resolve.NewStatic(table), "static", env.Metrics),
	}

	if c.Store.DatabaseURL != "" {
		pool, err := db.Connect(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, pool.Close)

		backends, err := postgresBackends(ctx, pool, codes, env.Metrics)
		if err != nil {
			return nil, err
		}
		chain = append(chain, backends...)
	}

	if c.Geocode.Enabled {
		g, err := buildGeocoder(ctx, c, env)
		if err != nil {
			return nil, err
		}
		chain = append(chain, resolve.NewInstrumented(g, "geocode", env.Metrics))
	}

	if c.Resolver.MemoSize <= 0 {
		return chain, nil
	}
	memo, err := resolve.NewMemo(chain, c.Resolver.MemoSize)
	if err != nil {
		return nil, err
	}
	return memo, nil
}

// postgresBackends returns the assigned codes preloaded in one query,
// followed by a live pincodes lookup for codes outside the preload, such as
// an unassigned code passed to nearest.
func postgresBackends(ctx context.Context, pool db.Pool, codes []string, obs resolve.Observer) ([]resolve.Resolver, error) {
	pg := resolve.NewPostgres(pool)
	preloaded, err := pg.Preload(ctx, codes)
	if err != nil {
		return nil, err
	}
	zap.L().Info("pincode table preloaded", zap.Int("rows", preloaded.Len()))
	return []resolve.Resolver{
		resolve.NewInstrumented(preloaded, "postgres_preload", obs),
		resolve.NewInstrumented(pg, "postgres", obs),
	}, nil
}

func buildGeocoder(ctx context.Context, c *config.Config, env *analysisEnv) (resolve.Resolver, error) {
	gc := c.Geocode
	client := geocode.NewClient(
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithCountry(gc.Country),
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithRateLimit(gc.RateLimit),
		geocode.WithTimeout(time.Duration(gc.TimeoutSecs)*time.Second),
	)

	var g resolve.Resolver = resolve.NewGeocoded(client,
		resolve.WithRetry(resilience.FromRetryConfig(
			gc.Retry.MaxAttempts, gc.Retry.InitialBackoffMs, gc.Retry.MaxBackoffMs,
			gc.Retry.Multiplier, gc.Retry.JitterFraction,
		)),
		resolve.WithBreaker(resilience.NewCircuitBreaker(
			resilience.FromCircuitConfig(gc.Circuit.FailureThreshold, gc.Circuit.ResetTimeoutSecs),
		)),
	)

	if gc.CachePath == "" {
		return g, nil
	}

	cache, err := store.NewSQLite(gc.CachePath)
	if err != nil {
		return nil, err
	}
	env.closers = append(env.closers, func() { _ = cache.Close() })
	if err := cache.Migrate(ctx); err != nil {
		return nil, err
	}
	ttl := time.Duration(gc.CacheTTLDays) * 24 * time.Hour
	return resolve.NewCached(g, cache, ttl, "nominatim"), nil
}
