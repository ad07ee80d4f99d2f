package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/config"
	"github.com/username/workday-scheduler/internal/store"
)

// closer releases whatever a provider holds open
type closer func()

func noopCloser() {}

// buildProvider creates the configured holiday source, wrapped in the file
// fallback and the redis cache when those are configured
func (a *app) buildProvider(ctx context.Context) (calendar.Provider, closer, error) {
	provider, closeSource, err := a.sourceProvider(a.cfg.Calendar.Source)
	if err != nil {
		return nil, nil, err
	}

	closers := []closer{closeSource}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if a.cfg.Calendar.FallbackFile != "" {
		// the file is read on every fetch, so a missing fallback only matters once the primary fails
		fallback := calendar.NewFileProvider(a.cfg.Calendar.FallbackFile, a.logger)
		provider = calendar.NewCompositeProvider(provider, fallback, a.logger)
	}

	if a.cfg.Cache.RedisAddr != "" {
		cache, closeCache, err := a.redisCache(ctx, provider, a.cfg.Calendar.Source)
		if err != nil {
			a.logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else {
			closers = append(closers, closeCache)
			provider = cache
		}
	}

	return provider, closeAll, nil
}

// redisCache wraps inner in the redis cache, namespaced by source and country
func (a *app) redisCache(ctx context.Context, inner calendar.Provider, source string) (*calendar.RedisCache, closer, error) {
	rdb, err := calendar.NewRedisClient(ctx, calendar.RedisConfig{
		Addr:     a.cfg.Cache.RedisAddr,
		Password: a.cfg.Cache.RedisPassword,
		DB:       a.cfg.Cache.RedisDB,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}

	namespace := source + ":" + a.cfg.Calendar.CountryFor(source)
	cache := calendar.NewRedisCache(inner, rdb, a.cfg.Cache.GetTTL(), namespace, a.logger)
	return cache, func() { rdb.Close() }, nil
}

// sourceProvider creates the bare provider for a calendar source
func (a *app) sourceProvider(source string) (calendar.Provider, closer, error) {
	cal := a.cfg.Calendar
	country := cal.CountryFor(source)
	span := calendar.YearSpan{From: cal.YearFrom, To: cal.YearTo}.Resolve(time.Now())

	a.logger.Debug("Building calendar provider", zap.String("source", source))

	switch source {
	case config.SourceFile:
		return calendar.NewFileProvider(cal.File, a.logger), noopCloser, nil

	case config.SourceHTTP:
		return calendar.NewHTTPProvider(cal.APIURL, cal.APIToken, cal.GetCacheTTL(), a.logger), noopCloser, nil

	case config.SourceIsDayOff:
		return calendar.NewIsDayOffProvider(cal.IsDayOffFallbackURL, span, cal.GetCacheTTL(), a.logger), noopCloser, nil

	case config.SourceProduction:
		return calendar.NewProductionCalendarProvider(cal.ProductionURL, cal.ProductionToken,
			country, span, cal.GetCacheTTL(), a.logger), noopCloser, nil

	case config.SourceGenerated:
		return calendar.NewGeneratedProvider(span, country, a.logger), noopCloser, nil

	case config.SourceICS:
		return calendar.NewICSProvider(cal.ICSURL, country, a.logger), noopCloser, nil

	case config.SourceSQLite, config.SourcePostgres:
		s, err := a.openStore(source, country)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown calendar source: %s", source)
	}
}

// openStore opens the sqlite or postgres holiday store scoped to country
func (a *app) openStore(kind, country string) (store.Store, error) {
	switch kind {
	case config.SourceSQLite:
		return store.NewSQLite(a.cfg.Store.SQLitePath, country, a.logger)
	case config.SourcePostgres:
		return store.NewPostgres(a.cfg.Store.Postgres, country, a.logger)
	default:
		return nil, fmt.Errorf("unknown store: %s (want %s or %s)", kind, config.SourceSQLite, config.SourcePostgres)
	}
}
