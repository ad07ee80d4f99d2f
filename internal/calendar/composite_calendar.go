package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CompositeProvider implements Provider with fallback strategy.
// The fallback is consulted only when the primary returns an error.
type CompositeProvider struct {
	primary  Provider
	fallback Provider
	logger   *zap.Logger
}

// NewCompositeProvider creates a new CompositeProvider
func NewCompositeProvider(primary, fallback Provider, logger *zap.Logger) *CompositeProvider {
	return &CompositeProvider{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// FetchAll returns the primary's records, or the fallback's if the primary fails
func (cp *CompositeProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	records, err := cp.primary.FetchAll(ctx)
	if err == nil {
		return records, nil
	}

	cp.logger.Warn("Primary calendar failed, falling back",
		zap.Error(err))

	records, fbErr := cp.fallback.FetchAll(ctx)
	if fbErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fbErr)
	}
	return records, nil
}

// FetchRange returns the primary's records for the range, or the fallback's if the primary fails
func (cp *CompositeProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	records, err := cp.primary.FetchRange(ctx, from, to)
	if err == nil {
		return records, nil
	}

	cp.logger.Warn("Primary calendar failed, falling back",
		zap.String("from", from.Format("2006-01-02")),
		zap.String("to", to.Format("2006-01-02")),
		zap.Error(err))

	records, fbErr := cp.fallback.FetchRange(ctx, from, to)
	if fbErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fbErr)
	}
	return records, nil
}

// ClearCache clears the caches of both wrapped providers
func (cp *CompositeProvider) ClearCache() {
	ClearCache(cp.primary)
	ClearCache(cp.fallback)
}
