package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"billiard-pos/internal/models"
	"billiard-pos/internal/util"

	"go.uber.org/zap"
)

// ConfigKeyHourlyRate is the config row holding the billiard hourly rate.
const ConfigKeyHourlyRate = "billiard_hourly_rate"

// DefaultPricingTTL bounds how stale the cached rate may get before the
// next read goes back to the store.
const DefaultPricingTTL = 60 * time.Second

type rateStore interface {
	GetConfigValue(ctx context.Context, key string) (string, error)
	SetConfigValue(ctx context.Context, key, value string) error
	ListConfig(ctx context.Context) (map[string]string, error)
}

// PricingService owns the hourly table rate: a single config row read
// through a TTL cache. Writes invalidate the cache immediately; reads
// tolerate store failures by serving the last known rate.
type PricingService struct {
	store       rateStore
	logger      *zap.Logger
	ttl         time.Duration
	defaultRate float64
	now         func() time.Time

	mu          sync.Mutex
	rate        float64
	refreshedAt time.Time
}

// NewPricingService creates a pricing service with the given cache TTL.
// defaultRate is served until the first successful refresh.
func NewPricingService(store rateStore, ttl time.Duration, defaultRate float64) *PricingService {
	if ttl <= 0 {
		ttl = DefaultPricingTTL
	}
	return &PricingService{
		store:       store,
		logger:      util.GetLogger(),
		ttl:         ttl,
		defaultRate: defaultRate,
		now:         time.Now,
		rate:        defaultRate,
	}
}

// Rate returns the current hourly rate, refreshing from the store only
// when the cached value is older than the TTL.
func (ps *PricingService) Rate(ctx context.Context) float64 {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.now().Sub(ps.refreshedAt) <= ps.ttl {
		return ps.rate
	}

	raw, err := ps.store.GetConfigValue(ctx, ConfigKeyHourlyRate)
	if err != nil {
		// Serve the stale rate rather than fail billing.
		ps.logger.Warn("Failed to refresh hourly rate, using cached value",
			zap.Float64("rate", ps.rate),
			zap.Error(err))
		return ps.rate
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		ps.logger.Warn("Invalid hourly rate in config, using cached value",
			zap.String("raw", raw))
		return ps.rate
	}

	ps.rate = rate
	ps.refreshedAt = ps.now()
	util.PricingCacheRefreshTotal.Inc()
	return ps.rate
}

// SetRate persists a new hourly rate and invalidates the cache.
func (ps *PricingService) SetRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return models.Validationf("hourly rate must be positive, got %.2f", rate)
	}
	if err := ps.store.SetConfigValue(ctx, ConfigKeyHourlyRate, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		return err
	}
	ps.Invalidate()
	return nil
}

// All returns every config row, with the hourly rate overlaid from the
// cache so the listing matches what billing currently charges.
func (ps *PricingService) All(ctx context.Context) (map[string]string, error) {
	entries, err := ps.store.ListConfig(ctx)
	if err != nil {
		return nil, err
	}
	entries[ConfigKeyHourlyRate] = strconv.FormatFloat(ps.Rate(ctx), 'f', -1, 64)
	return entries, nil
}

// Invalidate forces the next Rate call to hit the store.
func (ps *PricingService) Invalidate() {
	ps.mu.Lock()
	ps.refreshedAt = time.Time{}
	ps.mu.Unlock()
}
