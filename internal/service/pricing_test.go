package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRateStore struct {
	value string
	err   error
	gets  int
	sets  map[string]string
}

func (f *fakeRateStore) GetConfigValue(ctx context.Context, key string) (string, error) {
	f.gets++
	return f.value, f.err
}

func (f *fakeRateStore) SetConfigValue(ctx context.Context, key, value string) error {
	if f.sets == nil {
		f.sets = map[string]string{}
	}
	f.sets[key] = value
	return f.err
}

func (f *fakeRateStore) ListConfig(ctx context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]string{
		ConfigKeyHourlyRate: f.value,
		"venue_name":        "La Esquina del Billar",
	}, nil
}

func TestPricingRateCachedWithinTTL(t *testing.T) {
	fs := &fakeRateStore{value: "12.5"}
	ps := NewPricingService(fs, time.Minute, 10)

	now := time.Now()
	ps.now = func() time.Time { return now }

	assert.Equal(t, 12.5, ps.Rate(context.Background()))
	assert.Equal(t, 1, fs.gets)

	// Inside the TTL the store must not be hit again.
	now = now.Add(30 * time.Second)
	assert.Equal(t, 12.5, ps.Rate(context.Background()))
	assert.Equal(t, 1, fs.gets)

	// Past the TTL the next read refreshes.
	now = now.Add(31 * time.Second)
	fs.value = "15"
	assert.Equal(t, 15.0, ps.Rate(context.Background()))
	assert.Equal(t, 2, fs.gets)
}

func TestPricingRateServesDefaultUntilFirstRefresh(t *testing.T) {
	fs := &fakeRateStore{err: errors.New("db down")}
	ps := NewPricingService(fs, time.Minute, 10)

	assert.Equal(t, 10.0, ps.Rate(context.Background()))
}

func TestPricingRateKeepsCacheOnStoreFailure(t *testing.T) {
	fs := &fakeRateStore{value: "12"}
	ps := NewPricingService(fs, time.Minute, 10)

	now := time.Now()
	ps.now = func() time.Time { return now }

	assert.Equal(t, 12.0, ps.Rate(context.Background()))

	now = now.Add(2 * time.Minute)
	fs.err = errors.New("db down")
	assert.Equal(t, 12.0, ps.Rate(context.Background()))
}

func TestPricingRateRejectsGarbageValues(t *testing.T) {
	fs := &fakeRateStore{value: "12"}
	ps := NewPricingService(fs, time.Minute, 10)

	now := time.Now()
	ps.now = func() time.Time { return now }

	assert.Equal(t, 12.0, ps.Rate(context.Background()))

	now = now.Add(2 * time.Minute)
	fs.value = "not-a-number"
	assert.Equal(t, 12.0, ps.Rate(context.Background()))

	fs.value = "-4"
	assert.Equal(t, 12.0, ps.Rate(context.Background()))
}

func TestPricingInvalidateForcesRefresh(t *testing.T) {
	fs := &fakeRateStore{value: "12"}
	ps := NewPricingService(fs, time.Minute, 10)

	assert.Equal(t, 12.0, ps.Rate(context.Background()))
	assert.Equal(t, 1, fs.gets)

	fs.value = "20"
	ps.Invalidate()
	assert.Equal(t, 20.0, ps.Rate(context.Background()))
	assert.Equal(t, 2, fs.gets)
}

func TestPricingSetRate(t *testing.T) {
	fs := &fakeRateStore{value: "12"}
	ps := NewPricingService(fs, time.Minute, 10)

	assert.Equal(t, 12.0, ps.Rate(context.Background()))

	fs.value = "18"
	assert.NoError(t, ps.SetRate(context.Background(), 18))
	assert.Equal(t, "18", fs.sets[ConfigKeyHourlyRate])

	// The write invalidated the cache, so the new rate is visible at once.
	assert.Equal(t, 18.0, ps.Rate(context.Background()))
}

func TestPricingAll(t *testing.T) {
	fs := &fakeRateStore{value: "12"}
	ps := NewPricingService(fs, time.Minute, 10)

	entries, err := ps.All(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "12", entries[ConfigKeyHourlyRate])
	assert.Equal(t, "La Esquina del Billar", entries["venue_name"])
}

func TestPricingAllPropagatesStoreError(t *testing.T) {
	fs := &fakeRateStore{err: errors.New("db down")}
	ps := NewPricingService(fs, time.Minute, 10)

	_, err := ps.All(context.Background())
	assert.Error(t, err)
}

func TestPricingSetRateRejectsNonPositive(t *testing.T) {
	ps := NewPricingService(&fakeRateStore{}, time.Minute, 10)
	assert.Error(t, ps.SetRate(context.Background(), 0))
	assert.Error(t, ps.SetRate(context.Background(), -5))
}
