package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"watersafe/internal/config"
	"watersafe/internal/metrics"
	"watersafe/internal/model"
)

var ErrLoad = errors.New("dataset load failed")

const cacheKey = "dataset"

// Loader fetches both documents and caches the combined snapshot for the
// refresh interval.
type Loader struct {
	cfg        config.DatasetConfig
	client     *resty.Client
	cache      *cache.Cache
	logger     *slog.Logger
	collectors *metrics.Collectors
	clock      func() time.Time
}

func NewLoader(cfg config.DatasetConfig, logger *slog.Logger, collectors *metrics.Collectors) *Loader {
	ttl := cfg.RefreshInterval
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Loader{
		cfg:        cfg,
		client:     client,
		cache:      cache.New(ttl, ttl*2),
		logger:     logger,
		collectors: collectors,
		clock:      time.Now,
	}
}

// Client exposes the HTTP client so callers can mount transports on it.
func (l *Loader) Client() *resty.Client {
	return l.client
}

// Load returns the cached snapshot, fetching it when absent or expired.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if cached, found := l.cache.Get(cacheKey); found {
		if ds, ok := cached.(*Dataset); ok {
			return ds, nil
		}
	}
	return l.Refresh(ctx)
}

// Refresh fetches both documents regardless of the cache. On failure the
// previously cached snapshot, if any, is left in place.
func (l *Loader) Refresh(ctx context.Context) (*Dataset, error) {
	ds, err := l.fetchAll(ctx)
	if err != nil {
		l.count("error")
		if l.logger != nil {
			l.logger.Warn("dataset load failed", "err", err)
		}
		return nil, err
	}
	l.cache.Set(cacheKey, ds, cache.DefaultExpiration)
	l.count("ok")
	if l.logger != nil {
		l.logger.Info("dataset loaded", "systems", len(ds.Systems), "contaminants", len(ds.Contaminants))
	}
	return ds, nil
}

func (l *Loader) Invalidate() {
	l.cache.Flush()
}

func (l *Loader) count(result string) {
	if l.collectors != nil {
		l.collectors.DatasetLoads.WithLabelValues(result).Inc()
	}
}

func (l *Loader) fetchAll(ctx context.Context) (*Dataset, error) {
	raw, err := l.fetch(ctx, l.cfg.SystemsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: systems: %v", ErrLoad, err)
	}
	systems, err := DecodeSystems(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: systems: %v", ErrLoad, err)
	}
	contaminants := Contaminants{}
	if l.cfg.ContaminantsURL != "" {
		raw, err = l.fetch(ctx, l.cfg.ContaminantsURL)
		if err != nil {
			return nil, fmt.Errorf("%w: contaminants: %v", ErrLoad, err)
		}
		contaminants, err = DecodeContaminants(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: contaminants: %v", ErrLoad, err)
		}
	}
	return New(systems, contaminants, l.clock().UTC()), nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if !isRemote(src) {
		return os.ReadFile(strings.TrimPrefix(src, "file://"))
	}
	resp, err := l.client.R().SetContext(ctx).Get(src)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: status %d", src, resp.StatusCode())
	}
	return resp.Body(), nil
}

func isRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DecodeSystems accepts a top-level array of system objects, or an object
// wrapping one under "systems" or "data".
func DecodeSystems(data []byte) ([]model.WaterSystem, error) {
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapped map[string]json.RawMessage
		if json.Unmarshal(data, &wrapped) != nil {
			return nil, err
		}
		inner, ok := wrapped["systems"]
		if !ok {
			inner, ok = wrapped["data"]
		}
		if !ok {
			return nil, errors.New("no systems array found")
		}
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, err
		}
	}
	out := make([]model.WaterSystem, 0, len(list))
	for _, obj := range list {
		if obj == nil {
			continue
		}
		out = append(out, systemFromMap(obj))
	}
	return out, nil
}

func DecodeContaminants(data []byte) (Contaminants, error) {
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(Contaminants, len(raw))
	for key, obj := range raw {
		if obj == nil {
			continue
		}
		out[key] = contaminantFromMap(key, obj)
	}
	return out, nil
}
