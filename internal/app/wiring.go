package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"scwm-service/internal/adapters/advisor"
	"scwm-service/internal/adapters/cache"
	"scwm-service/internal/adapters/classifier"
	"scwm-service/internal/adapters/routing"
	"scwm-service/internal/config"
	"scwm-service/internal/ports"
)

// Routing picks OpenRouteService when a key is configured and falls back to
// straight-line routes otherwise. The geocoder is nil without a key.
func Routing(cfg *config.Config, store *Store) (ports.RouteProvider, ports.Geocoder, error) {
	if cfg.ORS.APIKey == "" {
		zap.L().Info("no ORS key configured, routing with straight lines")
		return routing.StraightLineProvider{SpeedKmh: cfg.Map.FallbackSpeedKmh}, nil, nil
	}

	orsCfg := routing.ORSConfig{
		APIKey:  cfg.ORS.APIKey,
		BaseURL: cfg.ORS.BaseURL,
		Profile: cfg.ORS.Profile,
		Country: cfg.ORS.Country,
		Timeout: cfg.ORS.Timeout,
	}

	provider, err := routing.NewORSRouteProvider(orsCfg, store.RouteCache)
	if err != nil {
		return nil, nil, eris.Wrap(err, "routing: route provider")
	}
	geocoder, err := routing.NewORSGeocoder(orsCfg, store.GeocodeCache)
	if err != nil {
		return nil, nil, eris.Wrap(err, "routing: geocoder")
	}
	return provider, geocoder, nil
}

// Analysis returns the classifier and advisor; either may be nil when not
// configured.
func Analysis(cfg *config.Config) (ports.Classifier, ports.Advisor) {
	var (
		cls ports.Classifier
		adv ports.Advisor
	)
	if cfg.Classifier.URL != "" {
		cls = classifier.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout)
	} else {
		zap.L().Warn("no classifier configured, /analyze will answer 503")
	}
	if cfg.Anthropic.APIKey != "" {
		adv = advisor.NewAnthropicAdvisor(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	}
	return cls, adv
}

// CachedCenters puts the Redis snapshot cache in front of centers when
// redis.addr is set. The returned close func is never nil.
func CachedCenters(ctx context.Context, cfg config.RedisConfig, centers ports.CenterRepository) (ports.CenterRepository, func(), error) {
	if cfg.Addr == "" {
		return centers, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, eris.Wrapf(err, "redis: ping %s", cfg.Addr)
	}

	zap.L().Info("center snapshot cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.CenterTTL))
	return cache.NewCenterCache(client, centers, cfg.CenterTTL), func() { _ = client.Close() }, nil
}

// InvalidateCenters drops the cached center snapshot, if centers has one.
func InvalidateCenters(ctx context.Context, centers ports.CenterRepository) error {
	inv, ok := centers.(interface {
		Invalidate(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	return inv.Invalidate(ctx)
}
