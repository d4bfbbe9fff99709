package config

import (
	"fmt"
	"log/slog"

	"github.com/gluon-updates/gluon/pkg/cache"
)

const settingsCacheKey = "config"

// This type loads the configuration lazily and keeps the parsed result in
// the "settings" cache namespace, which has no expiry.
type Provider struct {
	logger        *slog.Logger
	configPath    string
	settingsCache *cache.Cache
}

func NewProvider(logger *slog.Logger, configPath string, registry *cache.Registry) *Provider {
	return &Provider{
		logger:        logger,
		configPath:    configPath,
		settingsCache: registry.Namespace("settings", 0),
	}
}

// Creates a provider that serves an already built configuration. Mainly
// useful for tests and embedders that construct the config in code.
func NewStaticProvider(gluonConfig *GluonConfig, registry *cache.Registry) *Provider {
	provider := &Provider{
		logger:        slog.Default(),
		settingsCache: registry.Namespace("settings", 0),
	}
	provider.settingsCache.Set(settingsCacheKey, gluonConfig)
	return provider
}

// Gets the configuration, loading it from file on first use.
func (p *Provider) Get() (*GluonConfig, error) {
	if cachedConfig, ok := cache.GetAs[*GluonConfig](p.settingsCache, settingsCacheKey); ok {
		return cachedConfig, nil
	}

	p.logger.Info(fmt.Sprintf("Loading configuration from '%s'", p.configPath))
	loadedConfig, err := Load(p.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed loading configuration: %w", err)
	}
	p.settingsCache.Set(settingsCacheKey, loadedConfig)
	p.logger.Info(fmt.Sprintf("Configuration loaded with %d application(s)", len(loadedConfig.Applications)))
	return loadedConfig, nil
}

// Drops the cached configuration so the next Get reloads it from file.
func (p *Provider) Invalidate() {
	p.settingsCache.Delete(settingsCacheKey)
}
