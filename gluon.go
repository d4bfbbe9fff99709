package gluon

import (
	"log/slog"
	"net/http"

	"github.com/gluon-updates/gluon/pkg/cache"
	"github.com/gluon-updates/gluon/pkg/config"
	"github.com/gluon-updates/gluon/pkg/releases"
	"github.com/gluon-updates/gluon/pkg/server"
)

// Load a given configuration.
func LoadConfig(configPath string) (*config.GluonConfig, error) {
	return config.Load(configPath)
}

// Build the http handler for the update server with the given config file.
// Useful for embedding gluon into an existing http server.
func NewHandler(logger *slog.Logger, configPath string) (http.Handler, error) {
	registry := cache.NewRegistry()
	configProvider := config.NewProvider(logger, configPath, registry)
	gluonConfig, err := configProvider.Get()
	if err != nil {
		return nil, err
	}
	publicUrl := ""
	if gluonConfig.Server != nil {
		publicUrl = gluonConfig.Server.Url
	}
	source := releases.NewGitHubSource()
	resolver := releases.NewResolver(logger, configProvider, registry, source)
	gluonServer := server.New(logger, configProvider, resolver, source, publicUrl)
	return gluonServer.Handler(), nil
}
