package gluon

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gluon-updates/gluon/pkg/cache"
	"github.com/gluon-updates/gluon/pkg/config"
	"github.com/gluon-updates/gluon/pkg/logging"
	"github.com/gluon-updates/gluon/pkg/releases"
	"github.com/gluon-updates/gluon/pkg/server"
	"github.com/samber/lo"
)

const Version = "0.1.0"

const (
	defaultHost = "0.0.0.0"
	defaultPort = 3000
)

func ServeCmd(args []string) error {
	// Flags and help for the command
	var verbose bool
	var configFile string
	var host string
	var port int
	var publicUrl string
	flagSet := flag.NewFlagSet("serve", flag.ExitOnError)
	flagSet.BoolVar(&verbose, "verbose", false, "The flag to set in order to get verbose output")
	flagSet.BoolVar(&verbose, "v", verbose, "Alias for -verbose")
	flagSet.StringVar(&configFile, "config", "gluon", "The path to the config file to read")
	flagSet.StringVar(&host, "host", "", "The address to bind to, overrides the config")
	flagSet.IntVar(&port, "port", 0, "The port to listen on, overrides the config")
	flagSet.StringVar(&publicUrl, "url", "", "The externally reachable base url, overrides the config")
	flagSet.Usage = func() { printCmdUsage(flagSet, "serve", "") }
	flagSet.Parse(args)

	// Create a logger
	desiredLogLevel := lo.Ternary(verbose, slog.LevelDebug, slog.LevelInfo)
	logger := slog.New(logging.NewReadableTextHandler(os.Stdout, &logging.ReadableTextHandlerOptions{Level: desiredLogLevel}))
	logger.Info(fmt.Sprintf("Starting gluon v%s", Version))

	// Read the configuration eagerly so a broken config fails the startup
	registry := cache.NewRegistry()
	configProvider := config.NewProvider(logger, configFile, registry)
	gluonConfig, err := configProvider.Get()
	if err != nil {
		return err
	}

	// Process the overrides
	serverConfig := gluonConfig.Server
	if serverConfig == nil {
		serverConfig = &config.ServerConfig{}
	}
	finalHost := firstNonEmpty(host, serverConfig.Host, defaultHost)
	finalPort := port
	if finalPort == 0 {
		finalPort = lo.Ternary(serverConfig.Port != 0, serverConfig.Port, defaultPort)
	}
	finalPublicUrl := firstNonEmpty(publicUrl, serverConfig.Url)

	// Wire the components
	source := releases.NewGitHubSource()
	resolver := releases.NewResolver(logger, configProvider, registry, source)
	gluonServer := server.New(logger, configProvider, resolver, source, finalPublicUrl)

	address := fmt.Sprintf("%s:%d", finalHost, finalPort)
	logger.Info(fmt.Sprintf("Server listening on http://%s", address))
	return http.ListenAndServe(address, gluonServer.Handler())
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
