package releases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/gluon-updates/gluon/pkg/cache"
	"github.com/gluon-updates/gluon/pkg/config"
	"github.com/gluon-updates/gluon/pkg/platform"
	"github.com/google/go-github/v80/github"
	"github.com/samber/lo"
)

const (
	// The ttl for release and manifest data in the github namespace.
	githubCacheTtl = 900 * time.Second
	// The logical cache key for the normalized release of a repository.
	releaseCacheKey = "release"
	// The filename of the Squirrel.Windows manifest. The asset is retained
	// unconditionally during normalization, it never classifies by extension.
	manifestAssetName = "RELEASES"
	// The bounded window of recent releases searched for prereleases.
	recentReleasesPageSize = 100
)

// This type resolves the latest release of configured applications from the
// upstream release host and caches the normalized result.
type Resolver struct {
	logger         *slog.Logger
	configProvider *config.Provider
	githubCache    *cache.Cache
	source         Source
}

func NewResolver(logger *slog.Logger, configProvider *config.Provider, registry *cache.Registry, source Source) *Resolver {
	return &Resolver{
		logger:         logger.With(slog.String("component", "resolver")),
		configProvider: configProvider,
		githubCache:    registry.Namespace("github", githubCacheTtl),
		source:         source,
	}
}

// Gets the latest release for the application, from the cache when it was
// resolved within the ttl window. With the prerelease flag set, the most
// recent non-draft prerelease is used instead of the latest stable release.
func (r *Resolver) Latest(ctx context.Context, appId string) (*Release, error) {
	appConfig, gluonConfig, err := r.applicationConfig(appId)
	if err != nil {
		return nil, err
	}

	token := gluonConfig.TokenFor(appConfig)
	if appConfig.Private && token == "" {
		return nil, apperr.Unauthorized("no GitHub token available for private repository '%s'", appId)
	}

	cacheKey := cache.Key(appConfig.Repository.Owner, appConfig.Repository.Name, releaseCacheKey)
	if cachedRelease, ok := cache.GetAs[*Release](r.githubCache, cacheKey); ok {
		return cachedRelease, nil
	}

	// Only search for prereleases if the flag is set
	var githubRelease *github.RepositoryRelease
	if appConfig.Prerelease {
		recentReleases, err := r.source.RecentReleases(ctx, appConfig.Repository.Owner, appConfig.Repository.Name, recentReleasesPageSize, token)
		if err != nil {
			r.logger.Error(fmt.Sprintf("Failed listing releases for '%s': %v", appId, err))
			return nil, apperr.Upstream("failed to fetch latest release from GitHub")
		}
		prerelease, found := lo.Find(recentReleases, func(release *github.RepositoryRelease) bool {
			return !release.GetDraft() && release.GetPrerelease()
		})
		if !found {
			return nil, apperr.Upstream("did not find any prereleases for '%s'", appId)
		}
		githubRelease = prerelease
	} else {
		latestRelease, err := r.source.LatestRelease(ctx, appConfig.Repository.Owner, appConfig.Repository.Name, token)
		if err != nil {
			r.logger.Error(fmt.Sprintf("Failed fetching latest release for '%s': %v", appId, err))
			return nil, apperr.Upstream("failed to fetch latest release from GitHub")
		}
		githubRelease = latestRelease
	}

	normalizedRelease, err := normalizeRelease(githubRelease)
	if err != nil {
		return nil, err
	}

	r.logger.Info(fmt.Sprintf("Caching release for '%s'", appId), slog.String("version", normalizedRelease.Version))
	r.githubCache.Set(cacheKey, normalizedRelease)
	return normalizedRelease, nil
}

// Converts an upstream release into the canonical shape: the version is the
// tag without a leading "v", the publish time falls back to the creation
// time, and only classifiable assets plus the RELEASES manifest are kept.
func normalizeRelease(githubRelease *github.RepositoryRelease) (*Release, error) {
	version := strings.TrimPrefix(githubRelease.GetTagName(), "v")
	if version == "" {
		return nil, apperr.Upstream("release has no usable tag name")
	}

	var publishedAt *time.Time
	if timestamp := githubRelease.PublishedAt; timestamp != nil {
		publishedAt = &timestamp.Time
	} else if timestamp := githubRelease.CreatedAt; timestamp != nil {
		publishedAt = &timestamp.Time
	}

	assets := []*Asset{}
	for _, githubAsset := range githubRelease.Assets {
		assetPlatform := platform.FromFilename(githubAsset.GetName())
		if assetPlatform == platform.PLATFORM_NONE && githubAsset.GetName() != manifestAssetName {
			continue
		}
		assets = append(assets, &Asset{
			Name:        githubAsset.GetName(),
			ContentType: githubAsset.GetContentType(),
			Platform:    assetPlatform,
			Url:         githubAsset.GetURL(),
			DownloadUrl: githubAsset.GetBrowserDownloadURL(),
			Size:        githubAsset.GetSize(),
		})
	}

	return &Release{
		Version:     version,
		Notes:       githubRelease.GetBody(),
		PublishedAt: publishedAt,
		Assets:      assets,
	}, nil
}

func (r *Resolver) applicationConfig(appId string) (*config.ApplicationConfig, *config.GluonConfig, error) {
	gluonConfig, err := r.configProvider.Get()
	if err != nil {
		return nil, nil, err
	}
	appConfig, err := gluonConfig.Application(appId)
	if err != nil {
		return nil, nil, err
	}
	return appConfig, gluonConfig, nil
}
