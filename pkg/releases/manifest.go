package releases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/gluon-updates/gluon/pkg/cache"
	"github.com/samber/lo"
)

// The logical cache key for the rewritten Squirrel.Windows manifest.
const manifestCacheKey = "win32:RELEASES"

// Returned when the latest release carries no RELEASES asset. The boundary
// maps this to an empty response instead of an error.
var ErrNoManifest = apperr.NotFound("RELEASES file not found")

// Matches every non-space token ending in .nupkg, one per manifest line.
var nupkgRegex = regexp.MustCompile(`(?i)[^ ]*\.nupkg`)

// Gets the RELEASES manifest of the application with all package filenames
// rewritten to externally reachable download urls. Returns a not-found error
// when the latest release has no RELEASES asset.
func (r *Resolver) ManifestText(ctx context.Context, appId string) (string, error) {
	appConfig, gluonConfig, err := r.applicationConfig(appId)
	if err != nil {
		return "", err
	}

	cacheKey := cache.Key(appConfig.Repository.Owner, appConfig.Repository.Name, manifestCacheKey)
	if cachedManifest, ok := cache.GetAs[string](r.githubCache, cacheKey); ok {
		return cachedManifest, nil
	}

	latestRelease, err := r.Latest(ctx, appId)
	if err != nil {
		return "", err
	}

	manifestAsset, found := lo.Find(latestRelease.Assets, func(asset *Asset) bool {
		return asset.Name == manifestAssetName
	})
	if !found {
		return "", ErrNoManifest
	}

	content, err := r.fetchAssetText(ctx, manifestAsset.Url, gluonConfig.TokenFor(appConfig))
	if err != nil {
		r.logger.Error(fmt.Sprintf("Failed fetching RELEASES file for '%s': %v", appId, err))
		return "", apperr.Upstream("failed to fetch the RELEASES file")
	}

	rewrittenManifest, err := rewriteManifest(content, manifestAsset.DownloadUrl)
	if err != nil {
		return "", err
	}

	r.logger.Info(fmt.Sprintf("Caching RELEASES manifest for '%s'", appId), slog.String("version", latestRelease.Version))
	r.githubCache.Set(cacheKey, rewrittenManifest)
	return rewrittenManifest, nil
}

// Replaces every package filename in the manifest text with the public
// download url of the RELEASES asset, its trailing RELEASES path segment
// substituted by the filename.
func rewriteManifest(content string, manifestDownloadUrl string) (string, error) {
	if !nupkgRegex.MatchString(content) {
		return "", apperr.ContentInvalid("RELEASES content doesn't contain any .nupkg files")
	}
	baseUrl := strings.TrimSuffix(manifestDownloadUrl, manifestAssetName)
	rewritten := nupkgRegex.ReplaceAllStringFunc(content, func(packageFile string) string {
		return baseUrl + packageFile
	})
	return rewritten, nil
}

func (r *Resolver) fetchAssetText(ctx context.Context, assetUrl string, token string) (string, error) {
	body, err := r.source.AssetContent(ctx, assetUrl, token)
	if err != nil {
		return "", err
	}
	defer body.Close()
	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
