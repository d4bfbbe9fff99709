package releases

import (
	"context"
	"net/http"
	"testing"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/stretchr/testify/assert"
)

func TestManifestTextRewrites(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		latestRelease: githubRelease("v1.2.3", "app-setup.exe", "RELEASES"),
		assetContent:  "A1B2C3 a1b2c3.nupkg 12345\nD4E5F6 d4e5f6-full.NUPKG 67890\n",
	}
	resolver, _ := newTestResolver(source, defaultAppConfigs())

	manifest, err := resolver.ManifestText(context.Background(), "my-app")
	assert.NoError(err)
	assert.Contains(manifest, "https://example/dl/a1b2c3.nupkg")
	assert.Contains(manifest, "https://example/dl/d4e5f6-full.NUPKG")
	// The bare filenames no longer appear as standalone tokens
	assert.NotContains(manifest, " a1b2c3.nupkg")
	assert.Equal(1, source.contentCalls)
}

func TestManifestTextCached(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		latestRelease: githubRelease("v1.2.3", "RELEASES"),
		assetContent:  "A1B2C3 a1b2c3.nupkg 12345\n",
	}
	resolver, _ := newTestResolver(source, defaultAppConfigs())

	first, err := resolver.ManifestText(context.Background(), "my-app")
	assert.NoError(err)
	second, err := resolver.ManifestText(context.Background(), "my-app")
	assert.NoError(err)
	assert.Equal(first, second)
	// Release and content were each fetched once
	assert.Equal(1, source.latestCalls)
	assert.Equal(1, source.contentCalls)
}

func TestManifestTextNoManifestAsset(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: githubRelease("v1.2.3", "app.dmg")}
	resolver, _ := newTestResolver(source, defaultAppConfigs())

	_, err := resolver.ManifestText(context.Background(), "my-app")
	assert.Equal(http.StatusNotFound, apperr.StatusOf(err))
}

func TestManifestTextNoPackages(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		latestRelease: githubRelease("v1.2.3", "RELEASES"),
		assetContent:  "this manifest references no packages at all\n",
	}
	resolver, _ := newTestResolver(source, defaultAppConfigs())

	_, err := resolver.ManifestText(context.Background(), "my-app")
	assert.Equal(http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

func TestManifestTextUnknownApplication(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: githubRelease("v1.2.3", "RELEASES")}
	resolver, _ := newTestResolver(source, defaultAppConfigs())

	_, err := resolver.ManifestText(context.Background(), "unknown")
	assert.Equal(http.StatusNotFound, apperr.StatusOf(err))
	assert.Equal(0, source.latestCalls)
}

func TestRewriteManifest(t *testing.T) {
	assert := assert.New(t)

	rewritten, err := rewriteManifest("HASH a1b2c3.nupkg 123", "https://example/dl/RELEASES")
	assert.NoError(err)
	assert.Equal("HASH https://example/dl/a1b2c3.nupkg 123", rewritten)

	_, err = rewriteManifest("no packages here", "https://example/dl/RELEASES")
	assert.Equal(http.StatusUnprocessableEntity, apperr.StatusOf(err))
}
