package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gluon-updates/gluon/pkg/cache"
	"github.com/gluon-updates/gluon/pkg/config"
	"github.com/gluon-updates/gluon/pkg/releases"
	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
)

// A source fake serving a fixed release for all repositories.
type fakeSource struct {
	latestRelease *github.RepositoryRelease
	assetContent  string
	redirect      string
}

func (s *fakeSource) LatestRelease(ctx context.Context, owner string, repo string, token string) (*github.RepositoryRelease, error) {
	return s.latestRelease, nil
}

func (s *fakeSource) RecentReleases(ctx context.Context, owner string, repo string, perPage int, token string) ([]*github.RepositoryRelease, error) {
	return []*github.RepositoryRelease{s.latestRelease}, nil
}

func (s *fakeSource) AssetContent(ctx context.Context, assetUrl string, token string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.assetContent)), nil
}

func (s *fakeSource) AssetRedirect(ctx context.Context, assetUrl string, token string) (string, error) {
	return s.redirect, nil
}

func testRelease(tag string, assetNames ...string) *github.RepositoryRelease {
	assets := []*github.ReleaseAsset{}
	for _, name := range assetNames {
		assets = append(assets, &github.ReleaseAsset{
			Name:               github.Ptr(name),
			ContentType:        github.Ptr("application/octet-stream"),
			URL:                github.Ptr("https://api.example/assets/" + name),
			BrowserDownloadURL: github.Ptr("https://example/dl/" + name),
			Size:               github.Ptr(1024),
		})
	}
	return &github.RepositoryRelease{
		TagName:     github.Ptr(tag),
		Body:        github.Ptr("release notes"),
		PublishedAt: &github.Timestamp{Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		Assets:      assets,
	}
}

func newTestHandler(source releases.Source, appConfigs map[string]*config.ApplicationConfig) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := cache.NewRegistry()
	provider := config.NewStaticProvider(&config.GluonConfig{Applications: appConfigs}, registry)
	resolver := releases.NewResolver(logger, provider, registry, source)
	return New(logger, provider, resolver, source, "").Handler()
}

func publicAppConfigs() map[string]*config.ApplicationConfig {
	return map[string]*config.ApplicationConfig{
		"my-app": {Repository: &config.RepositoryConfig{Owner: "my-owner", Name: "my-repo"}},
	}
}

func privateAppConfigs() map[string]*config.ApplicationConfig {
	return map[string]*config.ApplicationConfig{
		"my-app": {
			Repository: &config.RepositoryConfig{Owner: "my-owner", Name: "my-repo"},
			Private:    true,
			Token:      "secret-token",
		},
	}
}

func performRequest(handler http.Handler, path string, headers ...map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	for _, headerSet := range headers {
		for key, value := range headerSet {
			request.Header.Set(key, value)
		}
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestOverview(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg", "RELEASES")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app")
	assert.Equal(http.StatusOK, response.Code)

	payload := map[string]any{}
	assert.NoError(json.Unmarshal(response.Body.Bytes(), &payload))
	assert.Equal("my-owner", payload["owner"])
	assert.Equal("my-repo", payload["name"])
	assert.Equal("my-owner/my-repo", payload["repository"])
	assert.Equal("1.2.3", payload["version"])
	assert.Equal("https://github.com/my-owner/my-repo/releases/tag/1.2.3", payload["changelog"])
	assert.Equal("https://github.com/my-owner/my-repo/releases", payload["releases"])
	assert.Equal("https://github.com/my-owner/my-repo", payload["github"])
	assert.Len(payload["assets"], 2)
}

func TestOverviewUnknownApplication(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/unknown")
	assert.Equal(http.StatusNotFound, response.Code)
	assert.Contains(response.Body.String(), "not found")
}

func TestDownloadRedirect(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg", "app-darwin.zip", "app-setup.exe")}
	handler := newTestHandler(source, publicAppConfigs())

	// Install mode serves the dmg
	response := performRequest(handler, "/my-app/download/mac")
	assert.Equal(http.StatusFound, response.Code)
	assert.Equal("https://example/dl/app.dmg", response.Header().Get("Location"))

	// Update mode serves the zip
	response = performRequest(handler, "/my-app/download/darwin?update=true")
	assert.Equal(http.StatusFound, response.Code)
	assert.Equal("https://example/dl/app-darwin.zip", response.Header().Get("Location"))

	// Explicit format
	response = performRequest(handler, "/my-app/download/windows?format=exe")
	assert.Equal(http.StatusFound, response.Code)
	assert.Equal("https://example/dl/app-setup.exe", response.Header().Get("Location"))

	// Explicit format with no matching asset is strict
	response = performRequest(handler, "/my-app/download/mac?format=exe")
	assert.Equal(http.StatusNotFound, response.Code)
}

func TestDownloadUnknownPlatform(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app/download/amiga")
	assert.Equal(http.StatusNotFound, response.Code)
	assert.Contains(response.Body.String(), "not supported")
}

func TestDownloadForUserAgent(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg", "app-setup.exe")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app/download", map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	assert.Equal(http.StatusFound, response.Code)
	assert.Equal("https://example/dl/app.dmg", response.Header().Get("Location"))

	// No os hints in the user agent
	response = performRequest(handler, "/my-app/download", map[string]string{"User-Agent": "curl/8.4.0"})
	assert.Equal(http.StatusNotFound, response.Code)
}

func TestDownloadPrivate(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		latestRelease: testRelease("v1.2.3", "app.dmg"),
		redirect:      "https://objects.example/signed/app.dmg",
	}
	handler := newTestHandler(source, privateAppConfigs())

	// The upstream redirect location is passed thru instead of the public url
	response := performRequest(handler, "/my-app/download/mac")
	assert.Equal(http.StatusFound, response.Code)
	assert.Equal("https://objects.example/signed/app.dmg", response.Header().Get("Location"))
}

func TestUpdateCheck(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg", "app-darwin.zip")}
	handler := newTestHandler(source, publicAppConfigs())

	// An older candidate gets the update payload
	response := performRequest(handler, "/my-app/update/darwin/1.0.0")
	assert.Equal(http.StatusOK, response.Code)
	payload := map[string]any{}
	assert.NoError(json.Unmarshal(response.Body.Bytes(), &payload))
	assert.Equal("1.2.3", payload["name"])
	assert.Equal("release notes", payload["notes"])
	assert.NotEmpty(payload["pub_date"])
	assert.Equal("https://example/dl/app-darwin.zip", payload["url"])

	// The current version gets no update
	response = performRequest(handler, "/my-app/update/darwin/1.2.3")
	assert.Equal(http.StatusNoContent, response.Code)

	// Same with a leading v
	response = performRequest(handler, "/my-app/update/darwin/v1.2.3")
	assert.Equal(http.StatusNoContent, response.Code)

	// An invalid version is rejected
	response = performRequest(handler, "/my-app/update/darwin/not-a-version")
	assert.Equal(http.StatusBadRequest, response.Code)

	// An unknown platform is rejected
	response = performRequest(handler, "/my-app/update/amiga/1.0.0")
	assert.Equal(http.StatusNotFound, response.Code)
}

func TestUpdateCheckNoMatchingAsset(t *testing.T) {
	assert := assert.New(t)

	// Only windows assets available, darwin checks get no update
	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app-setup.exe")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app/update/darwin/1.0.0")
	assert.Equal(http.StatusNoContent, response.Code)
}

func TestUpdateCheckPrivate(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app-darwin.zip")}
	handler := newTestHandler(source, privateAppConfigs())

	response := performRequest(handler, "/my-app/update/darwin/1.0.0")
	assert.Equal(http.StatusOK, response.Code)
	payload := map[string]any{}
	assert.NoError(json.Unmarshal(response.Body.Bytes(), &payload))
	// Private apps are served thru the same-origin download route
	assert.Equal("http://example.com/my-app/download/darwin?update=true", payload["url"])
}

func TestManifest(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		latestRelease: testRelease("v1.2.3", "app-setup.exe", "RELEASES"),
		assetContent:  "A1B2C3 a1b2c3.nupkg 12345\n",
	}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app/update/win32/1.0.0/RELEASES")
	assert.Equal(http.StatusOK, response.Code)
	assert.Equal("application/octet-stream", response.Header().Get("Content-Type"))
	assert.Contains(response.Body.String(), "https://example/dl/a1b2c3.nupkg")
}

func TestManifestNoAsset(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app-setup.exe")}
	handler := newTestHandler(source, publicAppConfigs())

	// A release without a RELEASES asset is served as empty response
	response := performRequest(handler, "/my-app/update/win32/1.0.0/RELEASES")
	assert.Equal(http.StatusNoContent, response.Code)
}

func TestUnknownRoute(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{latestRelease: testRelease("v1.2.3", "app.dmg")}
	handler := newTestHandler(source, publicAppConfigs())

	response := performRequest(handler, "/my-app/does/not/exist")
	assert.Equal(http.StatusNotFound, response.Code)
	assert.Contains(response.Body.String(), "error")
}
