package server

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/gluon-updates/gluon/pkg/platform"
	"github.com/gluon-updates/gluon/pkg/releases"
	"github.com/roemer/gover"
)

// The regexp used to parse versions of update checks, semver with an
// optional leading "v" and an optional prerelease part.
var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-(.+))?$`)

type overviewResponse struct {
	Owner       string            `json:"owner"`
	Name        string            `json:"name"`
	Repository  string            `json:"repository"`
	Version     string            `json:"version"`
	PublishedAt *time.Time        `json:"publishedAt"`
	Assets      []*releases.Asset `json:"assets"`
	Changelog   string            `json:"changelog"`
	Releases    string            `json:"releases"`
	GitHub      string            `json:"github"`
}

// Serves the overview of the latest release of an application.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	appId := r.PathValue("application")

	gluonConfig, err := s.configProvider.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	appConfig, err := gluonConfig.Application(appId)
	if err != nil {
		s.writeError(w, err)
		return
	}
	latestRelease, err := s.resolver.Latest(r.Context(), appId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	repository := fmt.Sprintf("%s/%s", appConfig.Repository.Owner, appConfig.Repository.Name)
	s.writeJson(w, http.StatusOK, overviewResponse{
		Owner:       appConfig.Repository.Owner,
		Name:        appConfig.Repository.Name,
		Repository:  repository,
		Version:     latestRelease.Version,
		PublishedAt: latestRelease.PublishedAt,
		Assets:      latestRelease.Assets,
		Changelog:   fmt.Sprintf("https://github.com/%s/releases/tag/%s", repository, latestRelease.Version),
		Releases:    fmt.Sprintf("https://github.com/%s/releases", repository),
		GitHub:      fmt.Sprintf("https://github.com/%s", repository),
	})
}

// Serves a download redirect for an explicitly requested platform.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	targetPlatform := platform.FromAlias(r.PathValue("platform"))
	if targetPlatform == platform.PLATFORM_NONE {
		s.writeError(w, apperr.NotFound("the platform '%s' is not supported", r.PathValue("platform")))
		return
	}
	s.serveDownload(w, r, targetPlatform)
}

// Serves a download redirect with the platform detected from the client's
// user-agent.
func (s *Server) handleDownloadForUserAgent(w http.ResponseWriter, r *http.Request) {
	targetPlatform := platform.FromUserAgent(platform.ParseUserAgent(r.UserAgent()))
	if targetPlatform == platform.PLATFORM_NONE {
		s.writeError(w, apperr.NotFound("could not detect the platform from the user agent"))
		return
	}
	s.serveDownload(w, r, targetPlatform)
}

func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request, targetPlatform platform.Platform) {
	appId := r.PathValue("application")
	query := r.URL.Query()
	isUpdate := strings.EqualFold(query.Get("update"), "true")
	explicitFormat := strings.ToLower(query.Get("format"))

	gluonConfig, err := s.configProvider.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	appConfig, err := gluonConfig.Application(appId)
	if err != nil {
		s.writeError(w, err)
		return
	}
	latestRelease, err := s.resolver.Latest(r.Context(), appId)
	if err != nil {
		s.writeError(w, err)
		return
	}
	targetAsset, err := releases.SelectAsset(latestRelease.Assets, targetPlatform, explicitFormat, isUpdate)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Private artifacts are gated behind the credential, so resolve the
	// upstream redirect once and pass its location through
	token := gluonConfig.TokenFor(appConfig)
	if appConfig.Private && token != "" {
		location, err := s.source.AssetRedirect(r.Context(), targetAsset.Url, token)
		if err != nil {
			s.writeError(w, apperr.Upstream("failed to resolve the download location"))
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
		return
	}

	http.Redirect(w, r, targetAsset.DownloadUrl, http.StatusFound)
}

type updateResponse struct {
	Name    string     `json:"name"`
	Notes   string     `json:"notes"`
	PubDate *time.Time `json:"pub_date"`
	Url     string     `json:"url"`
}

// Serves the update check for a platform and a candidate version.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	appId := r.PathValue("application")

	candidateVersion, err := gover.ParseVersionFromRegex(r.PathValue("version"), versionRegex)
	if err != nil {
		s.writeError(w, apperr.Invalid("the specified version is not valid"))
		return
	}
	targetPlatform := platform.FromAlias(r.PathValue("platform"))
	if targetPlatform == platform.PLATFORM_NONE {
		s.writeError(w, apperr.NotFound("the platform '%s' is not supported", r.PathValue("platform")))
		return
	}

	gluonConfig, err := s.configProvider.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	appConfig, err := gluonConfig.Application(appId)
	if err != nil {
		s.writeError(w, err)
		return
	}
	latestRelease, err := s.resolver.Latest(r.Context(), appId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Updates are applied from the archive format of the platform
	targetAsset, err := releases.SelectAsset(latestRelease.Assets, targetPlatform, "", true)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// No update when the candidate is already the latest version (or newer)
	latestVersion, err := gover.ParseVersionFromRegex(latestRelease.Version, versionRegex)
	if err != nil || !candidateVersion.LessThan(latestVersion) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	downloadUrl := targetAsset.DownloadUrl
	if appConfig.Private && gluonConfig.TokenFor(appConfig) != "" {
		// Private artifacts are served thru the same-origin download route
		downloadUrl = fmt.Sprintf("%s/%s/download/%s?update=true", s.serverUrl(r), appId, targetPlatform)
	}

	s.writeJson(w, http.StatusOK, updateResponse{
		Name:    latestRelease.Version,
		Notes:   latestRelease.Notes,
		PubDate: latestRelease.PublishedAt,
		Url:     downloadUrl,
	})
}

// Serves the rewritten Squirrel.Windows RELEASES manifest.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	appId := r.PathValue("application")

	manifest, err := s.resolver.ManifestText(r.Context(), appId)
	if err != nil {
		// A release without a RELEASES asset is served as empty response
		if errors.Is(err, releases.ErrNoManifest) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(manifest)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(manifest)); err != nil {
		s.logger.Error(fmt.Sprintf("Failed writing manifest response: %v", err))
	}
}
