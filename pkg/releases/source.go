package releases

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v80/github"
)

const userAgent = "gluon update server (https://github.com/gluon-updates/gluon)"

// This is the interface for the upstream release host. It exists so the
// resolver can be tested with a fake that counts upstream calls.
type Source interface {
	// Gets the latest stable release of the repository.
	LatestRelease(ctx context.Context, owner string, repo string, token string) (*github.RepositoryRelease, error)
	// Lists the most recent releases of the repository, newest first.
	RecentReleases(ctx context.Context, owner string, repo string, perPage int, token string) ([]*github.RepositoryRelease, error)
	// Gets the binary content of an asset via its api url.
	AssetContent(ctx context.Context, assetUrl string, token string) (io.ReadCloser, error)
	// Resolves the redirect location for an asset via its api url, without
	// following the redirect.
	AssetRedirect(ctx context.Context, assetUrl string, token string) (string, error)
}

// This type implements the source against the GitHub api.
type GitHubSource struct {
	httpClient *http.Client
}

func NewGitHubSource() *GitHubSource {
	return &GitHubSource{httpClient: http.DefaultClient}
}

func (s *GitHubSource) client(token string) *github.Client {
	client := github.NewClient(s.httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

func (s *GitHubSource) LatestRelease(ctx context.Context, owner string, repo string, token string) (*github.RepositoryRelease, error) {
	release, _, err := s.client(token).Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (s *GitHubSource) RecentReleases(ctx context.Context, owner string, repo string, perPage int, token string) ([]*github.RepositoryRelease, error) {
	listOptions := &github.ListOptions{PerPage: perPage}
	githubReleases, _, err := s.client(token).Repositories.ListReleases(ctx, owner, repo, listOptions)
	if err != nil {
		return nil, err
	}
	return githubReleases, nil
}

func (s *GitHubSource) AssetContent(ctx context.Context, assetUrl string, token string) (io.ReadCloser, error) {
	request, err := s.newAssetRequest(ctx, assetUrl, token)
	if err != nil {
		return nil, err
	}
	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode >= 400 {
		response.Body.Close()
		return nil, fmt.Errorf("asset request returned status %d", response.StatusCode)
	}
	return response.Body, nil
}

func (s *GitHubSource) AssetRedirect(ctx context.Context, assetUrl string, token string) (string, error) {
	request, err := s.newAssetRequest(ctx, assetUrl, token)
	if err != nil {
		return "", err
	}
	// Do not follow the redirect, the location itself is the result
	noRedirectClient := &http.Client{
		Transport: s.httpClient.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	response, err := noRedirectClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	location := response.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("asset request returned no redirect location (status %d)", response.StatusCode)
	}
	return location, nil
}

func (s *GitHubSource) newAssetRequest(ctx context.Context, assetUrl string, token string) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, assetUrl, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/octet-stream")
	request.Header.Set("User-Agent", userAgent)
	if token != "" {
		request.Header.Set("Authorization", fmt.Sprintf("token %s", token))
	}
	return request, nil
}
