package config

import (
	"os"

	"github.com/gluon-updates/gluon/pkg/apperr"
)

// This type represents the gluon config object.
type GluonConfig struct {
	// Settings for the http server.
	Server *ServerConfig `json:"server" yaml:"server"`
	// Global settings for the GitHub api.
	GitHub *GitHubConfig `json:"github" yaml:"github"`
	// The applications to serve, keyed by their id.
	Applications map[string]*ApplicationConfig `json:"applications" yaml:"applications"`
}

// This type defines configurations regarding the http server.
type ServerConfig struct {
	// The address to bind to, defaults to "0.0.0.0".
	Host string `json:"host" yaml:"host"`
	// The port to listen on, defaults to 3000.
	Port int `json:"port" yaml:"port"`
	// The externally reachable base url of the server. Used for the
	// same-origin update urls of private applications.
	Url string `json:"url" yaml:"url"`
}

type GitHubConfig struct {
	// A token to authenticate with the GitHub api. Used as fallback for
	// applications without their own token.
	Token string `json:"token" yaml:"token"`
}

// This type represents a single application served by gluon.
type ApplicationConfig struct {
	// The GitHub repository that hosts the releases of the application.
	Repository *RepositoryConfig `json:"repository" yaml:"repository"`
	// A flag to search prereleases instead of the latest stable release.
	Prerelease bool `json:"prerelease" yaml:"prerelease"`
	// A flag that gates direct artifact urls behind the credential.
	Private bool `json:"private" yaml:"private"`
	// A token to authenticate with the GitHub api for this application.
	Token string `json:"token" yaml:"token"`
}

type RepositoryConfig struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// Expands the token with environment variables.
func (a *ApplicationConfig) TokenExpanded() string {
	return os.ExpandEnv(a.Token)
}

// Expands the global token with environment variables.
func (g *GitHubConfig) TokenExpanded() string {
	if g == nil {
		return ""
	}
	return os.ExpandEnv(g.Token)
}

// Gets the configuration for the given application id.
func (c *GluonConfig) Application(id string) (*ApplicationConfig, error) {
	appConfig, ok := c.Applications[id]
	if !ok {
		return nil, apperr.NotFound("application '%s' not found", id)
	}
	return appConfig, nil
}

// Gets the token to use for the given application, preferring the
// application token over the global one.
func (c *GluonConfig) TokenFor(appConfig *ApplicationConfig) string {
	if token := appConfig.TokenExpanded(); token != "" {
		return token
	}
	return c.GitHub.TokenExpanded()
}
