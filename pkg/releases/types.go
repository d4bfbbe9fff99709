package releases

import (
	"time"

	"github.com/gluon-updates/gluon/pkg/platform"
)

// This type contains the normalized latest release of an application.
type Release struct {
	// The version of the release, without a leading "v".
	Version string `json:"version"`
	// The release notes, may be empty.
	Notes string `json:"notes"`
	// The publish time of the release, null when upstream provides none.
	PublishedAt *time.Time `json:"publishedAt"`
	// The downloadable artifacts of the release. Only assets with a known
	// platform and the RELEASES manifest survive normalization.
	Assets []*Asset `json:"assets"`
}

// This type represents a single downloadable artifact of a release.
type Asset struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	// The classified target platform, empty for the RELEASES manifest.
	Platform platform.Platform `json:"platform"`
	// The api url of the asset, needs a credential for private repositories.
	Url string `json:"url"`
	// The public browser-facing download url.
	DownloadUrl string `json:"downloadUrl"`
	// The size in bytes.
	Size int `json:"size"`
}
