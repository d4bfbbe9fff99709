package releases

import (
	"strings"

	"github.com/gluon-updates/gluon/pkg/apperr"
	"github.com/gluon-updates/gluon/pkg/platform"
	"github.com/samber/lo"
)

// Picks the asset to serve for the given platform. An explicit format is a
// strict contract and fails when no asset matches it, while the implicit
// preferred extension degrades to the first asset of the platform.
func SelectAsset(assets []*Asset, target platform.Platform, explicitFormat string, isUpdate bool) (*Asset, error) {
	platformAssets := lo.Filter(assets, func(asset *Asset, _ int) bool {
		return asset.Platform == target
	})

	extension := platform.PreferredExtension(target, isUpdate)
	if explicitFormat != "" {
		extension = normalizeFormat(explicitFormat)
	}

	preferredAsset, found := lo.Find(platformAssets, func(asset *Asset) bool {
		return strings.HasSuffix(strings.ToLower(asset.Name), strings.ToLower(extension))
	})

	if explicitFormat != "" {
		if !found {
			return nil, apperr.NotFound("no %s release found for the platform %s", strings.TrimPrefix(extension, "."), target)
		}
		return preferredAsset, nil
	}

	if found {
		return preferredAsset, nil
	}
	// Degrade to the best available asset for the platform
	if len(platformAssets) > 0 {
		return platformAssets[0], nil
	}
	return nil, apperr.NotFound("no release found for the platform %s", target)
}

// Normalizes an explicit format to a lowercase extension with a leading dot.
func normalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimPrefix(format, "."))
	return "." + normalized
}
