package platform

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// This type represents the target platform of a release artifact.
type Platform string

const (
	PLATFORM_DARWIN Platform = "darwin"
	PLATFORM_LINUX  Platform = "linux"
	PLATFORM_WIN32  Platform = "win32"
	// The zero value, used when a file or alias cannot be classified.
	PLATFORM_NONE Platform = ""
)

var windowsExtensions = []string{
	".exe",   // Squirrel.Windows
	".nupkg", // Squirrel.Windows
	".msi",   // WiX MSI
	".appx",  // AppX
}

var macExtensions = []string{
	".dmg", // DMG
	".pkg", // PKG
}

var linuxExtensions = []string{
	".AppImage", // AppImage
	".deb",      // deb
	".rpm",      // RPM
	".flatpak",  // Flatpak
	".snap",     // Snapcraft
}

// Classifies a release artifact by its filename. Files with a known
// platform-specific extension map directly, zip files are classified by the
// platform name appearing in their base name. Everything else is none.
func FromFilename(filename string) Platform {
	extension := filepath.Ext(filename)
	basename := strings.ToLower(strings.TrimSuffix(filepath.Base(filename), extension))

	if lo.Contains(linuxExtensions, extension) || extension == ".zip" && strings.Contains(basename, "linux") {
		return PLATFORM_LINUX
	}
	if lo.Contains(macExtensions, extension) || extension == ".zip" && strings.Contains(basename, "darwin") {
		return PLATFORM_DARWIN
	}
	if lo.Contains(windowsExtensions, extension) || extension == ".zip" && strings.Contains(basename, "win32") {
		return PLATFORM_WIN32
	}

	return PLATFORM_NONE
}

// Gets the file extension that an auto-update client prefers for the given
// platform. Updates on macOS use the zip archive, fresh installs the dmg.
func PreferredExtension(p Platform, isUpdate bool) string {
	switch p {
	case PLATFORM_DARWIN:
		return lo.Ternary(isUpdate, ".zip", ".dmg")
	case PLATFORM_LINUX:
		return ".AppImage"
	case PLATFORM_WIN32:
		return ".exe"
	default:
		return ".zip"
	}
}

// Resolves a client-supplied platform string to the canonical platform.
// Unrecognized input resolves to none, there is no passthrough.
func FromAlias(raw string) Platform {
	switch strings.ToLower(raw) {
	case "mac", "macos", "osx", "darwin":
		return PLATFORM_DARWIN
	case "win", "windows", "win32":
		return PLATFORM_WIN32
	case "linux":
		return PLATFORM_LINUX
	default:
		return PLATFORM_NONE
	}
}

// This type holds the os flags derived from a client's declared identity.
type UserAgentHints struct {
	IsMac     bool
	IsLinux   bool
	IsWindows bool
}

// Resolves the platform from user-agent os hints, preferring mac, then
// linux, then windows when multiple flags are set.
func FromUserAgent(hints UserAgentHints) Platform {
	if hints.IsMac {
		return PLATFORM_DARWIN
	}
	if hints.IsLinux {
		return PLATFORM_LINUX
	}
	if hints.IsWindows {
		return PLATFORM_WIN32
	}
	return PLATFORM_NONE
}

// Derives the os hints from a browser-like user-agent string.
func ParseUserAgent(userAgent string) UserAgentHints {
	lowered := strings.ToLower(userAgent)
	return UserAgentHints{
		IsMac:     strings.Contains(lowered, "macintosh") || strings.Contains(lowered, "mac os x") || strings.Contains(lowered, "darwin"),
		IsLinux:   strings.Contains(lowered, "linux") && !strings.Contains(lowered, "android"),
		IsWindows: strings.Contains(lowered, "windows"),
	}
}
