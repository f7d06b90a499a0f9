package keyring

import "runtime"

// Platform identifies an operating system a store can run on.
type Platform string

const (
	Linux   Platform = "linux"
	FreeBSD Platform = "freebsd"
	OpenBSD Platform = "openbsd"
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	IOS     Platform = "ios"
)

// AllPlatforms lists every platform a store may declare.
var AllPlatforms = []Platform{Linux, FreeBSD, OpenBSD, Windows, MacOS, IOS}

// PlatformFromGOOS maps a GOOS value to a Platform.
func PlatformFromGOOS(goos string) Platform {
	if goos == "darwin" {
		return MacOS
	}
	return Platform(goos)
}

// CurrentPlatform is the platform the binary was built for.
func CurrentPlatform() Platform {
	return PlatformFromGOOS(runtime.GOOS)
}

// Supports reports whether p appears in platforms.
func Supports(platforms []Platform, p Platform) bool {
	for _, candidate := range platforms {
		if candidate == p {
			return true
		}
	}
	return false
}
