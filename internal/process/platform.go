package process

import "runtime"

// currentPlatform maps runtime.GOOS onto the Platform vocabulary used by
// ProcessDefinition.Platform.
func currentPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return string(PlatformWin32)
	case "darwin":
		return string(PlatformDarwin)
	default:
		return string(PlatformLinux)
	}
}
