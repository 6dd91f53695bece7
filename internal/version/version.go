// Package version provides build and version information.
package version

import "fmt"

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Orbit controls, nearby-station export (JSON/XLSX), metrics endpoint
// 0.2.0 - Tap-to-pick with fly-to camera, nearby station panel, local time
// 0.1.0 - Initial release: terminal globe, station markers, headless render

// UserAgent is sent with catalog requests.
func UserAgent() string {
	return fmt.Sprintf("ls-airwaves/%s (Radio Globe)", Version)
}
