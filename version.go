// Package skycast provides the version information for skycast.
package skycast

// Version is the current version of skycast.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
