// Package flags provides the domain model for feature flags.
//
// Flag names are a closed enum resolved through an explicit default table so
// that a typo in a flag name is a compile error, not a silently-false lookup.
package flags

import "time"

// Flag identifies a known feature flag.
type Flag string

// Known flags.
const (
	// WeatherAlerts gates the severe-weather alerts section of the
	// forecast response.
	WeatherAlerts Flag = "WeatherAlerts"

	// DetailedForecast gates the humidity field in forecast responses.
	DetailedForecast Flag = "DetailedForecast"

	// UpstreamForecast gates whether the frontend calls the forecast API
	// rather than generating locally.
	UpstreamForecast Flag = "UpstreamForecast"
)

// Defaults returns the static default value for every known flag.
// Flags not listed here default to false.
func Defaults() map[Flag]bool {
	return map[Flag]bool{
		WeatherAlerts:    false,
		DetailedForecast: false,
		UpstreamForecast: true,
	}
}

// Snapshot is an immutable point-in-time view of flag state.
type Snapshot struct {
	// Values maps each flag to its state.
	Values map[Flag]bool

	// FetchedAt is when the snapshot was produced.
	FetchedAt time.Time

	// Source identifies where the snapshot came from ("remote" or "local").
	Source string
}

// IsEnabled resolves a flag against the snapshot, falling back to false for
// unknown flags. It never errors.
func (s Snapshot) IsEnabled(flag Flag) bool {
	if s.Values == nil {
		return false
	}
	return s.Values[flag]
}

// LocalSnapshot builds a snapshot backed by the given defaults.
func LocalSnapshot(defaults map[Flag]bool) Snapshot {
	values := make(map[Flag]bool, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return Snapshot{
		Values:    values,
		FetchedAt: time.Now(),
		Source:    "local",
	}
}

// Provider resolves flag state. Implementations must be non-blocking and
// must never return an error from evaluation.
type Provider interface {
	// IsEnabled returns the current value of the flag.
	IsEnabled(flag Flag) bool
}

// Static is a fixed-value Provider, useful for tests and local defaults.
type Static map[Flag]bool

// IsEnabled resolves the flag against the static table.
func (s Static) IsEnabled(flag Flag) bool {
	return s[flag]
}

var _ Provider = Static(nil)
