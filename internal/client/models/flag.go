// Package models defines the values returned by the OpenFlag API client.
package models

import "time"

// Flag is a feature flag as reported by the server.
type Flag struct {
	Name        string
	Value       bool
	Description string
	// UsageLog lists the instants at which the flag was checked, oldest
	// first. It includes the check that returned this Flag, if any.
	UsageLog []time.Time
}

// LastUsed returns the most recent check, or the zero time for a flag that
// was never checked.
func (f Flag) LastUsed() time.Time {
	if len(f.UsageLog) == 0 {
		return time.Time{}
	}
	return f.UsageLog[len(f.UsageLog)-1]
}

// TimesFromSeconds converts fractional Unix seconds as sent on the wire.
func TimesFromSeconds(secs []float64) []time.Time {
	out := make([]time.Time, len(secs))
	for i, s := range secs {
		out[i] = time.UnixMicro(int64(s * 1e6)).UTC()
	}
	return out
}
