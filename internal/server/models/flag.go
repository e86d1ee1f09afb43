// Package models defines server-side data models persisted in the database.
package models

import "time"

// Flag is a named boolean toggle with its access history.
type Flag struct {
	// Name is the unique key of the flag; it can change through a rename.
	Name        string
	Value       bool
	Description string
	// UsageLog holds one timestamp per external check, oldest first.
	UsageLog UsageLog
}

// UsageLog is the append-only list of instants at which a flag was checked.
type UsageLog []time.Time

// Seconds returns the log as fractional seconds since the Unix epoch, the
// representation used on the wire and in storage.
func (l UsageLog) Seconds() []float64 {
	out := make([]float64, len(l))
	for i, t := range l {
		out[i] = float64(t.UnixMicro()) / 1e6
	}
	return out
}

// UsageLogFromSeconds is the inverse of UsageLog.Seconds.
func UsageLogFromSeconds(secs []float64) UsageLog {
	out := make(UsageLog, len(secs))
	for i, s := range secs {
		out[i] = time.UnixMicro(int64(s * 1e6)).UTC()
	}
	return out
}
