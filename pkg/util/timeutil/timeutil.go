// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package timeutil

import "time"

// FullTimeFormat is the time format used to display any timestamp
// with date, time and time zone data.
const FullTimeFormat = "2006-01-02 15:04:05.999999-07:00:00"

// Now returns the current UTC time, stripped of its monotonic clock reading
// so that it compares equal to its own round trip through UnixMilli.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// FromUnixMillis returns the UTC time of the given milliseconds since the
// Unix epoch.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
