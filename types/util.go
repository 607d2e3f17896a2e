package types

import (
	"fmt"
	"time"
)

// Timestamp returns the UTC Unix timestamp in
// nanoseconds.
func Timestamp() int64 {
	return time.Now().UTC().UnixNano()
}

// FormatSeconds renders d as seconds with millisecond
// precision, like "0.250s".
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
