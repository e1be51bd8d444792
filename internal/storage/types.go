package storage

import (
	"os"
	"time"
)

// TimeLayout is the timestamp format used by every durable artifact:
// record files, the daily grant log, and the check CLI.
const TimeLayout = "2006-01-02 15:04:05"

// Record is the last-grant bookkeeping entry for a single key. Key is
// either a numeric account identifier rendered as a string, or a
// network-origin string. CharacterName is diagnostic only and is kept
// solely for account records.
type Record struct {
	Key           string    `json:"key"`
	CharacterName string    `json:"character_name,omitempty"`
	GrantedAt     time.Time `json:"granted_at"`
}

// FormatTime renders an instant in the reference zone using TimeLayout.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

// ParseTime parses a TimeLayout timestamp in the reference zone.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, loc)
}

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
