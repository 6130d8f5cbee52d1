package session

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// The admin unread bootstrap counts guest messages since the last session
// start. The watermark is client-local state, like the browser original
// kept in localStorage; losing it only widens the next bootstrap query.

// LoadWatermark reads the last-session timestamp. A missing file returns
// the zero time and no error.
func LoadWatermark(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
}

// SaveWatermark advances the stored timestamp.
func SaveWatermark(path string, t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(t.Format(time.RFC3339Nano)+"\n"), 0o600)
}
