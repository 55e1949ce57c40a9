package app

import (
	"fmt"
	"time"
)

// applyTimezone makes name the process-local zone, so message timestamps and
// the daily log file roll over in it. An empty name keeps the host zone.
func applyTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	time.Local = loc
	return loc, nil
}
