package timezone

import (
	"fmt"
	"time"
)

// Layouts accepted for wall-clock input without zone information.
var bareLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer converts between UTC-aware timestamps and the clinic's local
// wall-clock representation. Stored timestamps carry the local wall clock
// with zone information stripped, so every reader sees the same clock
// regardless of server zone.
type Normalizer struct {
	loc *time.Location
}

func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// NowLocal returns the current time in the configured zone.
func (n *Normalizer) NowLocal() time.Time {
	return time.Now().In(n.loc)
}

// ToLocal converts a timestamp to the configured zone. The instant is
// preserved exactly, including fractional seconds.
func (n *Normalizer) ToLocal(t time.Time) time.Time {
	return t.In(n.loc)
}

// ToUTC converts a timestamp to UTC. The instant is preserved exactly.
func (n *Normalizer) ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// ParseLocal parses an ISO-8601 string into local wall-clock time. A
// trailing Z or an explicit numeric offset is honored and the result
// converted into the configured zone; a bare timestamp is assumed to
// already be local. Malformed input yields an error the caller treats as
// a validation failure.
func (n *Normalizer) ParseLocal(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(n.loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(n.loc), nil
	}

	for _, layout := range bareLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable timestamp: %s", s)
}

// Strip rebinds the wall-clock fields of t to UTC, discarding the zone.
// This is the storage form: the document store keeps the clinic's clock
// verbatim, not an instant.
func (n *Normalizer) Strip(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NowLocalStripped is the creation/update timestamp used across all
// collections: the current local wall clock with the zone stripped,
// truncated to milliseconds to survive a BSON round trip.
func (n *Normalizer) NowLocalStripped() time.Time {
	return NowStrippedIn(n.loc)
}

// NowStrippedIn is NowLocalStripped for callers that hold a location but
// no Normalizer, such as the repository layer.
func NowStrippedIn(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC).
		Truncate(time.Millisecond)
}

// FormatISO renders a stored wall-clock timestamp without zone suffix.
func (n *Normalizer) FormatISO(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
