package util

import (
	"fmt"
	"time"
)

const (
	ISODate     = "2006-01-02"
	DisplayDate = "02-01-2006"
	SlashDate   = "02/01/2006"
	StampLayout = "02-01-2006:15:04:05"
)

// ReformatDate converts an ISO date (YYYY-MM-DD) into layout. Values that do
// not parse are returned unchanged.
func ReformatDate(iso, layout string) string {
	t, err := time.Parse(ISODate, iso)
	if err != nil {
		return iso
	}
	return t.Format(layout)
}

// FormatStamp renders created_at/updated_at the way listings expose them.
func FormatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(StampLayout)
}

// ParseISODate validates a YYYY-MM-DD date. Full RFC3339 timestamps are
// accepted and truncated to their date part.
func ParseISODate(value string) (string, error) {
	if t, err := time.Parse(ISODate, value); err == nil {
		return t.Format(ISODate), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(ISODate), nil
	}
	return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}
