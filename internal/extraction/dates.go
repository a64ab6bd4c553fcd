package extraction

import (
	"strings"
	"time"
)

// dateFormats is the fixed, ordered list of layouts tried against an
// extracted date string. The first layout that parses wins; there is no
// scoring or disambiguation beyond first-match, so the US month-first form
// deliberately precedes the day-first form.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"02/01/2006 15:04",
}

// ResolveDate parses a free-text date/time string against the known layouts.
// If none match it returns an InvalidDateError carrying the offending string;
// it never substitutes the current time or a zero date.
func ResolveDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Value: s}
}
