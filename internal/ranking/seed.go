package ranking

import (
	"time"
	"unicode/utf16"
)

// DayStampLayout renders the calendar date anonymous callers share a seed on.
const DayStampLayout = "2-1-2006"

// Caller identifies the authenticated user behind a request.
type Caller struct {
	ID string
}

// DeriveSeed turns the caller identity into a shuffle seed. Authenticated
// callers are seeded by their id, anonymous callers (nil) by the UTC calendar
// day of now, so everyone browsing anonymously sees the same order until
// midnight. refreshSeed is added on top to support an explicit reshuffle.
func DeriveSeed(caller *Caller, refreshSeed int64, now time.Time) int64 {
	var base int64
	if caller != nil {
		base = codeUnitSum(caller.ID)
	} else {
		base = codeUnitSum(DayStamp(now))
	}
	return base + refreshSeed
}

// DayStamp returns the canonical day string used for anonymous seeding.
func DayStamp(now time.Time) string {
	return now.UTC().Format(DayStampLayout)
}

// codeUnitSum adds up the UTF-16 code units of s.
func codeUnitSum(s string) int64 {
	var sum int64
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int64(u)
	}
	return sum
}
