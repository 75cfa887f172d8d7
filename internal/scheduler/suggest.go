package scheduler

import (
	"strings"
	"time"
)

var bestHours = []struct {
	audience string
	hours    []int
}{
	{"restaurant", []int{11, 12, 17, 18}},
	{"retail", []int{10, 14, 16}},
}

var defaultHours = []int{12, 15, 18}

// BestHours returns the posting hours for an audience description.
func BestHours(audience string) []int {
	a := strings.ToLower(audience)
	for _, b := range bestHours {
		if strings.Contains(a, b.audience) {
			return b.hours
		}
	}
	return defaultHours
}

// SuggestPostingTime returns the first whole hour at or after now, in
// now's location, that is one of the audience's best hours.
func SuggestPostingTime(audience string, now time.Time) time.Time {
	hours := BestHours(audience)
	t := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	if t.Before(now) {
		t = t.Add(time.Hour)
	}
	for i := 0; i < 48; i++ {
		for _, h := range hours {
			if t.Hour() == h {
				return t
			}
		}
		t = t.Add(time.Hour)
	}
	return t
}
