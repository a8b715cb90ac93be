// Package calfeed renders scraped appointment records as an iCalendar
// feed so ordinary calendar clients can subscribe to them.
package calfeed

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"sfoweb-backend/lib/scrapers/sfoweb"

	ics "github.com/arran4/golang-ical"
)

// layouts the portal's free-text dates have been seen in, most
// specific first
var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
}

// day.month without a year, common in table cells
var shortDateRegex = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})$`)

// ParseDate makes a best effort at turning a free-text record date
// into a day. Dates without a year are pinned to the year of `now`.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	for _, layout := range dateLayouts {
		parsed, err := time.ParseInLocation(layout, raw, now.Location())
		if err == nil {
			return parsed, true
		}
	}

	groups := shortDateRegex.FindStringSubmatch(raw)
	if groups != nil {
		parsed, err := time.ParseInLocation(
			"2.1.2006",
			fmt.Sprintf("%s.%s.%04d", groups[1], groups[2], now.Year()),
			now.Location(),
		)
		if err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

var timeOfDayRegex = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)

// uid derived from record content so regenerating the feed doesn't
// churn every event for subscribers
func eventUid(a sfoweb.Appointment) string {
	sum := sha1.Sum([]byte(a.Date + "\x00" + a.What + "\x00" + a.Time + "\x00" + a.Comment))
	return hex.EncodeToString(sum[:]) + "@sfoweb"
}

// Build renders the records into a VCALENDAR document. Records whose
// date doesn't parse become all-day events on the day of the fetch,
// keeping their full description; better a misplaced event than a
// silently dropped one.
func Build(appointments []sfoweb.Appointment, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//sfoweb-backend//calfeed//DA")

	for _, a := range appointments {
		event := cal.AddEvent(eventUid(a))
		event.SetDtStampTime(now)

		summary := a.What
		if summary == "" {
			summary = a.FullDescription
		}
		event.SetSummary(summary)

		description := a.FullDescription
		if a.Comment != "" {
			description += "\n" + a.Comment
		}
		event.SetDescription(description)

		day, ok := ParseDate(a.Date, now)
		if !ok {
			day = now
		}

		groups := timeOfDayRegex.FindStringSubmatch(a.Time)
		if ok && groups != nil {
			var hour, minute int
			fmt.Sscanf(groups[1], "%d", &hour)
			fmt.Sscanf(groups[2], "%d", &minute)
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
			event.SetStartAt(start)
			event.SetEndAt(start.Add(time.Hour))
			continue
		}

		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	return cal.Serialize()
}
