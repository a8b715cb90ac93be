package calfeed

import (
	"strings"
	"testing"
	"time"

	"sfoweb-backend/lib/scrapers/sfoweb"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	parsed, ok := ParseDate("24.12.2025", testNow)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), parsed)

	parsed, ok = ParseDate("2025-06-01", testNow)
	require.True(t, ok)
	require.Equal(t, time.June, parsed.Month())

	// year-less dates get pinned to the current year
	parsed, ok = ParseDate("12.05", testNow)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), parsed)

	_, ok = ParseDate("See description", testNow)
	require.False(t, ok)
	_, ok = ParseDate("", testNow)
	require.False(t, ok)
}

func TestBuildTimedEvent(t *testing.T) {
	feed := Build([]sfoweb.Appointment{{
		Date:            "24.12.2025",
		What:            "Juleafslutning",
		Time:            "10:00",
		FullDescription: "24.12.2025 - Juleafslutning",
	}}, testNow)

	require.Contains(t, feed, "BEGIN:VCALENDAR")
	require.Contains(t, feed, "SUMMARY:Juleafslutning")
	require.Contains(t, feed, "DTSTART:20251224T100000Z")
	require.Contains(t, feed, "END:VCALENDAR")
}

func TestBuildUnparseableDateBecomesAllDay(t *testing.T) {
	feed := Build([]sfoweb.Appointment{{
		Date:            "See description",
		What:            "Aftale 12.05 hentes kl 15",
		FullDescription: "Aftale 12.05 hentes kl 15 af mormor",
	}}, testNow)

	require.Contains(t, feed, "DTSTART;VALUE=DATE:20250315")
	require.Contains(t, feed, "Aftale 12.05 hentes kl 15 af mormor")
}

func TestBuildDeterministicUids(t *testing.T) {
	records := []sfoweb.Appointment{{Date: "01.01.2025", What: "Svømning"}}

	first := Build(records, testNow)
	second := Build(records, testNow.Add(time.Hour*24))

	uid := ""
	for _, line := range strings.Split(first, "\r\n") {
		if strings.HasPrefix(line, "UID:") {
			uid = line
			break
		}
	}
	require.NotEmpty(t, uid)
	require.Contains(t, second, uid)
}
