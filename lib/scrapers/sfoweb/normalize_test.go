package sfoweb

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func unmarshalAny(t *testing.T, raw string) any {
	var data any
	err := json.Unmarshal([]byte(raw), &data)
	require.NoError(t, err)
	return data
}

func TestJsonNormalization(t *testing.T) {
	data := unmarshalAny(t, `{"events":[{"startDate":"2025-03-01","title":"Trip"}]}`)

	got := appointmentsFromJson(data)
	want := []Appointment{{
		Date:            "2025-03-01",
		What:            "Trip",
		Time:            "",
		Comment:         "",
		FullDescription: "2025-03-01 - Trip",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("appointment mismatch (-want +got):\n%s", diff)
	}
}

func TestJsonNormalizationTopLevelArray(t *testing.T) {
	data := unmarshalAny(t, `[{"dato":"01.05.2025","navn":"Svømning","tid":"14:00"}]`)

	got := appointmentsFromJson(data)
	require.Len(t, got, 1)
	require.Equal(t, "01.05.2025", got[0].Date)
	require.Equal(t, "Svømning", got[0].What)
	require.Equal(t, "14:00", got[0].Time)
	require.Equal(t, "01.05.2025 - Svømning - 14:00", got[0].FullDescription)
}

func TestJsonNormalizationFieldPickOrder(t *testing.T) {
	// "date" wins over "start", "title" wins over "description"
	data := unmarshalAny(t, `{"data":[{"date":"a","start":"b","title":"c","description":"d"}]}`)

	got := appointmentsFromJson(data)
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Date)
	require.Equal(t, "c", got[0].What)
}

func TestJsonNormalizationDropsEmptyRecords(t *testing.T) {
	data := unmarshalAny(t, `{"items":[{"comment":"no date or title"},{"date":"01.01"}]}`)

	got := appointmentsFromJson(data)
	require.Len(t, got, 1)
	require.Equal(t, "01.01", got[0].Date)
}

func TestJsonNormalizationUnknownShape(t *testing.T) {
	require.Empty(t, appointmentsFromJson(unmarshalAny(t, `{"unknown":[{"date":"x"}]}`)))
	require.Empty(t, appointmentsFromJson(unmarshalAny(t, `"just a string"`)))
	require.Empty(t, appointmentsFromJson(unmarshalAny(t, `[1, 2, 3]`)))
}

func TestJsonNormalizationIdempotent(t *testing.T) {
	data := unmarshalAny(t, `{"aftaler":[{"date":"01.02.2025","title":"Tur"},{"date":"02.02.2025","title":"Film"}]}`)

	first := appointmentsFromJson(data)
	second := appointmentsFromJson(data)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalization is not idempotent (-first +second):\n%s", diff)
	}
}

func TestHtmlTableNormalization(t *testing.T) {
	page := `
		<table>
			<tr><th>Date</th><th>What</th><th>Time</th></tr>
			<tr><td>01.01.2025</td><td>Swimming</td><td>10:00</td></tr>
		</table>
	`

	got := appointmentsFromHtml(page)
	want := []Appointment{{
		Date:            "01.01.2025",
		What:            "Swimming",
		Time:            "10:00",
		Comment:         "",
		FullDescription: "01.01.2025 - Swimming",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("appointment mismatch (-want +got):\n%s", diff)
	}
}

func TestHtmlTableSkipsSpacerRows(t *testing.T) {
	page := `
		<table>
			<tr><th>Date</th><th>What</th></tr>
			<tr><td></td><td>no date</td></tr>
			<tr><td>--</td><td>two chars only</td></tr>
			<tr><td>05.06.2025</td><td>Koloni</td><td>08:00</td><td>husk madpakke</td></tr>
		</table>
	`

	got := appointmentsFromHtml(page)
	require.Len(t, got, 1)
	require.Equal(t, "05.06.2025", got[0].Date)
	require.Equal(t, "Koloni", got[0].What)
	require.Equal(t, "08:00", got[0].Time)
	require.Equal(t, "husk madpakke", got[0].Comment)
}

func TestHtmlTableSkipsNarrowRows(t *testing.T) {
	page := `
		<table>
			<tr><th>Header</th></tr>
			<tr><td>only one cell</td></tr>
		</table>
	`
	require.Empty(t, appointmentsFromHtml(page))
}

func TestHtmlLooseFallback(t *testing.T) {
	page := `
		<ul>
			<li>Aftale 12.05 hentes kl 15 af mormor</li>
			<li>short</li>
			<li>no date-like content in this list item at all</li>
		</ul>
	`

	got := appointmentsFromHtml(page)
	require.Len(t, got, 1)
	require.Equal(t, "See description", got[0].Date)
	require.Equal(t, "Aftale 12.05 hentes kl 15 af mormor", got[0].What)
	require.Equal(t, "Aftale 12.05 hentes kl 15 af mormor", got[0].FullDescription)
	require.Empty(t, got[0].Time)
	require.Empty(t, got[0].Comment)
}

func TestHtmlLooseFallbackTruncatesLongText(t *testing.T) {
	text := "05.06 " + strings.Repeat("lang beskrivelse ", 10)
	page := "<div class=\"appointment\">" + text + "</div>"

	got := appointmentsFromHtml(page)
	require.Len(t, got, 1)
	require.True(t, strings.HasSuffix(got[0].What, "..."))
	require.Len(t, got[0].What, 53)
	require.Equal(t, strings.TrimSpace(text), got[0].FullDescription)
}

func TestHtmlTablesSuppressLooseFallback(t *testing.T) {
	page := `
		<table>
			<tr><th>Date</th><th>What</th></tr>
			<tr><td>01.01.2025</td><td>Swimming</td></tr>
		</table>
		<li>Aftale 12.05 hentes kl 15</li>
	`

	got := appointmentsFromHtml(page)
	require.Len(t, got, 1)
	require.Equal(t, "Swimming", got[0].What)
}
