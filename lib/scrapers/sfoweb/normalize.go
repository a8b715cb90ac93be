package sfoweb

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"sfoweb-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// a record missing both a date and a title is dropped
func keepAppointment(a Appointment) bool {
	return a.Date != "" || a.What != ""
}

// the object keys an api response might nest its item list under
var jsonItemKeys = []string{"appointments", "aftaler", "events", "data", "items"}

// field name guesses, in pick order
var jsonDateKeys = []string{"date", "dato", "start", "startDate"}
var jsonWhatKeys = []string{"title", "description", "what", "navn"}
var jsonTimeKeys = []string{"time", "tid", "startTime"}

func pickField(item map[string]any, keys []string) string {
	for _, key := range keys {
		value, ok := item[key]
		if ok {
			return fmt.Sprintf("%v", value)
		}
	}
	return ""
}

// appointmentsFromJson maps an undocumented api response onto the
// record shape. The input is either a bare array or an object with the
// items nested under a well-known key; anything else normalizes to
// zero records. Comment has no source field in any observed response.
func appointmentsFromJson(data any) []Appointment {
	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range jsonItemKeys {
			nested, ok := v[key].([]any)
			if ok {
				items = nested
				break
			}
		}
	}

	var appointments []Appointment
	for _, rawItem := range items {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}

		appointment := Appointment{
			Date: pickField(item, jsonDateKeys),
			What: pickField(item, jsonWhatKeys),
			Time: pickField(item, jsonTimeKeys),
		}
		appointment.FullDescription = strings.Trim(
			appointment.Date+" - "+appointment.What+" - "+appointment.Time,
			" -",
		)

		if keepAppointment(appointment) {
			appointments = append(appointments, appointment)
		}
	}
	return appointments
}

var dateLikeRegex = regexp.MustCompile(`\d{1,2}[./]\d{1,2}`)

// fallback selectors, tried in order until one yields anything
var looseSelectors = []string{"li", "div.appointment", "div.event"}

// appointmentsFromHtml extracts records from arbitrary page structure.
// Tables are the primary source: the first row of each is assumed to
// be a header, data rows map cells positionally onto date, what, time
// and comment. Pages without usable tables fall back to generic
// elements whose text contains something date-like.
func appointmentsFromHtml(pageHtml string) []Appointment {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(pageHtml))
	if err != nil {
		return nil
	}

	var appointments []Appointment
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}

			var cells []string
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) < 2 {
				return
			}
			// spacer and decoration rows tend to have empty or
			// two-character first cells
			if len(cells[0]) <= 2 {
				return
			}

			appointment := Appointment{
				Date: cells[0],
				What: cells[1],
			}
			if len(cells) > 2 {
				appointment.Time = cells[2]
			}
			if len(cells) > 3 {
				appointment.Comment = cells[3]
			}
			appointment.FullDescription = strings.Trim(cells[0]+" - "+cells[1], " -")
			appointments = append(appointments, appointment)
		})
	})
	if len(appointments) > 0 {
		return appointments
	}

	for _, selector := range looseSelectors {
		doc.Find(selector).Each(func(_ int, element *goquery.Selection) {
			text := strings.TrimSpace(element.Text())
			if len(text) <= 10 || !dateLikeRegex.MatchString(text) {
				return
			}
			appointments = append(appointments, Appointment{
				Date:            "See description",
				What:            textutil.Truncate(text, 50),
				FullDescription: text,
			})
		})
		if len(appointments) > 0 {
			break
		}
	}
	return appointments
}
