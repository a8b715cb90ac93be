package sfoweb

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// the fixed candidate list for the appointment listing: the configured
// page, the portal-wide guardian pages, then likely paths on the
// school's own subdomain.
func (s *session) appointmentUrls() []string {
	root := origin(s.appointmentsUrl)
	return []string{
		s.appointmentsUrl,
		"https://www.sfoweb.dk/guardian/appointments",
		"https://www.sfoweb.dk/guardian/dashboard",
		root + "/aftaler",
		root + "/appointments",
		root + "/calendar",
		root + "/dashboard",
	}
}

// fetchAppointments probes the candidate urls in order. For each page
// that answers, mined data endpoints are tried as json apis first;
// only when none of them yields records is the page itself parsed as
// html. The first url producing any records ends the cascade.
func (s *session) fetchAppointments(ctx context.Context) []Appointment {
	ctx, span := tracer.Start(ctx, "fetchAppointments")
	defer span.End()

	for _, pageUrl := range s.appointmentUrls() {
		res, err := s.http.R().
			SetContext(ctx).
			Get(pageUrl)
		if err != nil {
			slog.DebugContext(ctx, "failed to fetch appointment page", "url", pageUrl, "err", err)
			continue
		}
		if res.StatusCode() != 200 {
			continue
		}

		pageHtml := res.String()
		endpoints := discoverEndpoints(ctx, pageHtml, finalUrl(res), appointmentEndpointRules)
		for _, endpoint := range endpoints {
			appointments := s.fetchFromApi(ctx, endpoint)
			if len(appointments) > 0 {
				span.SetAttributes(attribute.Int("count", len(appointments)))
				return appointments
			}
		}

		appointments := appointmentsFromHtml(pageHtml)
		if len(appointments) > 0 {
			span.SetAttributes(attribute.Int("count", len(appointments)))
			return appointments
		}
	}

	slog.WarnContext(ctx, "no appointment source yielded records")
	return nil
}

// fetchFromApi treats a mined endpoint as a json api, falling back to
// html extraction when the body doesn't parse as json.
func (s *session) fetchFromApi(ctx context.Context, endpoint string) []Appointment {
	ctx, span := tracer.Start(ctx, "fetchFromApi")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		slog.DebugContext(ctx, "api fetch failed", "endpoint", endpoint, "err", err)
		return nil
	}
	if res.StatusCode() != 200 {
		return nil
	}

	var data any
	err = json.Unmarshal(res.Body(), &data)
	if err != nil {
		return appointmentsFromHtml(res.String())
	}
	return appointmentsFromJson(data)
}
