// Package sfoweb scrapes scheduled appointments out of the SFOWeb
// parent portal for a single guardian account.
//
// The portal has no documented API. Everything here is best-effort:
// login endpoints are guessed by mining page text, authentication is
// detected from keyword heuristics and appointment data is accepted in
// whatever shape the site happens to serve. Callers get back a flat
// record list and a boolean, never a guarantee.
package sfoweb

import (
	"context"
	"log/slog"
	"time"

	"sfoweb-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

// Appointment is the unit of output. Field names on the json tags are
// load-bearing, downstream consumers key on them.
type Appointment struct {
	Date            string `json:"date"`
	What            string `json:"what"`
	Time            string `json:"time"`
	Comment         string `json:"comment"`
	FullDescription string `json:"full_description"`
}

type Options struct {
	// first-choice login page, also the origin the fallback login
	// candidates are derived from
	LoginUrl string
	// first-choice appointment listing page
	AppointmentsUrl string
	Username        string
	Password        string
	// optional debug sink for raw HTTP exchanges
	DebugOutput restyutil.InstrumentOutput
}

type Scraper struct {
	opts Options
}

// A Scraper is safe to keep around between fetches but not to use from
// more than one goroutine at a time: every fetch owns one cookie jar
// and the portal's session handling is unknown.
func NewScraper(opts Options) Scraper {
	return Scraper{opts: opts}
}

// FetchAppointments runs the whole discovery, authentication and
// extraction pipeline. It never fails loudly: on any unrecoverable
// problem it logs and returns whatever was collected so far (usually
// nothing).
func (s Scraper) FetchAppointments(ctx context.Context) []Appointment {
	ctx, span := tracer.Start(ctx, "FetchAppointments")
	defer span.End()

	sess, err := s.newSession(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to construct scrape session", "err", err)
		return nil
	}

	slog.InfoContext(ctx, "starting authentication flow")
	if !sess.login(ctx) {
		slog.ErrorContext(ctx, "authentication failed, no successful login detected")
		return nil
	}

	slog.InfoContext(ctx, "authentication successful, fetching appointments")
	return sess.fetchAppointments(ctx)
}

// TestCredentials is a cheap reachability and input-shape check, not a
// login: it verifies both credentials have a plausible length and that
// the login page answers with a 200. A 200 from a login page says
// nothing about whether the credentials are valid.
func (s Scraper) TestCredentials(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "TestCredentials")
	defer span.End()

	if len(s.opts.Username) < 3 || len(s.opts.Password) < 3 {
		return false
	}

	client := resty.New()
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	client.SetTimeout(time.Second * 30)

	res, err := client.R().
		SetContext(ctx).
		Get(s.opts.LoginUrl)
	if err != nil {
		slog.DebugContext(ctx, "credential test failed", "err", err)
		return false
	}
	return res.StatusCode() == 200
}
