package sfoweb

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"sfoweb-backend/lib/htmlutil"
	"sfoweb-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// keyword sets picking out parent/guardian login links
var parentLinkText = []string{"forældre", "parent", "guardian", "voksen"}
var parentLinkHref = []string{"parent", "foraeldr", "guardian", "voksen"}

var usernameFieldRegex = regexp.MustCompile(`(?i)user|email|login`)

// url of the response after any redirects
func finalUrl(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL.String()
	}
	return res.Request.URL
}

// the fixed candidate list the authentication cascade walks: site
// root, /login, the danish guardian path, then the configured login
// page itself.
func (s *session) loginUrls() []string {
	root := origin(s.loginUrl)
	return []string{
		root,
		root + "/login",
		root + "/foraeldr",
		s.loginUrl,
	}
}

// login walks the candidate base urls in order. For each reachable
// page it first tries every mined api endpoint, then falls back to
// submitting literal html forms. The first success anywhere wins;
// failures on one base url never abort the cascade.
func (s *session) login(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	for _, pageUrl := range s.loginUrls() {
		slog.InfoContext(ctx, "trying login page", "url", pageUrl)

		res, err := s.http.R().
			SetContext(ctx).
			Get(pageUrl)
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch login page", "url", pageUrl, "err", err)
			continue
		}
		if res.StatusCode() != 200 {
			slog.WarnContext(ctx, "non-200 response from login page", "url", pageUrl, "status", res.StatusCode())
			continue
		}

		pageHtml := res.String()
		pageUrl := finalUrl(res)

		endpoints := discoverEndpoints(ctx, pageHtml, pageUrl, authEndpointRules)
		slog.InfoContext(ctx, "mined auth endpoint candidates", "url", pageUrl, "count", len(endpoints))
		for _, endpoint := range endpoints {
			if s.tryApiAuth(ctx, endpoint) {
				slog.InfoContext(ctx, "api authentication successful", "endpoint", endpoint)
				return true
			}
		}

		ok, err := s.tryFormAuth(ctx, pageHtml, pageUrl)
		if err != nil {
			slog.WarnContext(ctx, "form authentication errored", "url", pageUrl, "err", err)
			continue
		}
		if ok {
			slog.InfoContext(ctx, "form authentication successful", "url", pageUrl)
			return true
		}
		slog.InfoContext(ctx, "form authentication failed", "url", pageUrl)
	}

	span.SetStatus(codes.Error, "exhausted all login candidates")
	return false
}

type authPayload struct {
	json map[string]string
	form map[string]string
}

// tryApiAuth posts a fixed ladder of credential payload shapes at one
// mined endpoint. Any transport error just advances the ladder.
func (s *session) tryApiAuth(ctx context.Context, endpoint string) bool {
	ctx, span := tracer.Start(ctx, "tryApiAuth")
	defer span.End()

	payloads := []authPayload{
		{json: map[string]string{"username": s.username, "password": s.password}},
		{json: map[string]string{"email": s.username, "password": s.password}},
		{json: map[string]string{"login": s.username, "password": s.password}},
		{form: map[string]string{"username": s.username, "password": s.password}},
		{form: map[string]string{"email": s.username, "password": s.password}},
	}

	for _, payload := range payloads {
		req := s.http.R().SetContext(ctx)
		if payload.json != nil {
			req.SetHeader("Content-Type", "application/json")
			req.SetBody(payload.json)
		} else {
			req.SetFormData(payload.form)
		}

		res, err := req.Post(endpoint)
		if err != nil {
			slog.DebugContext(ctx, "api auth payload failed", "endpoint", endpoint, "err", err)
			continue
		}

		status := res.StatusCode()
		if status != 200 && status != 201 && status != 302 {
			continue
		}
		if classifyAuthResponse(res.String(), status) {
			return true
		}
	}

	return false
}

// tryFormAuth looks for parent/guardian login links on the page,
// follows each and tries to submit a login form there, then falls back
// to submitting a form on the original page.
func (s *session) tryFormAuth(ctx context.Context, pageHtml, pageUrl string) (bool, error) {
	ctx, span := tracer.Start(ctx, "tryFormAuth")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(pageHtml))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page html")
		return false, err
	}

	var parentLinks []string
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		if !textutil.ContainsAny(anchor.Name, parentLinkText) &&
			!textutil.ContainsAny(anchor.Href, parentLinkHref) {
			continue
		}
		parentLinks = append(parentLinks, htmlutil.ResolveHref(pageUrl, anchor.Href))
	}

	for _, link := range parentLinks {
		slog.InfoContext(ctx, "following parent link", "url", link)

		res, err := s.http.R().
			SetContext(ctx).
			Get(link)
		if err != nil {
			slog.DebugContext(ctx, "parent link failed", "url", link, "err", err)
			continue
		}
		if res.StatusCode() != 200 {
			continue
		}

		ok, err := s.submitLoginForm(ctx, res.String(), finalUrl(res))
		if err != nil {
			slog.DebugContext(ctx, "form submission errored", "url", link, "err", err)
			continue
		}
		if ok {
			return true, nil
		}
	}

	return s.submitLoginForm(ctx, pageHtml, pageUrl)
}

// submitLoginForm submits the first form on the page that has both a
// username-looking input and a password input. Later forms are never
// attempted, even when the first submission is rejected.
func (s *session) submitLoginForm(ctx context.Context, pageHtml, pageUrl string) (bool, error) {
	ctx, span := tracer.Start(ctx, "submitLoginForm")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(pageHtml))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse form page html")
		return false, err
	}

	form := findLoginForm(doc)
	if form == nil {
		slog.DebugContext(ctx, "no login form on page", "url", pageUrl, "forms", doc.Find("form").Length())
		return false, nil
	}

	formData, ok := buildFormData(form, s.username, s.password)
	if !ok {
		slog.DebugContext(ctx, "login form inputs carry no usable names", "url", pageUrl)
		return false, nil
	}

	action := form.AttrOr("action", pageUrl)
	if action == "" {
		action = pageUrl
	}
	action = htmlutil.ResolveHref(pageUrl, action)

	fields := make([]string, 0, len(formData))
	for name := range formData {
		fields = append(fields, name)
	}
	slog.InfoContext(ctx, "submitting login form", "action", action, "fields", fields)

	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(formData).
		Post(action)
	if err != nil {
		return false, err
	}

	status := res.StatusCode()
	if status != 200 && status != 302 {
		slog.WarnContext(ctx, "form submission rejected", "action", action, "status", status)
		return false, nil
	}

	return classifyAuthResponse(res.String(), status), nil
}

// first form carrying a username-like input and a password input
func findLoginForm(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		hasUsername := false
		form.Find("input").Each(func(_ int, input *goquery.Selection) {
			if usernameFieldRegex.MatchString(input.AttrOr("name", "")) &&
				!strings.EqualFold(input.AttrOr("type", ""), "password") {
				hasUsername = true
			}
		})
		hasPassword := form.Find(`input[type="password"]`).Length() > 0

		if hasUsername && hasPassword {
			found = form
			return false
		}
		return true
	})
	return found
}

// hidden fields carry over untouched, credentials go under the first
// matching field names, and a named submit button is included so
// server-side handlers that branch on it still fire. A form whose
// username or password input has no name attribute is unusable and
// reports !ok instead of submitting empty-keyed fields.
func buildFormData(form *goquery.Selection, username, password string) (map[string]string, bool) {
	formData := map[string]string{}

	form.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name != "" {
			formData[name] = input.AttrOr("value", "")
		}
	})

	usernameName := ""
	form.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		name := input.AttrOr("name", "")
		if usernameFieldRegex.MatchString(name) && !strings.EqualFold(input.AttrOr("type", ""), "password") {
			usernameName = name
			return false
		}
		return true
	})
	passwordName := form.Find(`input[type="password"]`).First().AttrOr("name", "")
	if usernameName == "" || passwordName == "" {
		return nil, false
	}
	formData[usernameName] = username
	formData[passwordName] = password

	submit := form.Find(`input[type="submit"]`).First()
	submitName := submit.AttrOr("name", "")
	submitValue := submit.AttrOr("value", "")
	if submitName != "" && submitValue != "" {
		formData[submitName] = submitValue
	}

	return formData, true
}
