package sfoweb

import (
	"sfoweb-backend/lib/textutil"
)

// indicator keyword sets are bilingual (danish/english) and fixed.
// The decision table below is a behavior contract, do not tune it:
// misclassifications it is known to produce (a page footer mentioning
// "error reporting" suppresses a genuine success hit) are part of the
// contract too.
var successIndicators = []string{
	"dashboard", "aftaler", "appointments", "kalender", "schedule",
	"velkommen", "welcome", "logout", "logud", "profil", "profile",
	"guardian", "forældre", "parent",
}

var errorIndicators = []string{
	"invalid", "ugyldig", "forkert", "wrong", "error", "fejl",
	"login failed", "unauthorized", "forbidden",
}

var loginIndicators = []string{"login", "password", "brugernavn", "sign in"}

// classifyAuthResponse decides, from textual signals alone, whether a
// response body looks like an authenticated page.
//
//  1. success keyword with no error keyword, or a 302, means yes.
//  2. failing that: no login-page tokens, no error keywords and more
//     than 1000 characters of content means the page stopped looking
//     like a login form, so probably yes.
//  3. everything else is no. Absent signals resolve conservatively
//     toward "not authenticated".
func classifyAuthResponse(body string, statusCode int) bool {
	hasSuccess := textutil.ContainsAny(body, successIndicators)
	hasError := textutil.ContainsAny(body, errorIndicators)

	if (hasSuccess && !hasError) || statusCode == 302 {
		return true
	}

	hasLogin := textutil.ContainsAny(body, loginIndicators)
	if !hasLogin && !hasError && len(body) > 1000 {
		return true
	}

	return false
}
