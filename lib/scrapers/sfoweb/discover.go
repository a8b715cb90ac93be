package sfoweb

import (
	"context"
	"regexp"

	"sfoweb-backend/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
)

// endpointRules is one battery of patterns mining raw page text for
// url-looking string literals. Deliberately regex over a script parse:
// the portal's javascript structure is unknown and unstable, so a
// low-power text scan is all the site contract supports.
type endpointRules struct {
	patterns []*regexp.Regexp
	// keeps worst-case request fan-out bounded
	cap int
}

var authEndpointRules = endpointRules{
	patterns: []*regexp.Regexp{
		// direct api urls mentioning both an api-ish and an auth-ish token
		regexp.MustCompile(`(?i)["']([^"']*(?:api|ajax|service)[^"']*(?:login|auth|signin)[^"']*)["']`),
		regexp.MustCompile(`(?i)["']([^"']*(?:login|auth|signin)[^"']*(?:api|ajax|service)[^"']*)["']`),

		// fetch/ajax call sites
		regexp.MustCompile(`(?i)fetch\(["']([^"']+)["']`),
		regexp.MustCompile(`(?i)XMLHttpRequest.*?open.*?["'](?:POST|GET)["'].*?["']([^"']+)["']`),
		regexp.MustCompile(`(?i)axios\.(?:post|get)\(["']([^"']+)["']`),
		regexp.MustCompile(`(?i)\$\.(?:post|get|ajax)\(["']([^"']+)["']`),

		// form actions that might be ajax
		regexp.MustCompile(`(?i)action=["']([^"']*(?:login|auth|signin)[^"']*)["']`),

		// common endpoint shapes
		regexp.MustCompile(`(?i)["']([^"']*/(?:api|service)/[^"']*)["']`),
		regexp.MustCompile(`(?i)endpoint["\s]*[:=]["\s]*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)loginUrl["\s]*[:=]["\s]*["']([^"']+)["']`),
	},
	cap: 5,
}

var appointmentEndpointRules = endpointRules{
	patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)["']([^"']*(?:api|ajax)[^"']*(?:appointment|aftale|calendar)[^"']*)["']`),
		regexp.MustCompile(`(?i)["']([^"']*(?:appointment|aftale|calendar)[^"']*(?:api|ajax)[^"']*)["']`),
		regexp.MustCompile(`(?i)fetch\(["']([^"']+/(?:api|ajax)/[^"']*(?:appointment|aftale)[^"']*)["']`),
	},
	cap: 3,
}

// discoverEndpoints mines a page for candidate endpoint urls. Matches
// shorter than 6 characters are treated as noise, relative matches are
// resolved against baseUrl, duplicates collapse and the result is
// truncated to the rule set's cap.
func discoverEndpoints(ctx context.Context, pageText, baseUrl string, rules endpointRules) []string {
	ctx, span := tracer.Start(ctx, "discoverEndpoints")
	defer span.End()

	seen := map[string]bool{}
	var endpoints []string

	for _, pattern := range rules.patterns {
		for _, groups := range pattern.FindAllStringSubmatch(pageText, -1) {
			match := groups[1]
			if len(match) <= 5 {
				continue
			}
			match = htmlutil.ResolveHref(baseUrl, match)
			if seen[match] {
				continue
			}
			seen[match] = true
			endpoints = append(endpoints, match)
		}
	}

	if len(endpoints) > rules.cap {
		endpoints = endpoints[:rules.cap]
	}
	span.SetAttributes(attribute.Int("count", len(endpoints)))
	return endpoints
}
