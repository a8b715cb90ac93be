package sfoweb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sfoweb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestCredentialsTooShort(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/sfoweb")
	defer cleanup()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	scraper := NewScraper(Options{
		LoginUrl: server.URL,
		Username: "ab",
		Password: "long-enough",
	})
	require.False(t, scraper.TestCredentials(context.Background()))
	require.EqualValues(t, 0, requests.Load(),
		"shape validation must reject before any network call")

	scraper = NewScraper(Options{
		LoginUrl: server.URL,
		Username: "long-enough",
		Password: "xy",
	})
	require.False(t, scraper.TestCredentials(context.Background()))
	require.EqualValues(t, 0, requests.Load())
}

func TestCredentialsReachability(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/sfoweb")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper := NewScraper(Options{
		LoginUrl: server.URL + "/login",
		Username: "forælder",
		Password: "hemmeligt",
	})
	require.True(t, scraper.TestCredentials(context.Background()))

	scraper = NewScraper(Options{
		LoginUrl: server.URL + "/gone",
		Username: "forælder",
		Password: "hemmeligt",
	})
	require.False(t, scraper.TestCredentials(context.Background()))
}

// whole pipeline against a mock portal: login form on the site root,
// cookie-gated appointment table behind it
func TestFetchAppointmentsEndToEnd(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/sfoweb")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `
			<form action="/session" method="post">
				<input name="username"><input type="password" name="password">
			</form>
		`)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "portal_session", Value: "abc123"})
		fmt.Fprint(w, "Velkommen til dit dashboard")
	})
	mux.HandleFunc("/aftaler", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("portal_session")
		if err != nil || cookie.Value != "abc123" {
			http.Error(w, "unauthorized", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `
			<table>
				<tr><th>Dato</th><th>Hvad</th></tr>
				<tr><td>24.12.2025</td><td>Juleafslutning</td></tr>
			</table>
		`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper := NewScraper(Options{
		LoginUrl:        server.URL + "/",
		AppointmentsUrl: server.URL + "/aftaler",
		Username:        "forælder",
		Password:        "hemmeligt",
	})

	got := scraper.FetchAppointments(context.Background())
	require.Len(t, got, 1)
	require.Equal(t, "24.12.2025", got[0].Date)
	require.Equal(t, "Juleafslutning", got[0].What)
}

func TestFetchAppointmentsNeverPanicsOnDeadPortal(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/sfoweb")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	server.Close() // connection refused for every request

	scraper := NewScraper(Options{
		LoginUrl:        server.URL + "/",
		AppointmentsUrl: server.URL + "/aftaler",
		Username:        "forælder",
		Password:        "hemmeligt",
	})
	require.Empty(t, scraper.FetchAppointments(context.Background()))
}
