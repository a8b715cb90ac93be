package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"sfoweb-backend/lib/calfeed"
	"sfoweb-backend/lib/configutil"
	"sfoweb-backend/lib/notify"
	"sfoweb-backend/lib/restyutil"
	"sfoweb-backend/lib/scrapers/sfoweb"
	"sfoweb-backend/lib/serviceutil"
	"sfoweb-backend/lib/telemetry"

	"github.com/robfig/cron/v3"
)

type Config struct {
	LoginUrl        string             `json:"login_url"`
	AppointmentsUrl string             `json:"appointments_url"`
	Username        string             `json:"username"`
	Password        string             `json:"password"`
	Schedule        string             `json:"schedule"`
	Port            int                `json:"port"`
	DebugHttpDir    string             `json:"debug_http_dir"`
	Smtp            *notify.SmtpConfig `json:"smtp"`
}

// snapshot of the last successful-ish fetch, served over http
type state struct {
	mu           sync.Mutex
	appointments []sfoweb.Appointment
	fetchedAt    time.Time
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	err := telemetry.SetupFromEnv(ctx, "sfowebd")
	if os.IsNotExist(err) {
		slog.WarnContext(ctx, "no telemetry.json5 found, telemetry will not be exported")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		defer telemetry.Shutdown(context.Background())
	}
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 */6 * * *"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	opts := sfoweb.Options{
		LoginUrl:        cfg.LoginUrl,
		AppointmentsUrl: cfg.AppointmentsUrl,
		Username:        cfg.Username,
		Password:        cfg.Password,
	}
	if cfg.DebugHttpDir != "" {
		opts.DebugOutput = restyutil.NewFilesystemOutput(cfg.DebugHttpDir)
	}
	scraper := sfoweb.NewScraper(opts)

	snapshot := &state{}
	refresh := func() {
		appointments := scraper.FetchAppointments(ctx)

		snapshot.mu.Lock()
		previous := snapshot.appointments
		snapshot.appointments = appointments
		snapshot.fetchedAt = time.Now()
		snapshot.mu.Unlock()

		slog.InfoContext(ctx, "refreshed appointments", "count", len(appointments))

		if cfg.Smtp == nil {
			return
		}
		added, removed := notify.Diff(previous, appointments)
		if len(added) == 0 && len(removed) == 0 {
			return
		}
		notifier := notify.NewNotifier(*cfg.Smtp)
		err := notifier.Send("SFO appointments changed", notify.FormatDiff(added, removed))
		if err != nil {
			slog.ErrorContext(ctx, "failed to send change notification", "err", err)
		}
	}

	refresh()

	cronner := cron.New()
	_, err = cronner.AddFunc(cfg.Schedule, refresh)
	if err != nil {
		serviceutil.Fatal("schedule refresh", err)
	}
	cronner.Start()
	defer cronner.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/appointments.json", func(w http.ResponseWriter, r *http.Request) {
		snapshot.mu.Lock()
		appointments := snapshot.appointments
		fetchedAt := snapshot.fetchedAt
		snapshot.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Last-Modified", fetchedAt.UTC().Format(http.TimeFormat))
		err := json.NewEncoder(w).Encode(appointments)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to encode appointments", "err", err)
		}
	})
	mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
		snapshot.mu.Lock()
		appointments := snapshot.appointments
		fetchedAt := snapshot.fetchedAt
		snapshot.mu.Unlock()

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		_, err := w.Write([]byte(calfeed.Build(appointments, fetchedAt)))
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to write calendar feed", "err", err)
		}
	})

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
