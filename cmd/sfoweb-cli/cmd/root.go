package cmd

import (
	"fmt"
	"os"

	"sfoweb-backend/lib/scrapers/sfoweb"
	"sfoweb-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	loginUrl        string
	appointmentsUrl string
	username        string
	password        string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "sfoweb-cli",
	Short: "sfoweb-cli talks to an SFOWeb parent portal from the command line.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&loginUrl, "login-url", "https://www.sfoweb.dk/", "Login page of the portal.")
	rootCmd.PersistentFlags().StringVar(&appointmentsUrl, "appointments-url", "https://www.sfoweb.dk/aftaler", "Appointments page of the portal.")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "Portal username (defaults to $SFOWEB_USERNAME).")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Portal password (defaults to $SFOWEB_PASSWORD).")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

func newScraper() sfoweb.Scraper {
	if username == "" {
		username = os.Getenv("SFOWEB_USERNAME")
	}
	if password == "" {
		password = os.Getenv("SFOWEB_PASSWORD")
	}
	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "You must provide credentials via --username/--password or SFOWEB_USERNAME/SFOWEB_PASSWORD.")
		os.Exit(1)
	}

	return sfoweb.NewScraper(sfoweb.Options{
		LoginUrl:        loginUrl,
		AppointmentsUrl: appointmentsUrl,
		Username:        username,
		Password:        password,
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
