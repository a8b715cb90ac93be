package cmd

import (
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var asJson bool

func init() {
	fetchCmd.Flags().BoolVar(&asJson, "json", false, "Print the records as JSON instead of a table.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Logs into the portal and prints the current appointment records.",
	Run: func(cmd *cobra.Command, args []string) {
		scraper := newScraper()
		appointments := scraper.FetchAppointments(cmd.Context())

		if asJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err := encoder.Encode(appointments)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "What", "Time", "Comment"})
		for _, a := range appointments {
			t.AppendRow(table.Row{a.Date, a.What, a.Time, a.Comment})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
