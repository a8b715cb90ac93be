package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks that the credentials look sane and the portal is reachable.",
	Run: func(cmd *cobra.Command, args []string) {
		scraper := newScraper()
		if !scraper.TestCredentials(cmd.Context()) {
			fmt.Println("Credential check failed: credentials malformed or portal unreachable.")
			os.Exit(1)
		}
		fmt.Println("Credentials look plausible and the portal is reachable.")
	},
}
