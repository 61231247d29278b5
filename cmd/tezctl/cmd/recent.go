package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var recentFlags struct {
	days int
	max  int
}

func init() {
	recentCmd.Flags().IntVar(&recentFlags.days, "days", 15, "how many days back to look")
	recentCmd.Flags().IntVar(&recentFlags.max, "max", 20, "maximum number of results")
	rootCmd.AddCommand(recentCmd)
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Prints theses recently added to the registry.",
	Run: func(cmd *cobra.Command, args []string) {
		results, err := service.GetRecent(cmd.Context(), recentFlags.days, recentFlags.max)
		if err != nil {
			log.Fatal(err)
		}
		renderSummaries(results)
	},
}
