package cmd

import (
	"log"
	"os"
	"sort"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/services/tez"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsFlags struct {
	university string
	year       int
	thesisType string
}

func init() {
	statsCmd.Flags().StringVar(&statsFlags.university, "university", "", "restrict counts to one university")
	statsCmd.Flags().IntVar(&statsFlags.year, "year", 0, "restrict counts to one acceptance year")
	statsCmd.Flags().StringVar(&statsFlags.thesisType, "type", "", "restrict counts to one thesis type")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints aggregate thesis counts by type, year, university and language.",
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := service.GetStatistics(cmd.Context(), tez.StatisticsFilter{
			University: statsFlags.university,
			Year:       statsFlags.year,
			Type:       yoktez.ThesisType(statsFlags.thesisType),
		})
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Breakdown", "Bucket", "Count"})
		t.AppendRow(table.Row{"total", "", stats.Total})
		appendBuckets(t, "type", stats.ByType)
		appendBuckets(t, "year", stats.ByYear)
		appendBuckets(t, "university", stats.ByUniversity)
		appendBuckets(t, "language", stats.ByLanguage)
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func appendBuckets(t table.Writer, name string, buckets map[string]int) {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		t.AppendRow(table.Row{name, key, buckets[key]})
	}
}
