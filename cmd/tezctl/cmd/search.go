package cmd

import (
	"log"
	"os"
	"strings"

	"yoktez-backend/lib/scrapers/yoktez"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchFlags struct {
	field      string
	yearStart  int
	yearEnd    int
	thesisType string
	university string
	language   string
	max        int
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.field, "field", "all", "field to search in (all, title, author, advisor, subject, id)")
	searchCmd.Flags().IntVar(&searchFlags.yearStart, "year-start", 0, "earliest acceptance year")
	searchCmd.Flags().IntVar(&searchFlags.yearEnd, "year-end", 0, "latest acceptance year")
	searchCmd.Flags().StringVar(&searchFlags.thesisType, "type", "", "thesis type (yuksek_lisans, doktora, tipta_uzmanlik, sanatta_yeterlik)")
	searchCmd.Flags().StringVar(&searchFlags.university, "university", "", "university name")
	searchCmd.Flags().StringVar(&searchFlags.language, "language", "", "thesis language")
	searchCmd.Flags().IntVar(&searchFlags.max, "max", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Searches the thesis registry and prints matching records.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		results, err := service.Search(cmd.Context(), yoktez.SearchQuery{
			Term:       strings.Join(args, " "),
			Field:      yoktez.Field(searchFlags.field),
			YearStart:  searchFlags.yearStart,
			YearEnd:    searchFlags.yearEnd,
			Type:       yoktez.ThesisType(searchFlags.thesisType),
			University: searchFlags.university,
			Language:   searchFlags.language,
			MaxResults: searchFlags.max,
		})
		if err != nil {
			log.Fatal(err)
		}
		renderSummaries(results)
	},
}

func renderSummaries(results []yoktez.ThesisSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Year", "Author", "Title", "Type", "University"})
	for _, row := range results {
		t.AppendRow(table.Row{row.Id, row.Year, row.Author, row.Title, row.ThesisType, row.University})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
