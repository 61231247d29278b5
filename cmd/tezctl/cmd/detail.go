package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail <thesis id>",
	Short: "Prints the full record of a single thesis.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		detail, err := service.GetDetails(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"ID", detail.Id},
			{"Title", detail.Title},
			{"Author", detail.Author},
			{"Advisor", detail.Advisor},
			{"Year", detail.Year},
			{"University", detail.University},
			{"Institute", detail.Institute},
			{"Department", detail.Department},
			{"Type", detail.ThesisType},
			{"Language", detail.Language},
			{"Pages", detail.PageCount},
			{"Keywords", detail.Keywords},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if detail.Abstract != "" {
			fmt.Println()
			fmt.Println(detail.Abstract)
		}
	},
}
