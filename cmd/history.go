package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"archive-analyzer/services"
	"archive-analyzer/storage"
)

var (
	flagHistoryKeywords     []string
	flagHistoryKeywordsFile string
)

var historyCmd = &cobra.Command{
	Use:   "history [handle]",
	Short: "List stored handles or re-analyze one from storage",
	Long: `Without arguments, list every handle with stored records. With a handle,
reload its stored records and re-run keyword filtering and analytics without
contacting the archive. Requires STORAGE_DRIVER=postgres or sqlite.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.store == nil {
			return errors.New("history needs STORAGE_DRIVER set to postgres or sqlite")
		}
		if len(args) == 0 {
			handles, err := a.store.Handles(cmd.Context())
			if err != nil {
				return err
			}
			printHandles(cmd.OutOrStdout(), handles)
			return nil
		}

		keywords, err := keywordText(flagHistoryKeywords, flagHistoryKeywordsFile)
		if err != nil {
			return err
		}
		handle := services.CleanHandle(args[0])
		table, err := a.store.Load(cmd.Context(), handle)
		if err != nil {
			return err
		}
		if table.Empty() {
			return fmt.Errorf("no stored records for @%s", handle)
		}

		analyzer := services.NewAnalyzer(nil, nil, nil, a.logger)
		rep := analyzer.Reanalyze(handle, table, services.ParseKeywords(keywords))
		services.PrintReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringArrayVarP(&flagHistoryKeywords, "keyword", "k", nil, "keyword to filter by (repeatable)")
	historyCmd.Flags().StringVar(&flagHistoryKeywordsFile, "keywords-file", "", "file with one keyword per line")
}

func printHandles(w io.Writer, handles []storage.HandleSummary) {
	if len(handles) == 0 {
		fmt.Fprintln(w, "No stored handles.")
		return
	}
	fmt.Fprintf(w, "  %-24s %8s  %s\n", "HANDLE", "ROWS", "LAST SAVED")
	for _, h := range handles {
		fmt.Fprintf(w, "  @%-23s %8d  %s\n", h.Handle, h.Rows, h.LastSaved.Local().Format(time.DateTime))
	}
}
