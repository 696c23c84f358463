package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"archive-analyzer/services"
	"archive-analyzer/storage"
)

var (
	flagFrom         string
	flagTo           string
	flagLimit        int
	flagKeywords     []string
	flagKeywordsFile string
	flagFormats      []string
	flagOut          string
	flagNoExport     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <handle>",
	Short: "Fetch, filter and analyze a handle's archived posts",
	Long: `Run the whole pipeline for one handle: account history lookup, archive
fetch, keyword filtering and analytics. The dashboard is printed to the
terminal and the tables are exported to --out.

Keywords come from repeated --keyword flags and/or --keywords-file (one per
line). Without keywords every archived post is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords, err := keywordText(flagKeywords, flagKeywordsFile)
		if err != nil {
			return err
		}
		limit := ""
		if flagLimit > 0 {
			limit = strconv.Itoa(flagLimit)
		}
		req, err := services.NewRequest(args[0], flagFrom, flagTo, limit, keywords)
		if err != nil {
			return err
		}
		formats, err := parseFormats(flagFormats)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		analyzer, err := a.analyzer()
		if err != nil {
			return err
		}
		rep, err := analyzer.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		services.PrintReport(cmd.OutOrStdout(), rep)

		if flagNoExport {
			return nil
		}
		out := flagOut
		if out == "" {
			out = a.cfg.OutputDir
		}
		paths, err := writeExports(out, rep, formats, time.Now())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "  Saved → %s\n", p)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&flagFrom, "from", "", "earliest capture date (YYYYMMDD)")
	analyzeCmd.Flags().StringVar(&flagTo, "to", "", "latest capture date (YYYYMMDD, default 20240615)")
	analyzeCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "maximum number of captures (0 for no limit)")
	analyzeCmd.Flags().StringArrayVarP(&flagKeywords, "keyword", "k", nil, "keyword to filter by (repeatable)")
	analyzeCmd.Flags().StringVar(&flagKeywordsFile, "keywords-file", "", "file with one keyword per line")
	analyzeCmd.Flags().StringSliceVarP(&flagFormats, "format", "f", []string{"csv", "json", "html"}, "export formats")
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "export directory (default OUTPUT_DIR)")
	analyzeCmd.Flags().BoolVar(&flagNoExport, "no-export", false, "only print the dashboard")
}

// keywordText merges flag keywords and the keywords file into the
// one-per-line form services.ParseKeywords reads.
func keywordText(flags []string, file string) (string, error) {
	lines := append([]string(nil), flags...)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading keywords file: %w", err)
		}
		lines = append(lines, string(data))
	}
	return strings.Join(lines, "\n"), nil
}

func parseFormats(in []string) ([]storage.Format, error) {
	formats := make([]storage.Format, 0, len(in))
	for _, s := range in {
		f, err := storage.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// writeExports writes the report's tables in every format. With keywords
// the filtered table goes to dir and the full table to dir/full; otherwise
// the full table goes to dir.
func writeExports(dir string, rep *services.Report, formats []storage.Format, now time.Time) ([]string, error) {
	type target struct {
		dir   string
		table string
	}
	targets := []target{{dir, "full"}}
	if rep.Filter.Applied {
		targets = []target{{dir, "filtered"}, {filepath.Join(dir, "full"), "full"}}
	}

	var paths []string
	for _, tg := range targets {
		table := rep.Table
		if tg.table == "filtered" {
			table = rep.Filter.Table
		}
		for _, f := range formats {
			p, err := storage.ExportFile(tg.dir, rep.Handle, table, f, now)
			if err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
	}
	return paths, nil
}
