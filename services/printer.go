package services

import (
	"fmt"
	"io"
	"strings"

	"archive-analyzer/models"
)

const (
	dateLayout   = "2006-01-02"
	previewLimit = 5
)

// PrintIdentity writes the identity summary block.
func PrintIdentity(w io.Writer, handle string, id *models.IdentitySummary) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\033[1;33m  Account History for @%s\033[0m\n", handle)
	fmt.Fprintf(w, "  %s\n", thin)
	if id == nil {
		fmt.Fprintf(w, "  No account history found\n\n")
		return
	}
	fmt.Fprintf(w, "  Linked accounts : \033[1m%d\033[0m\n", id.TotalAccounts)
	if len(id.AccountIDs) > 0 {
		fmt.Fprintf(w, "  Account IDs     : %s\n", strings.Join(id.AccountIDs, ", "))
	}
	if len(id.KnownScreenNames) > 0 {
		fmt.Fprintf(w, "  Known handles   :\n")
		for _, sn := range id.KnownScreenNames {
			fmt.Fprintf(w, "    @%-24s %s\n", sn.Name, sn.DateRange)
		}
	}
	fmt.Fprintln(w)
}

// PrintReport writes the full terminal dashboard for a run.
func PrintReport(w io.Writer, rep *Report) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	ins := rep.Insights

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 TWITTER ARCHIVE ANALYSIS: @%s\033[0m\n", rep.Handle)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "  \033[33m⚠ %s\033[0m\n", warning)
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	PrintIdentity(w, rep.Handle, rep.Identity)

	// Dashboard
	fmt.Fprintf(w, "\033[1;33m  Dashboard\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Archived tweets     : \033[1m%d\033[0m\n", ins.TotalRows)
	if ins.FirstCapture != nil {
		fmt.Fprintf(w, "  Date range          : %s to %s\n",
			ins.FirstCapture.Format(dateLayout), ins.LastCapture.Format(dateLayout))
	} else {
		fmt.Fprintf(w, "  Date range          : N/A\n")
	}
	fmt.Fprintf(w, "  Profile names found : %d\n", len(ins.ProfileNames))
	if rep.Filter.Applied {
		fmt.Fprintf(w, "  Keyword matches     : \033[1;32m%d\033[0m\n", rep.Filter.Table.Len())
	} else {
		fmt.Fprintf(w, "  Keyword matches     : N/A (no keyword filtering applied)\n")
	}
	fmt.Fprintln(w)

	if ins.TotalRows == 0 {
		fmt.Fprintf(w, "  No data to display\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}

	// Statistics
	fmt.Fprintf(w, "\033[1;33m  Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if ins.RetweetCount != nil {
		fmt.Fprintf(w, "  Retweets       : %d (%.1f%%)\n", *ins.RetweetCount, *ins.RetweetRatio)
	}
	if ins.ActivitySpanDays != nil {
		fmt.Fprintf(w, "  Activity span  : %d days\n", *ins.ActivitySpanDays)
		fmt.Fprintf(w, "  Avg tweets/day : %.1f\n", *ins.PostsPerDay)
		fmt.Fprintf(w, "  Peak hour      : %d:00\n", *ins.PeakHour)
	}
	if ins.AvgTextLength != nil {
		fmt.Fprintf(w, "  Avg length     : %.0f chars\n", *ins.AvgTextLength)
	}
	fmt.Fprintf(w, "  Total hashtags : %d\n", ins.HashtagCount)
	fmt.Fprintf(w, "  Total mentions : %d\n", ins.MentionCount)
	fmt.Fprintf(w, "  Links shared   : %d\n", ins.LinkCount)
	fmt.Fprintln(w)

	if ins.Timeline != nil {
		printTimeline(w, ins.Timeline, thin)
	}

	// Content
	fmt.Fprintf(w, "\033[1;33m  Top 10 Mentions\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	printTerms(w, ins.TopMentions, "mentions", "No mentions found")

	fmt.Fprintf(w, "\033[1;33m  Top 10 Hashtags\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	printTerms(w, ins.TopHashtags, "uses", "No hashtags found")

	if len(ins.Categories) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Content Types\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, c := range ins.Categories {
			fmt.Fprintf(w, "  \033[1m%-15s\033[0m %d tweets (%.1f%%)\n", c.Category, c.Count, c.Percentage)
			fmt.Fprintf(w, "  \033[2m%s\033[0m\n", c.Explanation)
		}
		fmt.Fprintln(w)
	}

	if len(rep.KeywordCounts) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Keyword Breakdown\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, kc := range rep.KeywordCounts {
			fmt.Fprintf(w, "  %-30s %d\n", truncate(kc.Keyword, 28), kc.Count)
		}
		fmt.Fprintln(w)
	}

	printPreview(w, rep.Filter, thin)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printTimeline(w io.Writer, tl *models.Timeline, thin string) {
	title := map[models.Granularity]string{
		models.Daily:   "Daily Activity",
		models.Monthly: "Monthly Activity",
		models.Yearly:  "Yearly Activity",
	}[tl.Granularity]

	fmt.Fprintf(w, "\033[1;33m  %s (%d days)\033[0m\n", title, tl.SpanDays)
	fmt.Fprintf(w, "  %s\n", thin)

	peak := 0
	for _, b := range tl.Buckets {
		peak = max(peak, b.Count)
	}
	for _, b := range tl.Buckets {
		width := 0
		if peak > 0 {
			width = b.Count * 30 / peak
		}
		if b.Count > 0 && width == 0 {
			width = 1
		}
		fmt.Fprintf(w, "  %-10s %s (%d)\n", b.Label, strings.Repeat("█", width), b.Count)
	}
	fmt.Fprintln(w)
}

func printTerms(w io.Writer, terms []models.TermCount, unit, empty string) {
	if len(terms) == 0 {
		fmt.Fprintf(w, "  %s\n\n", empty)
		return
	}
	for i, tc := range terms {
		fmt.Fprintf(w, "  \033[1m%2d.\033[0m %-30s %d %s\n", i+1, truncate(tc.Term, 28), tc.Count, unit)
	}
	fmt.Fprintln(w)
}

func printPreview(w io.Writer, res *FilterResult, thin string) {
	title := "Keyword Matches"
	if !res.Applied {
		title = "Archived Tweets"
	}
	fmt.Fprintf(w, "\033[1;33m  %s (first %d)\033[0m\n", title, previewLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if res.Table.Empty() {
		fmt.Fprintf(w, "  No rows\n")
		return
	}
	for i := 0; i < min(previewLimit, res.Table.Len()); i++ {
		rec := &res.Table.Records[i]
		when := "unknown date"
		if rec.ArchivedAt != nil {
			when = rec.ArchivedAt.Format("2006-01-02 15:04")
		}
		text := "(no text recovered)"
		if rec.Text != nil {
			text = strings.ReplaceAll(*rec.Text, "\n", " ")
		}
		fmt.Fprintf(w, "  \033[1m%s\033[0m  %s\n", when, truncate(text, 60))
		if res.Applied {
			fmt.Fprintf(w, "  \033[32m↳ %s\033[0m\n", res.Table.MatchedKeywords[i])
		}
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
