package web

import (
	"bytes"
	"fmt"
	"html/template"

	"archive-analyzer/models"
	"archive-analyzer/services"
	"archive-analyzer/storage"
)

const previewRows = 20

// dashboard is the template-ready form of a report.
type dashboard struct {
	Handle   string
	RunID    string
	Warnings []string
	Identity *models.IdentitySummary

	TotalRows    int
	DateRange    string
	ProfileNames []string
	Matches      string

	Stats      []stat
	Timeline   *models.Timeline
	Mentions   []models.TermCount
	Hashtags   []models.TermCount
	Categories []models.CategoryCount
	Keywords   []models.KeywordCount

	Preview  template.HTML
	Filtered bool
}

type stat struct {
	Label string
	Value string
}

func newDashboard(rep *services.Report) (*dashboard, error) {
	ins := rep.Insights
	d := &dashboard{
		Handle:       rep.Handle,
		RunID:        rep.RunID,
		Warnings:     rep.Warnings,
		Identity:     rep.Identity,
		TotalRows:    ins.TotalRows,
		DateRange:    "N/A",
		ProfileNames: ins.ProfileNames,
		Matches:      "N/A (no keyword filtering applied)",
		Timeline:     ins.Timeline,
		Mentions:     ins.TopMentions,
		Hashtags:     ins.TopHashtags,
		Categories:   ins.Categories,
		Keywords:     rep.KeywordCounts,
		Filtered:     rep.Filter.Applied,
	}
	if ins.FirstCapture != nil {
		d.DateRange = ins.FirstCapture.Format("2006-01-02") + " to " + ins.LastCapture.Format("2006-01-02")
	}
	if rep.Filter.Applied {
		d.Matches = fmt.Sprint(rep.Filter.Table.Len())
	}

	if ins.RetweetCount != nil {
		d.Stats = append(d.Stats, stat{"Retweets", fmt.Sprintf("%d (%.1f%%)", *ins.RetweetCount, *ins.RetweetRatio)})
	}
	if ins.ActivitySpanDays != nil {
		d.Stats = append(d.Stats,
			stat{"Activity span", fmt.Sprintf("%d days", *ins.ActivitySpanDays)},
			stat{"Avg tweets/day", fmt.Sprintf("%.1f", *ins.PostsPerDay)},
			stat{"Peak hour", fmt.Sprintf("%d:00", *ins.PeakHour)},
		)
	}
	if ins.AvgTextLength != nil {
		d.Stats = append(d.Stats, stat{"Avg length", fmt.Sprintf("%.0f chars", *ins.AvgTextLength)})
	}
	d.Stats = append(d.Stats,
		stat{"Total hashtags", fmt.Sprint(ins.HashtagCount)},
		stat{"Total mentions", fmt.Sprint(ins.MentionCount)},
		stat{"Links shared", fmt.Sprint(ins.LinkCount)},
	)

	preview, err := previewTable(rep.Filter.Table)
	if err != nil {
		return nil, err
	}
	d.Preview = preview
	return d, nil
}

// previewTable renders the first rows through the HTML exporter, which
// escapes every cell.
func previewTable(t *models.Table) (template.HTML, error) {
	if t.Empty() {
		return "", nil
	}
	n := min(previewRows, t.Len())
	head := &models.Table{Columns: t.Columns, Records: t.Records[:n]}
	if t.MatchedKeywords != nil {
		head.MatchedKeywords = t.MatchedKeywords[:n]
	}
	var buf bytes.Buffer
	if err := storage.WriteHTML(&buf, head); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
