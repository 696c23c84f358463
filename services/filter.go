package services

import (
	"strings"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

// noMatchLabel annotates a selected row that accumulated no keyword. Rows
// are only selected when a keyword matched, so it should never appear.
const noMatchLabel = "No match"

// FilterResult is the outcome of one keyword filtering pass.
type FilterResult struct {
	// Applied is false when no keywords were given; Table is then the
	// unannotated input.
	Applied bool
	Table   *models.Table
}

// KeywordFilter selects and annotates rows whose text contains keywords.
type KeywordFilter struct {
	logger *utils.Logger
}

// NewKeywordFilter creates a KeywordFilter with the given logger.
func NewKeywordFilter(logger *utils.Logger) *KeywordFilter {
	return &KeywordFilter{logger: logger}
}

// Filter keeps the rows whose text contains at least one keyword as a
// case-insensitive substring. Each kept row is annotated with the matching
// keywords, in keyword order, joined with ", ". Duplicate rows are dropped,
// keeping the first occurrence.
func (f *KeywordFilter) Filter(t *models.Table, keywords []string) *FilterResult {
	if t == nil {
		t = &models.Table{}
	}
	if len(keywords) == 0 {
		f.logger.Info("[filter] No keywords given, showing all %d row(s)", t.Len())
		return &FilterResult{Applied: false, Table: t}
	}

	out := &models.Table{Columns: annotatedColumns(t)}
	if !t.HasColumn(models.ColText) {
		f.logger.Warn("[filter] Table has no text column, no row can match")
		return &FilterResult{Applied: true, Table: out}
	}

	lowered := lowerAll(keywords)
	selected := make([]bool, t.Len())
	matched := make([][]string, t.Len())
	for k, kw := range lowered {
		for i := range t.Records {
			text := t.Records[i].Text
			if text == nil {
				continue
			}
			if strings.Contains(strings.ToLower(*text), kw) {
				selected[i] = true
				matched[i] = append(matched[i], keywords[k])
			}
		}
	}

	seen := make(map[string]struct{})
	for i := range t.Records {
		if !selected[i] {
			continue
		}
		label := noMatchLabel
		if len(matched[i]) > 0 {
			label = strings.Join(matched[i], ", ")
		}
		out.Records = append(out.Records, t.Records[i])
		out.MatchedKeywords = append(out.MatchedKeywords, label)

		row := out.Len() - 1
		key := out.RowKey(row)
		if _, dup := seen[key]; dup {
			out.Records = out.Records[:row]
			out.MatchedKeywords = out.MatchedKeywords[:row]
			continue
		}
		seen[key] = struct{}{}
	}

	f.logger.Info("[filter] %d of %d row(s) matched %d keyword(s)", out.Len(), t.Len(), len(keywords))
	return &FilterResult{Applied: true, Table: out}
}

// Breakdown counts, per keyword and in keyword order, the rows of t whose
// text contains it. Rows are not de-duplicated.
func Breakdown(t *models.Table, keywords []string) []models.KeywordCount {
	counts := make([]models.KeywordCount, len(keywords))
	lowered := lowerAll(keywords)
	hasText := t.HasColumn(models.ColText)
	for k, kw := range keywords {
		counts[k].Keyword = kw
		if !hasText {
			continue
		}
		for i := range t.Records {
			if text := t.Records[i].Text; text != nil && strings.Contains(strings.ToLower(*text), lowered[k]) {
				counts[k].Count++
			}
		}
	}
	return counts
}

// annotatedColumns returns t's columns with matched_keyword appended once.
func annotatedColumns(t *models.Table) []string {
	cols := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		if c != models.ColMatchedKeyword {
			cols = append(cols, c)
		}
	}
	return append(cols, models.ColMatchedKeyword)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
