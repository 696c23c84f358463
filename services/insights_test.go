package services

import (
	"testing"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

func at(s string) *time.Time { return ParseArchiveTimestamp(s) }

func sampleTable() *models.Table {
	return &models.Table{
		Columns: []string{models.ColArchiveKey, models.ColArchivedAt, models.ColText, models.ColIsRetweet, models.ColAuthorInfo},
		Records: []models.ArchiveRecord{
			{ArchiveKey: s("1"), ArchivedAt: at("20240101100000"), Text: s("Hello @bob #go"), IsRetweet: models.BoolPtr(false), AuthorInfo: s("Alice Smith (@alice)")},
			{ArchiveKey: s("2"), ArchivedAt: at("20240111100000"), Text: s("RT @carol: #go #rust http://x.co"), IsRetweet: models.BoolPtr(true), AuthorInfo: s("Carol (@carol)")},
			{ArchiveKey: s("3"), ArchivedAt: at("20240111150000"), Text: s("@bob @dave what?"), IsRetweet: models.BoolPtr(false), AuthorInfo: s("Alice Smith (@alice)")},
			{ArchiveKey: s("4"), ArchivedAt: nil, Text: nil, IsRetweet: nil, AuthorInfo: nil},
		},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.Discard())
	r := svc.Generate(sampleTable())
	if r.TotalRows != 4 {
		t.Errorf("TotalRows: got %d, want 4", r.TotalRows)
	}
	if r.RetweetCount == nil || *r.RetweetCount != 1 {
		t.Errorf("RetweetCount: got %v, want 1", r.RetweetCount)
	}
	if r.RetweetRatio == nil || *r.RetweetRatio != 25.0 {
		t.Errorf("RetweetRatio: got %v, want 25.0", r.RetweetRatio)
	}
	if r.HashtagCount != 3 || r.MentionCount != 4 || r.LinkCount != 1 {
		t.Errorf("hashtags/mentions/links: got %d/%d/%d, want 3/4/1", r.HashtagCount, r.MentionCount, r.LinkCount)
	}
}

func TestInsightRetweetRatioRounding(t *testing.T) {
	table := &models.Table{
		Columns: []string{models.ColIsRetweet},
		Records: []models.ArchiveRecord{
			{IsRetweet: models.BoolPtr(true)}, {IsRetweet: models.BoolPtr(false)}, {IsRetweet: nil},
		},
	}
	r := NewInsightService(utils.Discard()).Generate(table)
	if r.RetweetRatio == nil || *r.RetweetRatio != 33.3 {
		t.Errorf("RetweetRatio: got %v, want 33.3", r.RetweetRatio)
	}
}

func TestInsightCaptureStats(t *testing.T) {
	r := NewInsightService(utils.Discard()).Generate(sampleTable())
	if r.ActivitySpanDays == nil || *r.ActivitySpanDays != 10 {
		t.Errorf("ActivitySpanDays: got %v, want 10", r.ActivitySpanDays)
	}
	if r.PostsPerDay == nil || *r.PostsPerDay != 0.4 {
		t.Errorf("PostsPerDay: got %v, want 0.4", r.PostsPerDay)
	}
	if r.PeakHour == nil || *r.PeakHour != 10 {
		t.Errorf("PeakHour: got %v, want 10", r.PeakHour)
	}
	if r.FirstCapture == nil || r.FirstCapture.Day() != 1 || r.LastCapture.Day() != 11 {
		t.Errorf("capture range: got %v to %v", r.FirstCapture, r.LastCapture)
	}
	if r.Timeline == nil || r.Timeline.Granularity != models.Daily || len(r.Timeline.Buckets) != 11 {
		t.Errorf("Timeline: got %+v", r.Timeline)
	}
}

func TestInsightAverageLengthSkipsNullText(t *testing.T) {
	table := textTable(s("abcd"), nil, s("ab"), s("é"))
	r := NewInsightService(utils.Discard()).Generate(table)
	// (4 + 2 + 1) / 3, null text excluded and runes counted.
	want := 7.0 / 3.0
	if r.AvgTextLength == nil || *r.AvgTextLength != want {
		t.Errorf("AvgTextLength: got %v, want %v", r.AvgTextLength, want)
	}
}

func TestInsightTopTerms(t *testing.T) {
	r := NewInsightService(utils.Discard()).Generate(sampleTable())

	wantMentions := []models.TermCount{{Term: "@bob", Count: 2}, {Term: "@carol", Count: 1}, {Term: "@dave", Count: 1}}
	if len(r.TopMentions) != len(wantMentions) {
		t.Fatalf("TopMentions: got %v", r.TopMentions)
	}
	for i, w := range wantMentions {
		if r.TopMentions[i] != w {
			t.Errorf("TopMentions[%d] = %+v; want %+v", i, r.TopMentions[i], w)
		}
	}
	if len(r.TopHashtags) != 2 || r.TopHashtags[0] != (models.TermCount{Term: "#go", Count: 2}) {
		t.Errorf("TopHashtags: got %v", r.TopHashtags)
	}
}

func TestInsightTopTermsLimitAndTies(t *testing.T) {
	text := "#a #b #c #d #e #f #g #h #i #j #k #l #l"
	r := NewInsightService(utils.Discard()).Generate(textTable(s(text)))
	if len(r.TopHashtags) != 10 {
		t.Fatalf("TopHashtags len: got %d, want 10", len(r.TopHashtags))
	}
	if r.TopHashtags[0].Term != "#l" {
		t.Errorf("most frequent first: got %q", r.TopHashtags[0].Term)
	}
	for i, want := range []string{"#a", "#b", "#c"} {
		if got := r.TopHashtags[i+1].Term; got != want {
			t.Errorf("tie order [%d]: got %q, want %q", i+1, got, want)
		}
	}
}

func TestInsightCategories(t *testing.T) {
	r := NewInsightService(utils.Discard()).Generate(sampleTable())

	// Row 1: Standard; row 2: Retweet, Link, Multi-hashtag; row 3:
	// Question, Multi-mention; row 4 (no text): Standard.
	want := map[string]int{
		LabelStandardTweet: 2, LabelRetweet: 1, LabelContainsLink: 1,
		LabelMultiHashtag: 1, LabelQuestion: 1, LabelMultiMention: 1,
	}
	total := 0
	for _, c := range r.Categories {
		if c.Count != want[c.Category] {
			t.Errorf("%s: got %d, want %d", c.Category, c.Count, want[c.Category])
		}
		total += c.Count
	}
	if total != 7 {
		t.Errorf("label pairs: got %d, want 7", total)
	}
	if r.Categories[0].Category != LabelStandardTweet || r.Categories[0].Percentage != 50.0 {
		t.Errorf("first category: got %+v", r.Categories[0])
	}
	// Equal counts keep canonical order.
	if r.Categories[1].Category != LabelRetweet || r.Categories[2].Category != LabelContainsLink {
		t.Errorf("tie order: got %s, %s", r.Categories[1].Category, r.Categories[2].Category)
	}
	if len(r.RowCategories) != 4 || len(r.RowCategories[1]) != 3 {
		t.Errorf("RowCategories: got %v", r.RowCategories)
	}
}

func TestInsightProfileNames(t *testing.T) {
	r := NewInsightService(utils.Discard()).Generate(sampleTable())
	if len(r.ProfileNames) != 1 || r.ProfileNames[0] != "Alice Smith" {
		t.Errorf("ProfileNames: got %v, want [Alice Smith]", r.ProfileNames)
	}
}

func TestInsightMissingColumns(t *testing.T) {
	table := &models.Table{
		Columns: []string{models.ColArchiveKey},
		Records: []models.ArchiveRecord{{ArchiveKey: s("k")}},
	}
	r := NewInsightService(utils.Discard()).Generate(table)
	if r.TotalRows != 1 {
		t.Errorf("TotalRows: got %d, want 1", r.TotalRows)
	}
	if r.RetweetRatio != nil || r.ActivitySpanDays != nil || r.AvgTextLength != nil || r.Timeline != nil {
		t.Errorf("metrics without source columns should be nil: %+v", r)
	}
	if len(r.Categories) != 0 {
		t.Errorf("Categories: got %v, want none without a text column", r.Categories)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.Discard())
	r := svc.Generate(nil)
	if r.TotalRows != 0 {
		t.Errorf("expected 0 total rows for empty input")
	}
	if r.TopMentions == nil || r.Categories == nil {
		t.Errorf("list fields should be empty, not nil")
	}
}
