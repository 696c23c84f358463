package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

const topTermLimit = 10

var (
	// mentionRegexp and hashtagRegexp match the marker followed by word
	// characters, letters and digits of any script included.
	mentionRegexp = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	hashtagRegexp = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	// profileNameRegexp captures the display name of "Name (@handle)".
	profileNameRegexp = regexp.MustCompile(`^(.*?)\s+\(@`)
)

// InsightService derives summary analytics from a normalized table.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the analytics for t. It is total over any table; fields
// whose source column is absent or entirely null are left nil or empty.
func (s *InsightService) Generate(t *models.Table) *models.InsightReport {
	report := &models.InsightReport{
		TopMentions:  []models.TermCount{},
		TopHashtags:  []models.TermCount{},
		ProfileNames: []string{},
		Categories:   []models.CategoryCount{},
	}
	if t.Empty() {
		return report
	}

	report.TotalRows = t.Len()

	if t.HasColumn(models.ColIsRetweet) {
		rts := 0
		for i := range t.Records {
			if rt := t.Records[i].IsRetweet; rt != nil && *rt {
				rts++
			}
		}
		ratio := round1(float64(rts) / float64(report.TotalRows) * 100)
		report.RetweetCount = &rts
		report.RetweetRatio = &ratio
	}

	s.captureStats(t, report)

	if t.HasColumn(models.ColText) {
		s.textStats(t, report)
	}

	report.ProfileNames = profileNames(t)

	s.logger.Debug("[insights] %d row(s), %d content label(s), %d mention(s)",
		report.TotalRows, len(report.Categories), report.MentionCount)
	return report
}

// captureStats fills the capture-time metrics. Rows with a null timestamp
// are excluded.
func (s *InsightService) captureStats(t *models.Table, report *models.InsightReport) {
	var times []time.Time
	for i := range t.Records {
		if at := t.Records[i].ArchivedAt; at != nil {
			times = append(times, *at)
		}
	}
	if len(times) == 0 {
		return
	}

	first, last := times[0], times[0]
	var hours [24]int
	for _, at := range times {
		if at.Before(first) {
			first = at
		}
		if at.After(last) {
			last = at
		}
		hours[at.UTC().Hour()]++
	}

	span := SpanDays(first, last)
	perDay := float64(report.TotalRows) / float64(max(1, span))

	peak := 0
	for h := 1; h < 24; h++ {
		if hours[h] > hours[peak] {
			peak = h
		}
	}

	report.FirstCapture = &first
	report.LastCapture = &last
	report.ActivitySpanDays = &span
	report.PostsPerDay = &perDay
	report.PeakHour = &peak
	report.Timeline = BuildTimeline(times)
}

func (s *InsightService) textStats(t *models.Table, report *models.InsightReport) {
	var (
		totalLen, withText int
		mentions, hashtags termCounter
	)
	report.RowCategories = make([][]string, t.Len())
	labelCounts := make(map[string]int)

	for i := range t.Records {
		text := t.Records[i].Text
		if text != nil {
			withText++
			totalLen += utf8.RuneCountInString(*text)
			report.HashtagCount += strings.Count(*text, "#")
			report.MentionCount += strings.Count(*text, "@")
			report.LinkCount += strings.Count(*text, "http")
			mentions.addAll(mentionRegexp.FindAllString(*text, -1))
			hashtags.addAll(hashtagRegexp.FindAllString(*text, -1))
		}

		labels := Classify(t.Records[i].TextOrEmpty())
		report.RowCategories[i] = labels
		for _, l := range labels {
			labelCounts[l]++
		}
	}

	if withText > 0 {
		avg := float64(totalLen) / float64(withText)
		report.AvgTextLength = &avg
	}
	report.TopMentions = mentions.top(topTermLimit)
	report.TopHashtags = hashtags.top(topTermLimit)
	report.Categories = rankCategories(labelCounts, report.TotalRows)
}

// rankCategories orders labels by count descending, ties in canonical order.
func rankCategories(counts map[string]int, total int) []models.CategoryCount {
	out := []models.CategoryCount{}
	for _, label := range CategoryOrder {
		n := counts[label]
		if n == 0 {
			continue
		}
		out = append(out, models.CategoryCount{
			Category:    label,
			Count:       n,
			Percentage:  round1(float64(n) / float64(total) * 100),
			Explanation: CategoryExplanations[label],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// profileNames returns the unique display names found in the author info
// of rows explicitly marked as not being retweets, in first-seen order.
func profileNames(t *models.Table) []string {
	names := []string{}
	if !t.HasColumn(models.ColAuthorInfo) || !t.HasColumn(models.ColIsRetweet) {
		return names
	}
	seen := make(map[string]struct{})
	for i := range t.Records {
		rec := &t.Records[i]
		if rec.IsRetweet == nil || *rec.IsRetweet || rec.AuthorInfo == nil {
			continue
		}
		m := profileNameRegexp.FindStringSubmatch(*rec.AuthorInfo)
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// termCounter counts terms while remembering first-encounter order.
type termCounter struct {
	order  []string
	counts map[string]int
}

func (c *termCounter) addAll(terms []string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	for _, term := range terms {
		if _, ok := c.counts[term]; !ok {
			c.order = append(c.order, term)
		}
		c.counts[term]++
	}
}

// top ranks by count descending; equal counts keep first-encounter order.
func (c *termCounter) top(n int) []models.TermCount {
	out := make([]models.TermCount, 0, len(c.order))
	for _, term := range c.order {
		out = append(out, models.TermCount{Term: term, Count: c.counts[term]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
