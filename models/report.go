package models

import "time"

// Granularity is the width of a timeline bucket.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Bucket is one interval of the activity timeline.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// Timeline is a continuous, zero-filled series of buckets.
type Timeline struct {
	Granularity Granularity `json:"granularity"`
	SpanDays    int         `json:"span_days"`
	Buckets     []Bucket    `json:"buckets"`
}

// TermCount is a ranked mention or hashtag.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CategoryCount is the number of (row, label) pairs for one content label.
type CategoryCount struct {
	Category    string  `json:"category"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
	Explanation string  `json:"explanation"`
}

// KeywordCount is the number of full-table rows containing a keyword.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// InsightReport holds the analytics computed over a normalized table.
// Pointer fields are nil when the input carried no usable data for them.
type InsightReport struct {
	TotalRows int `json:"total_rows"`

	RetweetCount *int     `json:"retweet_count,omitempty"`
	RetweetRatio *float64 `json:"retweet_ratio,omitempty"` // percent, one decimal

	FirstCapture     *time.Time `json:"first_capture,omitempty"`
	LastCapture      *time.Time `json:"last_capture,omitempty"`
	ActivitySpanDays *int       `json:"activity_span_days,omitempty"`
	PostsPerDay      *float64   `json:"posts_per_day,omitempty"`
	PeakHour         *int       `json:"peak_hour,omitempty"`

	AvgTextLength *float64 `json:"avg_text_length,omitempty"`
	HashtagCount  int      `json:"hashtag_count"`
	MentionCount  int      `json:"mention_count"`
	LinkCount     int      `json:"link_count"`

	TopMentions []TermCount `json:"top_mentions"`
	TopHashtags []TermCount `json:"top_hashtags"`

	ProfileNames []string `json:"profile_names"`

	Timeline   *Timeline       `json:"timeline,omitempty"`
	Categories []CategoryCount `json:"categories"`
	// RowCategories is parallel to the table rows.
	RowCategories [][]string `json:"-"`
}
