package models

import (
	"encoding/json"
	"time"
)

// RawRecord is one archive snapshot exactly as the archive fetcher emits it:
// a JSON object whose field names follow the v1 raw record contract below.
type RawRecord json.RawMessage

// Raw record field names (contract version 1).
const (
	FieldArchivedURLKey          = "archived_urlkey"
	FieldArchivedTimestamp       = "archived_timestamp"
	FieldParsedArchivedTimestamp = "parsed_archived_timestamp"
	FieldArchivedTweetURL        = "archived_tweet_url"
	FieldParsedArchivedTweetURL  = "parsed_archived_tweet_url"
	FieldOriginalTweetURL        = "original_tweet_url"
	FieldParsedTweetURL          = "parsed_tweet_url"
	FieldTweetText               = "available_tweet_text"
	FieldTweetIsRT               = "available_tweet_is_RT"
	FieldTweetInfo               = "available_tweet_info"
	FieldArchivedMimetype        = "archived_mimetype"
	FieldArchivedStatusCode      = "archived_statuscode"
	FieldArchivedDigest          = "archived_digest"
	FieldArchivedLength          = "archived_length"
	FieldResumptionKey           = "resumption_key"
)

// Normalized table column names, in canonical order.
const (
	ColArchiveKey        = "archive_key"
	ColArchivedAt        = "archived_at"
	ColArchivedURL       = "archived_url"
	ColParsedArchivedURL = "parsed_archived_url"
	ColOriginalURL       = "original_url"
	ColParsedOriginalURL = "parsed_original_url"
	ColText              = "text"
	ColIsRetweet         = "is_retweet"
	ColAuthorInfo        = "author_display_info"
	ColMimetype          = "mimetype"
	ColStatusCode        = "status_code"
	ColDigest            = "digest"
	ColLength            = "length"
	ColResumptionKey     = "resumption_key"
	ColMatchedKeyword    = "matched_keyword"
)

// ColumnOrder lists every normalized column in export order.
var ColumnOrder = []string{
	ColArchiveKey, ColArchivedAt, ColArchivedURL, ColParsedArchivedURL,
	ColOriginalURL, ColParsedOriginalURL, ColText, ColIsRetweet, ColAuthorInfo,
	ColMimetype, ColStatusCode, ColDigest, ColLength, ColResumptionKey,
}

// FieldColumns maps raw record fields onto normalized columns.
// parsed_archived_timestamp is derived from archived_timestamp and not kept.
var FieldColumns = map[string]string{
	FieldArchivedURLKey:         ColArchiveKey,
	FieldArchivedTimestamp:      ColArchivedAt,
	FieldArchivedTweetURL:       ColArchivedURL,
	FieldParsedArchivedTweetURL: ColParsedArchivedURL,
	FieldOriginalTweetURL:       ColOriginalURL,
	FieldParsedTweetURL:         ColParsedOriginalURL,
	FieldTweetText:              ColText,
	FieldTweetIsRT:              ColIsRetweet,
	FieldTweetInfo:              ColAuthorInfo,
	FieldArchivedMimetype:       ColMimetype,
	FieldArchivedStatusCode:     ColStatusCode,
	FieldArchivedDigest:         ColDigest,
	FieldArchivedLength:         ColLength,
	FieldResumptionKey:          ColResumptionKey,
}

// ArchiveRecord is one archived snapshot of one post after normalization.
// A nil pointer means the value was missing or unparseable.
type ArchiveRecord struct {
	ArchiveKey        *string
	ArchivedAt        *time.Time
	ArchivedURL       *string
	ParsedArchivedURL *string
	OriginalURL       *string
	ParsedOriginalURL *string
	Text              *string
	IsRetweet         *bool
	AuthorInfo        *string
	Mimetype          *string
	StatusCode        *string
	Digest            *string
	Length            *string
	ResumptionKey     *string
}

// Value returns the record's value for a normalized column: nil, string,
// bool or time.Time.
func (r *ArchiveRecord) Value(col string) any {
	switch col {
	case ColArchiveKey:
		return deref(r.ArchiveKey)
	case ColArchivedAt:
		if r.ArchivedAt == nil {
			return nil
		}
		return *r.ArchivedAt
	case ColArchivedURL:
		return deref(r.ArchivedURL)
	case ColParsedArchivedURL:
		return deref(r.ParsedArchivedURL)
	case ColOriginalURL:
		return deref(r.OriginalURL)
	case ColParsedOriginalURL:
		return deref(r.ParsedOriginalURL)
	case ColText:
		return deref(r.Text)
	case ColIsRetweet:
		if r.IsRetweet == nil {
			return nil
		}
		return *r.IsRetweet
	case ColAuthorInfo:
		return deref(r.AuthorInfo)
	case ColMimetype:
		return deref(r.Mimetype)
	case ColStatusCode:
		return deref(r.StatusCode)
	case ColDigest:
		return deref(r.Digest)
	case ColLength:
		return deref(r.Length)
	case ColResumptionKey:
		return deref(r.ResumptionKey)
	}
	return nil
}

// TextOrEmpty returns the post text, or "" when it is missing.
func (r *ArchiveRecord) TextOrEmpty() string {
	if r.Text == nil {
		return ""
	}
	return *r.Text
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
