package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

// archiveTimestampLayout is the fixed-width capture timestamp format.
const archiveTimestampLayout = "20060102150405"

// cdxPositional is the column order of a bare CDX index row.
var cdxPositional = []string{
	models.ColArchiveKey, models.ColArchivedAt, models.ColOriginalURL,
	models.ColMimetype, models.ColStatusCode, models.ColDigest, models.ColLength,
}

// normalizeStrategy turns raw records into a table or reports why it can't.
type normalizeStrategy struct {
	name string
	fn   func([]models.RawRecord) (*models.Table, error)
}

// normalizeLadder is tried in order; each rung accepts strictly more input
// than the one before it.
var normalizeLadder = []normalizeStrategy{
	{"strict-schema", strictSchema},
	{"flattened", flattened},
	{"salvage", salvage},
}

// Normalizer converts raw archive records into the normalized table.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize never fails: when every strategy is exhausted it returns an
// empty table.
func (n *Normalizer) Normalize(records []models.RawRecord, handle string) *models.Table {
	for _, s := range normalizeLadder {
		table, err := runStrategy(s, records)
		if err != nil {
			n.logger.Debug("[normalizer] @%s: %s strategy rejected input: %v", handle, s.name, err)
			continue
		}
		n.logger.Info("[normalizer] @%s: %d row(s) normalized via %s", handle, table.Len(), s.name)
		return table
	}
	n.logger.Warn("[normalizer] @%s: no strategy could read the records, returning empty table", handle)
	return &models.Table{}
}

func runStrategy(s normalizeStrategy, records []models.RawRecord) (table *models.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.fn(records)
}

// ParseArchiveTimestamp parses a YYYYMMDDhhmmss capture timestamp as UTC.
// Anything else yields nil.
func ParseArchiveTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) != len(archiveTimestampLayout) {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}
	t, err := time.Parse(archiveTimestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// strictRecord is the v1 raw record contract.
type strictRecord struct {
	ArchivedURLKey          *string `json:"archived_urlkey"`
	ArchivedTimestamp       *string `json:"archived_timestamp"`
	ParsedArchivedTimestamp *string `json:"parsed_archived_timestamp"`
	ArchivedTweetURL        *string `json:"archived_tweet_url"`
	ParsedArchivedTweetURL  *string `json:"parsed_archived_tweet_url"`
	OriginalTweetURL        *string `json:"original_tweet_url"`
	ParsedTweetURL          *string `json:"parsed_tweet_url"`
	TweetText               *string `json:"available_tweet_text"`
	TweetIsRT               *bool   `json:"available_tweet_is_RT"`
	TweetInfo               *string `json:"available_tweet_info"`
	ArchivedMimetype        *string `json:"archived_mimetype"`
	ArchivedStatusCode      *string `json:"archived_statuscode"`
	ArchivedDigest          *string `json:"archived_digest"`
	ArchivedLength          *string `json:"archived_length"`
	ResumptionKey           *string `json:"resumption_key"`
}

// strictSchema accepts only JSON objects that match the record contract
// exactly: no unknown fields and no type mismatches.
func strictSchema(records []models.RawRecord) (*models.Table, error) {
	b := newTableBuilder(len(records))
	for i, raw := range records {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		var typed strictRecord
		if err := dec.Decode(&typed); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if fields == nil {
			return nil, fmt.Errorf("record %d: null record", i)
		}
		for key := range fields {
			b.present[models.FieldColumns[key]] = true
		}

		rec := models.ArchiveRecord{
			ArchiveKey:        typed.ArchivedURLKey,
			ArchivedURL:       typed.ArchivedTweetURL,
			ParsedArchivedURL: typed.ParsedArchivedTweetURL,
			OriginalURL:       typed.OriginalTweetURL,
			ParsedOriginalURL: typed.ParsedTweetURL,
			Text:              typed.TweetText,
			IsRetweet:         typed.TweetIsRT,
			AuthorInfo:        typed.TweetInfo,
			Mimetype:          typed.ArchivedMimetype,
			StatusCode:        typed.ArchivedStatusCode,
			Digest:            typed.ArchivedDigest,
			Length:            typed.ArchivedLength,
			ResumptionKey:     typed.ResumptionKey,
		}
		if typed.ArchivedTimestamp != nil {
			rec.ArchivedAt = ParseArchiveTimestamp(*typed.ArchivedTimestamp)
		}
		if typed.TweetText != nil {
			b.textString = true
		}
		b.records = append(b.records, rec)
	}
	return b.table(), nil
}

// flattened accepts any JSON objects: nested objects are flattened into
// dotted keys and values are coerced leniently. Non-object records reject
// the whole batch.
func flattened(records []models.RawRecord) (*models.Table, error) {
	b := newTableBuilder(len(records))
	for i, raw := range records {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		b.addObject(obj)
	}
	return b.table(), nil
}

// salvage reads each record on its own: objects as in flattened, arrays as
// positional CDX rows, and anything else as an all-null row.
func salvage(records []models.RawRecord) (*models.Table, error) {
	b := newTableBuilder(len(records))
	for _, raw := range records {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			b.records = append(b.records, models.ArchiveRecord{})
			continue
		}
		switch x := v.(type) {
		case map[string]any:
			b.addObject(flattenObject(x))
		case []any:
			b.addPositional(x)
		default:
			b.records = append(b.records, models.ArchiveRecord{})
		}
	}
	return b.table(), nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("null record")
	}
	return flattenObject(obj), nil
}

// flattenObject joins nested object keys with ".".
func flattenObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
				walk(key, nested)
				continue
			}
			out[key] = v
		}
	}
	walk("", obj)
	return out
}

// tableBuilder accumulates rows and tracks which columns the input carried.
type tableBuilder struct {
	present map[string]bool
	records []models.ArchiveRecord

	// textString and textOther record whether any text value was a string
	// or some other non-null type; a text column holding only non-strings
	// is not materialized.
	textString bool
	textOther  bool
}

func newTableBuilder(n int) *tableBuilder {
	return &tableBuilder{
		present: make(map[string]bool),
		records: make([]models.ArchiveRecord, 0, n),
	}
}

// columnFor maps a raw field name, or an already-normalized column name,
// onto a column.
func columnFor(key string) (string, bool) {
	if col, ok := models.FieldColumns[key]; ok {
		return col, true
	}
	for _, col := range models.ColumnOrder {
		if key == col {
			return col, true
		}
	}
	return "", false
}

func (b *tableBuilder) addObject(obj map[string]any) {
	var rec models.ArchiveRecord
	for key, v := range obj {
		col, ok := columnFor(key)
		if !ok {
			continue
		}
		b.present[col] = true
		b.set(&rec, col, v)
	}
	b.records = append(b.records, rec)
}

func (b *tableBuilder) addPositional(row []any) {
	var rec models.ArchiveRecord
	for i, v := range row {
		if i >= len(cdxPositional) {
			break
		}
		b.present[cdxPositional[i]] = true
		b.set(&rec, cdxPositional[i], v)
	}
	b.records = append(b.records, rec)
}

func (b *tableBuilder) set(rec *models.ArchiveRecord, col string, v any) {
	switch col {
	case models.ColText:
		switch x := v.(type) {
		case nil:
		case string:
			b.textString = true
			rec.Text = &x
		default:
			b.textOther = true
		}
	case models.ColIsRetweet:
		rec.IsRetweet = coerceBool(v)
	case models.ColArchivedAt:
		if s := coerceString(v); s != nil {
			rec.ArchivedAt = ParseArchiveTimestamp(*s)
		}
	case models.ColArchiveKey:
		rec.ArchiveKey = coerceString(v)
	case models.ColArchivedURL:
		rec.ArchivedURL = coerceString(v)
	case models.ColParsedArchivedURL:
		rec.ParsedArchivedURL = coerceString(v)
	case models.ColOriginalURL:
		rec.OriginalURL = coerceString(v)
	case models.ColParsedOriginalURL:
		rec.ParsedOriginalURL = coerceString(v)
	case models.ColAuthorInfo:
		rec.AuthorInfo = coerceString(v)
	case models.ColMimetype:
		rec.Mimetype = coerceString(v)
	case models.ColStatusCode:
		rec.StatusCode = coerceString(v)
	case models.ColDigest:
		rec.Digest = coerceString(v)
	case models.ColLength:
		rec.Length = coerceString(v)
	case models.ColResumptionKey:
		rec.ResumptionKey = coerceString(v)
	}
}

func (b *tableBuilder) table() *models.Table {
	t := &models.Table{Records: b.records}
	for _, col := range models.ColumnOrder {
		if !b.present[col] {
			continue
		}
		if col == models.ColText && b.textOther && !b.textString {
			for i := range t.Records {
				t.Records[i].Text = nil
			}
			continue
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

func coerceString(v any) *string {
	switch x := v.(type) {
	case string:
		return &x
	case json.Number:
		s := x.String()
		return &s
	case bool:
		s := strconv.FormatBool(x)
		return &s
	}
	return nil
}

func coerceBool(v any) *bool {
	switch x := v.(type) {
	case bool:
		return &x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return &b
		}
	case json.Number:
		if n, err := x.Int64(); err == nil && (n == 0 || n == 1) {
			b := n == 1
			return &b
		}
	}
	return nil
}
