package services

import (
	"strings"
	"testing"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

func raws(docs ...string) []models.RawRecord {
	out := make([]models.RawRecord, len(docs))
	for i, d := range docs {
		out[i] = models.RawRecord(d)
	}
	return out
}

func TestParseArchiveTimestamp(t *testing.T) {
	got := ParseArchiveTimestamp("20240615123045")
	want := time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("ParseArchiveTimestamp(%q) = %v; want %v", "20240615123045", got, want)
	}

	for _, bad := range []string{"notadate", "", "2024061512304", "202406151230450", "20241315123045", "2024-06-15T12:30"} {
		if got := ParseArchiveTimestamp(bad); got != nil {
			t.Errorf("ParseArchiveTimestamp(%q) = %v; want nil", bad, got)
		}
	}
}

func TestNormalizeStrictContract(t *testing.T) {
	n := NewNormalizer(utils.Discard())
	table := n.Normalize(raws(
		`{"archived_urlkey":"k1","archived_timestamp":"20240615123045","parsed_archived_timestamp":"2024/06/15 12:30:45","available_tweet_text":"hello","available_tweet_is_RT":false,"available_tweet_info":"Jack (@jack)","archived_statuscode":"200"}`,
		`{"archived_urlkey":"k2","archived_timestamp":"notadate","available_tweet_text":null,"available_tweet_is_RT":null}`,
	), "jack")

	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	wantCols := []string{models.ColArchiveKey, models.ColArchivedAt, models.ColText, models.ColIsRetweet, models.ColAuthorInfo, models.ColStatusCode}
	if strings.Join(table.Columns, ",") != strings.Join(wantCols, ",") {
		t.Errorf("Columns = %v; want %v", table.Columns, wantCols)
	}

	first := table.Records[0]
	if first.ArchivedAt == nil || first.ArchivedAt.Hour() != 12 || first.ArchivedAt.Day() != 15 {
		t.Errorf("ArchivedAt = %v", first.ArchivedAt)
	}
	if first.IsRetweet == nil || *first.IsRetweet {
		t.Errorf("IsRetweet = %v; want false", first.IsRetweet)
	}

	second := table.Records[1]
	if second.ArchivedAt != nil {
		t.Errorf("invalid timestamp should be nil, got %v", second.ArchivedAt)
	}
	if second.ArchiveKey == nil || *second.ArchiveKey != "k2" {
		t.Errorf("row with bad timestamp must be kept intact, got %+v", second)
	}
	if second.Text != nil || second.IsRetweet != nil {
		t.Errorf("null fields should stay nil, got text=%v rt=%v", second.Text, second.IsRetweet)
	}
}

func TestNormalizeHeterogeneousRecords(t *testing.T) {
	n := NewNormalizer(utils.Discard())
	table := n.Normalize(raws(
		`{"archived_urlkey":"k1","available_tweet_text":"hello"}`,
		`{"archived_urlkey":"k2","archived_length":1234,"available_tweet_is_RT":"true","extra":{"nested":1}}`,
	), "jack")

	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	if !table.HasColumn(models.ColLength) || !table.HasColumn(models.ColText) {
		t.Errorf("Columns = %v; want length and text materialized", table.Columns)
	}
	if table.Records[0].Length != nil {
		t.Errorf("missing field should be nil, got %q", *table.Records[0].Length)
	}
	if l := table.Records[1].Length; l == nil || *l != "1234" {
		t.Errorf("numeric length should coerce to \"1234\", got %v", l)
	}
	if rt := table.Records[1].IsRetweet; rt == nil || !*rt {
		t.Errorf("string \"true\" should coerce to true, got %v", rt)
	}
}

func TestNormalizeNestedKeysFlatten(t *testing.T) {
	table, err := flattened(raws(`{"archived_urlkey":"k1","meta":{"a":{"b":"c"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 1 || *table.Records[0].ArchiveKey != "k1" {
		t.Errorf("unexpected table: %+v", table)
	}

	flat := flattenObject(map[string]any{"meta": map[string]any{"a": map[string]any{"b": "c"}}, "x": 1})
	if flat["meta.a.b"] != "c" || flat["x"] != 1 {
		t.Errorf("flattenObject = %v", flat)
	}
}

func TestNormalizeNonTextTypedTextColumn(t *testing.T) {
	n := NewNormalizer(utils.Discard())
	table := n.Normalize(raws(
		`{"archived_urlkey":"k1","available_tweet_text":42}`,
		`{"archived_urlkey":"k2","available_tweet_text":7}`,
	), "jack")

	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	if table.HasColumn(models.ColText) {
		t.Errorf("a text column with no string values should not be materialized, Columns = %v", table.Columns)
	}
}

func TestNormalizeSalvagesMixedInput(t *testing.T) {
	n := NewNormalizer(utils.Discard())
	table := n.Normalize(raws(
		`{"archived_urlkey":"k1","available_tweet_text":"hello"}`,
		`["com,twitter)/jack/status/1","20200101000000","https://twitter.com/jack/status/1","text/html","200","D","10"]`,
		`"just a string"`,
		`{not json`,
	), "jack")

	if table.Len() != 4 {
		t.Fatalf("expected every record kept as a row, got %d", table.Len())
	}
	cdx := table.Records[1]
	if cdx.ArchiveKey == nil || *cdx.ArchiveKey != "com,twitter)/jack/status/1" {
		t.Errorf("positional urlkey = %v", cdx.ArchiveKey)
	}
	if cdx.ArchivedAt == nil || cdx.ArchivedAt.Year() != 2020 {
		t.Errorf("positional timestamp = %v", cdx.ArchivedAt)
	}
	if cdx.OriginalURL == nil || *cdx.OriginalURL != "https://twitter.com/jack/status/1" {
		t.Errorf("positional original = %v", cdx.OriginalURL)
	}
	for _, i := range []int{2, 3} {
		if table.Records[i] != (models.ArchiveRecord{}) {
			t.Errorf("row %d should be all-null, got %+v", i, table.Records[i])
		}
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	n := NewNormalizer(utils.Discard())
	inputs := [][]models.RawRecord{
		nil,
		{},
		raws(""),
		raws("null", "[]", "{}", "[[[["),
		{nil, models.RawRecord("{")},
	}
	for i, in := range inputs {
		table := n.Normalize(in, "jack")
		if table == nil {
			t.Errorf("input %d: Normalize returned nil", i)
			continue
		}
		if table.Len() != len(in) {
			t.Errorf("input %d: got %d rows; want %d", i, table.Len(), len(in))
		}
	}
}

func TestRunStrategyRecoversPanics(t *testing.T) {
	boom := normalizeStrategy{name: "boom", fn: func([]models.RawRecord) (*models.Table, error) {
		panic("unexpected shape")
	}}
	table, err := runStrategy(boom, nil)
	if err == nil || table != nil {
		t.Errorf("runStrategy should turn a panic into an error, got table=%v err=%v", table, err)
	}
}
