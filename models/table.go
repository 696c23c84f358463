package models

import (
	"strconv"
	"strings"
	"time"
)

// Table is the normalized tabular dataset. Columns holds the columns that
// were actually materialized from the input, always in ColumnOrder order,
// with matched_keyword appended when the table carries keyword annotations.
type Table struct {
	Columns []string
	Records []ArchiveRecord
	// MatchedKeywords is parallel to Records when the table is annotated.
	MatchedKeywords []string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether col was materialized.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Annotated reports whether the table carries a matched_keyword column.
func (t *Table) Annotated() bool {
	return t.HasColumn(ColMatchedKeyword)
}

// Value returns the cell at (row, col).
func (t *Table) Value(row int, col string) any {
	if col == ColMatchedKeyword {
		if row < len(t.MatchedKeywords) {
			return t.MatchedKeywords[row]
		}
		return nil
	}
	return t.Records[row].Value(col)
}

// RowKey returns a canonical encoding of every cell of a row, used for
// full-row equality. Missing values are encoded distinctly from empty ones.
func (t *Table) RowKey(row int) string {
	var sb strings.Builder
	for _, col := range ColumnOrder {
		writeCell(&sb, t.Records[row].Value(col))
	}
	if t.Annotated() {
		writeCell(&sb, t.Value(row, ColMatchedKeyword))
	}
	return sb.String()
}

func writeCell(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("\x00N")
	case string:
		sb.WriteString("\x00S")
		sb.WriteString(strconv.Itoa(len(x)))
		sb.WriteByte(':')
		sb.WriteString(x)
	case bool:
		sb.WriteString("\x00B")
		sb.WriteString(strconv.FormatBool(x))
	case time.Time:
		sb.WriteString("\x00T")
		sb.WriteString(x.UTC().Format(time.RFC3339Nano))
	}
}

// CloneColumns returns a copy of the column list.
func (t *Table) CloneColumns() []string {
	return append([]string(nil), t.Columns...)
}
