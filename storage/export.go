package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archive-analyzer/models"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formats lists every supported export format.
var Formats = []Format{FormatCSV, FormatJSON, FormatHTML}

const (
	cellTimeLayout = "2006-01-02 15:04:05"
	jsonTimeLayout = "2006-01-02T15:04:05.000"
)

// ParseFormat maps "csv", "json" or "html" (any case) to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or html)", s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// FileName is the download name for a handle's export taken at now.
func FileName(handle string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_tweets_%s.%s", handle, now.Format("20060102150405"), f)
}

// Export writes t in format f. Output depends only on the table contents
// and column order.
func Export(w io.Writer, t *models.Table, f Format) error {
	if t == nil {
		t = &models.Table{}
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatHTML:
		return WriteHTML(w, t)
	}
	return fmt.Errorf("export: unsupported format %q", f)
}

// ExportFile writes t to dir under FileName and returns the path written.
// Intermediate directories are created automatically.
func ExportFile(dir, handle string, t *models.Table, f Format, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("export: create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(handle, f, now))

	var buf bytes.Buffer
	if err := Export(&buf, t, f); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("export: write %q: %w", path, err)
	}
	return path, nil
}

// WriteCSV writes a header row and one row per record, without an index
// column. Missing values are empty cells.
func WriteCSV(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cellText(t.Value(i, col), "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRecord marshals one row as an object with keys in column order.
type jsonRecord struct {
	columns []string
	values  []any
}

func (r jsonRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := r.values[i]
		if ts, ok := v.(time.Time); ok {
			v = ts.UTC().Format(jsonTimeLayout)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes the table as a pretty-printed array of records.
func WriteJSON(w io.Writer, t *models.Table) error {
	records := make([]jsonRecord, t.Len())
	for i := range records {
		values := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			values[j] = t.Value(i, col)
		}
		records[i] = jsonRecord{columns: t.Columns, values: values}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

var htmlTable = template.Must(template.New("table").Parse(`<table border="1" class="dataframe">
  <thead>
    <tr style="text-align: right;">
{{- range .Columns}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
{{- range .}}
      <td>{{.}}</td>
{{- end}}
    </tr>
{{- end}}
  </tbody>
</table>
`))

// WriteHTML writes the table as an HTML table without an index column.
// Missing values render as "None".
func WriteHTML(w io.Writer, t *models.Table) error {
	rows := make([][]string, t.Len())
	for i := range rows {
		rows[i] = make([]string, len(t.Columns))
		for j, col := range t.Columns {
			rows[i][j] = cellText(t.Value(i, col), "None")
		}
	}
	data := struct {
		Columns []string
		Rows    [][]string
	}{t.Columns, rows}

	if err := htmlTable.Execute(w, data); err != nil {
		return fmt.Errorf("html: render: %w", err)
	}
	return nil
}

// cellText renders one cell for the text formats.
func cellText(v any, null string) string {
	switch x := v.(type) {
	case nil:
		return null
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return x.UTC().Format(cellTimeLayout)
	}
	return fmt.Sprint(v)
}
