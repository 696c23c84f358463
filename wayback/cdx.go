package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"archive-analyzer/models"
	"archive-analyzer/utils"
)

// Snapshot is one row of the archive's CDX index.
type Snapshot struct {
	URLKey     string
	Timestamp  string // YYYYMMDDhhmmss
	Original   string
	Mimetype   string
	StatusCode string
	Digest     string
	Length     string
}

// cdxResult is a decoded CDX response.
type cdxResult struct {
	Snapshots []Snapshot
	ResumeKey string
}

var defaultCDXFields = []string{"urlkey", "timestamp", "original", "mimetype", "statuscode", "digest", "length"}

// queryValues builds the CDX query. Absent optional parameters are left out
// of the query string; a missing to-date defaults to today so the window is
// always bounded above.
func queryValues(p models.FetchParams, now time.Time) url.Values {
	q := url.Values{}
	q.Set("url", "https://twitter.com/"+p.Handle+"/status/*")
	q.Set("output", "json")
	q.Set("showResumeKey", "true")

	if from, ok := p.FromDate.Get(); ok {
		q.Set("from", from)
	}
	q.Set("to", p.ToDate.Or(now.Format("20060102")))
	if limit, ok := p.Limit.Get(); ok {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) queryCDX(ctx context.Context, p models.FetchParams) (*cdxResult, error) {
	endpoint := c.opts.CDXURL + "?" + queryValues(p, c.now()).Encode()
	c.logger.Debug("[wayback] CDX query: %s", endpoint)

	var body []byte
	err := c.retry.Do(ctx, "wayback-cdx", func() error {
		var err error
		body, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return parseCDX(body)
}

// get performs one GET with fresh browser-like headers and returns the body.
// 4xx responses other than 429 are permanent.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("create request: %w", err))
	}
	c.headers.Next().Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, utils.Permanent(err)
	}
	return body, nil
}

// parseCDX decodes the JSON-array CDX output: a header row, data rows, and
// optionally an empty row followed by a one-element resume-key row.
func parseCDX(body []byte) (*cdxResult, error) {
	res := &cdxResult{}
	if len(strings.TrimSpace(string(body))) == 0 {
		return res, nil
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse cdx: %w", err)
	}
	if len(rows) == 0 {
		return res, nil
	}

	header := rows[0]
	if len(header) == 0 {
		header = defaultCDXFields
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	field := func(row []string, name string) string {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			if i+1 < len(rows) && len(rows[i+1]) > 0 {
				res.ResumeKey = rows[i+1][0]
			}
			break
		}
		res.Snapshots = append(res.Snapshots, Snapshot{
			URLKey:     field(row, "urlkey"),
			Timestamp:  field(row, "timestamp"),
			Original:   field(row, "original"),
			Mimetype:   field(row, "mimetype"),
			StatusCode: field(row, "statuscode"),
			Digest:     field(row, "digest"),
			Length:     field(row, "length"),
		})
	}
	return res, nil
}
