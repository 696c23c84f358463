package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"archive-analyzer/models"
)

// ParseKeywords splits keyword input into one keyword per line. Surrounding
// whitespace is trimmed and blank lines are dropped; order is kept.
func ParseKeywords(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if kw := strings.TrimSpace(line); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ParseDate accepts YYYYMMDD or YYYY-MM-DD and returns the archive query
// form (YYYYMMDD). Blank input is absent.
func ParseDate(s string) (models.Optional[string], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.None[string](), nil
	}
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return models.Some(d.Format("20060102")), nil
		}
	}
	return models.None[string](), fmt.Errorf("invalid date %q (want YYYYMMDD)", s)
}

// ParseLimit reads an optional positive row limit. Blank or zero is absent.
func ParseLimit(s string) (models.Optional[int], error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.None[int](), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return models.None[int](), fmt.Errorf("invalid limit %q (want a positive number)", s)
	}
	if n == 0 {
		return models.None[int](), nil
	}
	return models.Some(n), nil
}

// CleanHandle trims whitespace and a leading "@".
func CleanHandle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// NewRequest builds a Request from raw form or flag input.
func NewRequest(handle, from, to, limit, keywords string) (Request, error) {
	req := Request{Handle: CleanHandle(handle), Keywords: ParseKeywords(keywords)}
	if req.Handle == "" {
		return req, errors.New("a handle is required")
	}

	var err error
	if req.FromDate, err = ParseDate(from); err != nil {
		return req, fmt.Errorf("from date: %w", err)
	}
	if req.ToDate, err = ParseDate(to); err != nil {
		return req, fmt.Errorf("to date: %w", err)
	}
	if req.Limit, err = ParseLimit(limit); err != nil {
		return req, err
	}
	return req, nil
}
