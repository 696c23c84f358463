package services

import (
	"time"

	"archive-analyzer/models"
)

const (
	dailyMaxSpanDays   = 90
	monthlyMaxSpanDays = 730
)

// SpanDays returns the whole days elapsed between first and last.
func SpanDays(first, last time.Time) int {
	return int(last.Sub(first) / (24 * time.Hour))
}

// GranularityFor picks the bucket width for a span: daily up to 90 days,
// monthly up to 730 days, yearly beyond.
func GranularityFor(spanDays int) models.Granularity {
	switch {
	case spanDays <= dailyMaxSpanDays:
		return models.Daily
	case spanDays <= monthlyMaxSpanDays:
		return models.Monthly
	default:
		return models.Yearly
	}
}

// BuildTimeline buckets capture times into a continuous, zero-filled series
// from the first to the last bucket. It returns nil for no times.
func BuildTimeline(times []time.Time) *models.Timeline {
	if len(times) == 0 {
		return nil
	}

	first, last := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	span := SpanDays(first, last)
	g := GranularityFor(span)

	counts := make(map[time.Time]int)
	for _, t := range times {
		counts[bucketStart(t, g)]++
	}

	tl := &models.Timeline{Granularity: g, SpanDays: span}
	end := bucketStart(last, g)
	for start := bucketStart(first, g); !start.After(end); start = nextBucket(start, g) {
		tl.Buckets = append(tl.Buckets, models.Bucket{
			Label: bucketLabel(start, g),
			Start: start,
			Count: counts[start],
		})
	}
	return tl
}

func bucketStart(t time.Time, g models.Granularity) time.Time {
	t = t.UTC()
	switch g {
	case models.Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case models.Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func nextBucket(start time.Time, g models.Granularity) time.Time {
	switch g {
	case models.Yearly:
		return start.AddDate(1, 0, 0)
	case models.Monthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func bucketLabel(start time.Time, g models.Granularity) string {
	switch g {
	case models.Yearly:
		return start.Format("2006")
	case models.Monthly:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}
