// Package align merges independently fetched sparse series onto one period axis
// and derives previous-point and year-over-year changes per series.
package align

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/huangsam/statdash/schema"
)

// Errors returned for caller mistakes. Data-shape problems never produce errors.
var (
	ErrInvalidGranularity = errors.New("granularity must be annual, quarterly or monthly")
	ErrInvalidLookback    = errors.New("lookback years must not be negative")
)

// seriesIndex is a de-duplicated, period-sorted view of one series.
type seriesIndex struct {
	id       string
	points   []schema.SeriesPoint
	position map[string]int
}

// Align aligns the series relative to the current date.
func Align(series []schema.Series, lookback schema.Lookback, granularity schema.Granularity) ([]schema.AlignedRow, error) {
	return AlignAt(series, lookback, granularity, time.Now())
}

// AlignAt produces one row per distinct period (after lookback filtering) across
// all series, sorted ascending. Every row has an entry for every series id.
//
// Changes are computed on each series' own point sequence: the previous point is
// the preceding entry in that series, not the preceding row of the union, and the
// year-over-year point sits granularity.YearOverYearOffset() entries earlier.
func AlignAt(series []schema.Series, lookback schema.Lookback, granularity schema.Granularity, now time.Time) ([]schema.AlignedRow, error) {
	yoyOffset := granularity.YearOverYearOffset()
	if yoyOffset == 0 {
		return nil, fmt.Errorf("%w (received %q)", ErrInvalidGranularity, granularity)
	}
	if !lookback.All && lookback.Years < 0 {
		return nil, fmt.Errorf("%w (received %d)", ErrInvalidLookback, lookback.Years)
	}

	rows := []schema.AlignedRow{}
	if len(series) == 0 {
		return rows, nil
	}

	// --- 1. Index every series and collect the period union ---
	minYear := now.Year() - lookback.Years
	indexes := make([]seriesIndex, 0, len(series))
	union := make(map[string]struct{})
	for _, s := range mergeByID(series) {
		idx := newSeriesIndex(s)
		indexes = append(indexes, idx)
		for _, p := range idx.points {
			if lookback.All || withinLookback(p.Period, minYear) {
				union[p.Period] = struct{}{}
			}
		}
	}

	// --- 2. Sort the union; period keys sort chronologically as strings ---
	periods := slices.Sorted(maps.Keys(union))

	// --- 3. Fill each row from every series' own sequence ---
	for _, period := range periods {
		row := schema.AlignedRow{
			Period:     period,
			ValuesByID: make(map[string]schema.SeriesChange, len(indexes)),
		}
		for _, idx := range indexes {
			row.ValuesByID[idx.id] = idx.changeAt(period, yoyOffset)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// mergeByID folds series that share an ID into one, in order of first
// appearance. Their points are concatenated in input order, so a later
// series wins duplicate periods and an empty duplicate changes nothing.
func mergeByID(series []schema.Series) []schema.Series {
	merged := make([]schema.Series, 0, len(series))
	position := make(map[string]int, len(series))
	for _, s := range series {
		i, seen := position[s.ID]
		if !seen {
			position[s.ID] = len(merged)
			merged = append(merged, schema.Series{ID: s.ID, Points: s.Points})
			continue
		}
		points := make([]schema.SeriesPoint, 0, len(merged[i].Points)+len(s.Points))
		points = append(points, merged[i].Points...)
		merged[i].Points = append(points, s.Points...)
	}
	return merged
}

// newSeriesIndex drops duplicate periods (last occurrence wins), nulls out
// non-finite values and sorts the remaining points by period.
func newSeriesIndex(s schema.Series) seriesIndex {
	latest := make(map[string]*float64, len(s.Points))
	for _, p := range s.Points {
		latest[p.Period] = sanitize(p.Value)
	}

	points := make([]schema.SeriesPoint, 0, len(latest))
	for period, value := range latest {
		points = append(points, schema.SeriesPoint{Period: period, Value: value})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})

	position := make(map[string]int, len(points))
	for i, p := range points {
		position[p.Period] = i
	}

	return seriesIndex{id: s.ID, points: points, position: position}
}

// changeAt returns the series' value and changes at the given period.
func (idx seriesIndex) changeAt(period string, yoyOffset int) schema.SeriesChange {
	pos, ok := idx.position[period]
	if !ok {
		return schema.SeriesChange{}
	}

	cur := idx.points[pos].Value
	change := schema.SeriesChange{Value: cur}

	if pos >= 1 {
		prev := idx.points[pos-1].Value
		change.MoMChange = Diff(cur, prev)
		change.MoMPct = PctChange(cur, prev)
	}
	if pos >= yoyOffset {
		prev := idx.points[pos-yoyOffset].Value
		change.YoYChange = Diff(cur, prev)
		change.YoYPct = PctChange(cur, prev)
	}

	return change
}

// Diff returns cur - prev, or nil when either side is missing.
func Diff(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	return ptr(*cur - *prev)
}

// PctChange returns (cur - prev) / |prev| * 100. It is nil when either side is
// missing or prev is zero.
func PctChange(cur, prev *float64) *float64 {
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	return ptr((*cur - *prev) / math.Abs(*prev) * 100)
}

// LeadingYear parses the four-digit year a period key starts with.
func LeadingYear(period string) (int, bool) {
	if len(period) < 4 {
		return 0, false
	}
	year := 0
	for _, r := range period[:4] {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	return year, true
}

// withinLookback reports whether the period's leading year is at least minYear.
// Periods without a leading year never satisfy a year-bounded lookback.
func withinLookback(period string, minYear int) bool {
	year, ok := LeadingYear(period)
	return ok && year >= minYear
}

func sanitize(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return ptr(*v)
}

func ptr(v float64) *float64 {
	return &v
}
