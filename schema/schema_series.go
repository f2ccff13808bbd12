// Package schema has models and typed constants shared by all parts of statdash.
package schema

import (
	"maps"
	"net/url"
	"strconv"
)

// SeriesPoint is a single observation. A nil Value means the period was
// reported without a usable number.
type SeriesPoint struct {
	Period string   `json:"period"`
	Value  *float64 `json:"value"`
}

// Series is one fetched time series. It is replaced wholesale on refetch.
type Series struct {
	ID        string        `json:"id"`
	Label     string        `json:"label,omitempty"`
	Unit      string        `json:"unit,omitempty"`
	UnitScale *int          `json:"unit_scale,omitempty"`
	Points    []SeriesPoint `json:"points"`
}

// SeriesChange holds a series' value at one aligned period along with its
// changes relative to the previous point and the same point a year earlier.
type SeriesChange struct {
	Value     *float64 `json:"value"`
	MoMChange *float64 `json:"mom_change"`
	MoMPct    *float64 `json:"mom_pct"`
	YoYChange *float64 `json:"yoy_change"`
	YoYPct    *float64 `json:"yoy_pct"`
}

// AlignedRow is one period of the aligned table.
type AlignedRow struct {
	Period     string                  `json:"period"`
	ValuesByID map[string]SeriesChange `json:"values"`
}

// Lookback restricts alignment to recent periods.
type Lookback struct {
	All   bool `json:"all"`
	Years int  `json:"years,omitempty"`
}

// AllPeriods returns a lookback that keeps every period.
func AllPeriods() Lookback {
	return Lookback{All: true}
}

// LastYears returns a lookback that keeps periods from the last k calendar years.
func LastYears(k int) Lookback {
	return Lookback{Years: k}
}

// String renders the lookback the way it is accepted on the command line.
func (l Lookback) String() string {
	if l.All {
		return "all"
	}
	return strconv.Itoa(l.Years)
}

// Filters are the user-selected dimension values applied to a fetch.
type Filters map[string]string

// Canonical renders the filters query-escaped in a stable key order,
// suitable for cache keys. Keys and values containing '&' or '=' cannot
// collide with a different filter set.
func (f Filters) Canonical() string {
	if len(f) == 0 {
		return ""
	}
	values := make(url.Values, len(f))
	for k, v := range f {
		values.Set(k, v)
	}
	return values.Encode()
}

// Merge returns a new Filters with other's values overriding f's.
func (f Filters) Merge(other Filters) Filters {
	out := make(Filters, len(f)+len(other))
	maps.Copy(out, f)
	maps.Copy(out, other)
	return out
}
