package schema

import "time"

// SeriesRef names one series on a page along with its presentation.
type SeriesRef struct {
	ID    string `mapstructure:"id" json:"id"`
	Label string `mapstructure:"label" json:"label,omitempty"`
	Color string `mapstructure:"color" json:"color,omitempty"`
}

// PageDefinition is the configuration of one dashboard page.
type PageDefinition struct {
	Name          string            `mapstructure:"name" json:"name"`
	Title         string            `mapstructure:"title" json:"title"`
	Description   string            `mapstructure:"description" json:"description,omitempty"`
	Granularity   Granularity       `mapstructure:"granularity" json:"granularity"`
	LookbackYears *int              `mapstructure:"lookback_years" json:"lookback_years,omitempty"`
	Unit          string            `mapstructure:"unit" json:"unit,omitempty"`
	Series        []SeriesRef       `mapstructure:"series" json:"series"`
	Filters       map[string]string `mapstructure:"filters" json:"filters,omitempty"`
}

// SeriesFetch is the outcome of fetching a single series.
type SeriesFetch struct {
	Series   Series
	Status   FetchStatus
	Err      error
	Duration time.Duration
}

// SeriesMeta describes a series in a rendered page without its points.
type SeriesMeta struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Color      string      `json:"color,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	UnitScale  *int        `json:"unit_scale,omitempty"`
	Status     FetchStatus `json:"status"`
	PointCount int         `json:"point_count"`
}

// SeriesError is an inline, non-fatal fetch failure shown next to a page.
type SeriesError struct {
	SeriesID string `json:"series_id"`
	Message  string `json:"message"`
}

// PageResult is a fully rendered page: series metadata, the aligned table
// and any per-series failures.
type PageResult struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Granularity Granularity   `json:"granularity"`
	Lookback    Lookback      `json:"lookback"`
	Filters     Filters       `json:"filters,omitempty"`
	RunKey      string        `json:"run_key,omitempty"`
	Series      []SeriesMeta  `json:"series"`
	Rows        []AlignedRow  `json:"rows"`
	Errors      []SeriesError `json:"errors,omitempty"`
}

// Dimension is one selectable filter value.
type Dimension struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// DimensionList is the set of values for one filter kind (tables, categories, areas).
type DimensionList struct {
	Kind   string      `json:"kind"`
	Values []Dimension `json:"values"`
}

// SnapshotItem is one category of a cross-sectional snapshot.
type SnapshotItem struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// Snapshot is a single-period payload covering all categories of a table.
type Snapshot struct {
	Table     string         `json:"table"`
	Period    string         `json:"period"`
	Unit      string         `json:"unit,omitempty"`
	UnitScale *int           `json:"unit_scale,omitempty"`
	Items     []SnapshotItem `json:"items"`
}
