// Package pages holds the built-in dashboard pages and resolves page
// definitions from configuration.
package pages

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/huangsam/statdash/schema"
)

// ErrPageNotFound is returned when no page has the requested name.
var ErrPageNotFound = errors.New("page not found")

func years(n int) *int { return &n }

// defaults are the pages shipped with statdash, one per dashboard domain.
var defaults = []schema.PageDefinition{
	{
		Name:          "fixed-assets",
		Title:         "Fixed Assets",
		Description:   "Current-cost net stock of private and government fixed assets",
		Granularity:   schema.AnnualGranularity,
		LookbackYears: years(10),
		Unit:          "dollars",
		Series: []schema.SeriesRef{
			{ID: "FA-K1PTOTL1ES000", Label: "Private fixed assets", Color: "#1f77b4"},
			{ID: "FA-K1GTOTL1ES000", Label: "Government fixed assets", Color: "#ff7f0e"},
			{ID: "FA-K1CTOTL1ES000", Label: "Consumer durable goods", Color: "#2ca02c"},
		},
		Filters: map[string]string{"table": "FAAt101"},
	},
	{
		Name:          "leading-index",
		Title:         "Leading Index",
		Description:   "Composite leading indicators and their components",
		Granularity:   schema.MonthlyGranularity,
		LookbackYears: years(5),
		Unit:          "index",
		Series: []schema.SeriesRef{
			{ID: "LEI-USSLIND", Label: "Leading index", Color: "#9467bd"},
			{ID: "LEI-CCI", Label: "Coincident index", Color: "#8c564b"},
			{ID: "LEI-LAG", Label: "Lagging index", Color: "#e377c2"},
		},
	},
	{
		Name:          "employment",
		Title:         "Employment",
		Description:   "Nonfarm payrolls by supersector",
		Granularity:   schema.MonthlyGranularity,
		LookbackYears: years(5),
		Unit:          "jobs",
		Series: []schema.SeriesRef{
			{ID: "CES0000000001", Label: "Total nonfarm", Color: "#1f77b4"},
			{ID: "CES0500000001", Label: "Total private", Color: "#2ca02c"},
			{ID: "CES9000000001", Label: "Government", Color: "#d62728"},
		},
	},
	{
		Name:          "trade",
		Title:         "International Trade",
		Description:   "Exports, imports and the trade balance of goods and services",
		Granularity:   schema.QuarterlyGranularity,
		LookbackYears: years(8),
		Unit:          "dollars",
		Series: []schema.SeriesRef{
			{ID: "ITA-BOPGS-EXP", Label: "Exports", Color: "#2ca02c"},
			{ID: "ITA-BOPGS-IMP", Label: "Imports", Color: "#d62728"},
			{ID: "ITA-BOPGS-BAL", Label: "Balance", Color: "#7f7f7f"},
		},
		Filters: map[string]string{"area": "all"},
	},
	{
		Name:          "ppi",
		Title:         "Producer Price Index",
		Description:   "Final demand producer prices",
		Granularity:   schema.MonthlyGranularity,
		LookbackYears: years(5),
		Unit:          "index",
		Series: []schema.SeriesRef{
			{ID: "WPUFD4", Label: "Final demand", Color: "#17becf"},
			{ID: "WPUFD41", Label: "Final demand goods", Color: "#bcbd22"},
			{ID: "WPUFD42", Label: "Final demand services", Color: "#e377c2"},
		},
	},
	{
		Name:          "laus",
		Title:         "Local Area Unemployment",
		Description:   "Labor force and unemployment for a state or area",
		Granularity:   schema.MonthlyGranularity,
		LookbackYears: years(3),
		Unit:          "persons",
		Series: []schema.SeriesRef{
			{ID: "LAUS-LF", Label: "Labor force", Color: "#1f77b4"},
			{ID: "LAUS-EMP", Label: "Employed", Color: "#2ca02c"},
			{ID: "LAUS-UNEMP", Label: "Unemployed", Color: "#d62728"},
		},
		Filters: map[string]string{"area": "ST0000000000000"},
	},
}

// Defaults returns a copy of the built-in pages.
func Defaults() []schema.PageDefinition {
	out := make([]schema.PageDefinition, len(defaults))
	for i, p := range defaults {
		out[i] = clonePage(p)
	}
	return out
}

// Merge returns the built-in pages with configured pages layered on top.
// A configured page replaces a built-in page of the same name; new names are
// appended in configuration order.
func Merge(configured []schema.PageDefinition) []schema.PageDefinition {
	merged := Defaults()
	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[p.Name] = i
	}

	for _, p := range configured {
		if i, ok := index[p.Name]; ok {
			merged[i] = clonePage(p)
			continue
		}
		index[p.Name] = len(merged)
		merged = append(merged, clonePage(p))
	}
	return merged
}

// Lookup finds a page by name (case-insensitive).
func Lookup(pages []schema.PageDefinition, name string) (schema.PageDefinition, error) {
	for _, p := range pages {
		if strings.EqualFold(p.Name, name) {
			return clonePage(p), nil
		}
	}

	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = p.Name
	}
	sort.Strings(names)
	return schema.PageDefinition{}, fmt.Errorf("%w: %q (available: %s)", ErrPageNotFound, name, strings.Join(names, ", "))
}

// clonePage copies the slices and maps of a page so callers can modify it freely.
func clonePage(p schema.PageDefinition) schema.PageDefinition {
	out := p
	out.Series = append([]schema.SeriesRef(nil), p.Series...)
	if p.LookbackYears != nil {
		out.LookbackYears = years(*p.LookbackYears)
	}
	if p.Filters != nil {
		out.Filters = make(map[string]string, len(p.Filters))
		for k, v := range p.Filters {
			out.Filters[k] = v
		}
	}
	return out
}
