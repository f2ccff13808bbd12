package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/huangsam/statdash/schema"
)

type seriesResponse struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Unit      string          `json:"unit"`
	UnitScale *int            `json:"unit_scale"`
	Points    []pointResponse `json:"points"`
}

type pointResponse struct {
	Period string `json:"period"`
	Value  any    `json:"value"`
}

type dimensionsResponse struct {
	Kind   string             `json:"kind"`
	Values []schema.Dimension `json:"values"`
}

type snapshotResponse struct {
	Table     string         `json:"table"`
	Period    string         `json:"period"`
	Unit      string         `json:"unit"`
	UnitScale *int           `json:"unit_scale"`
	Items     []itemResponse `json:"items"`
}

type itemResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

// FetchSeries implements contract.SeriesClient.
func (c *Client) FetchSeries(ctx context.Context, seriesID string, filters schema.Filters) (schema.Series, error) {
	var payload seriesResponse
	if err := c.getJSON(ctx, "/series/"+url.PathEscape(seriesID), filterQuery(filters), &payload); err != nil {
		return schema.Series{}, fmt.Errorf("fetch series %s: %w", seriesID, err)
	}

	series := schema.Series{
		ID:        seriesID,
		Label:     payload.Label,
		Unit:      payload.Unit,
		UnitScale: payload.UnitScale,
		Points:    make([]schema.SeriesPoint, 0, len(payload.Points)),
	}
	for _, p := range payload.Points {
		period := strings.TrimSpace(p.Period)
		if period == "" {
			continue
		}
		series.Points = append(series.Points, schema.SeriesPoint{Period: period, Value: ParseValue(p.Value)})
	}
	return series, nil
}

// FetchDimensions implements contract.SeriesClient.
func (c *Client) FetchDimensions(ctx context.Context, kind string, filters schema.Filters) (schema.DimensionList, error) {
	var payload dimensionsResponse
	if err := c.getJSON(ctx, "/dimensions/"+url.PathEscape(kind), filterQuery(filters), &payload); err != nil {
		return schema.DimensionList{}, fmt.Errorf("fetch dimensions %s: %w", kind, err)
	}

	values := payload.Values
	if values == nil {
		values = []schema.Dimension{}
	}
	return schema.DimensionList{Kind: kind, Values: values}, nil
}

// FetchSnapshot implements contract.SeriesClient.
func (c *Client) FetchSnapshot(ctx context.Context, table string, period string, filters schema.Filters) (schema.Snapshot, error) {
	query := filterQuery(filters)
	if period != "" {
		query.Set("period", period)
	}

	var payload snapshotResponse
	if err := c.getJSON(ctx, "/snapshot/"+url.PathEscape(table), query, &payload); err != nil {
		return schema.Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", table, err)
	}

	snapshot := schema.Snapshot{
		Table:     table,
		Period:    payload.Period,
		Unit:      payload.Unit,
		UnitScale: payload.UnitScale,
		Items:     make([]schema.SnapshotItem, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		snapshot.Items = append(snapshot.Items, schema.SnapshotItem{
			Code:  item.Code,
			Label: item.Label,
			Value: ParseValue(item.Value),
		})
	}
	return snapshot, nil
}

// ParseValue coerces a decoded JSON value into a number. Numeric strings
// (including thousands separators) are accepted; anything else is nil.
func ParseValue(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func filterQuery(filters schema.Filters) url.Values {
	query := url.Values{}
	for key, value := range filters {
		query.Set(key, value)
	}
	return query
}
