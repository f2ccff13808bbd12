package contract

import (
	"context"

	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/mock"
)

// MockSeriesClient is a mock implementation of SeriesClient for testing.
type MockSeriesClient struct {
	mock.Mock
}

var _ SeriesClient = &MockSeriesClient{} // Compile-time check

// FetchSeries implements the SeriesClient interface.
func (m *MockSeriesClient) FetchSeries(ctx context.Context, seriesID string, filters schema.Filters) (schema.Series, error) {
	args := m.Called(ctx, seriesID, filters)
	return args.Get(0).(schema.Series), args.Error(1)
}

// FetchDimensions implements the SeriesClient interface.
func (m *MockSeriesClient) FetchDimensions(ctx context.Context, kind string, filters schema.Filters) (schema.DimensionList, error) {
	args := m.Called(ctx, kind, filters)
	return args.Get(0).(schema.DimensionList), args.Error(1)
}

// FetchSnapshot implements the SeriesClient interface.
func (m *MockSeriesClient) FetchSnapshot(ctx context.Context, table string, period string, filters schema.Filters) (schema.Snapshot, error) {
	args := m.Called(ctx, table, period, filters)
	return args.Get(0).(schema.Snapshot), args.Error(1)
}
