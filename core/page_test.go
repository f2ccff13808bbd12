package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/statdash/core/align"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/iocache"
	"github.com/huangsam/statdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testPage() schema.PageDefinition {
	return schema.PageDefinition{
		Name:        "trade",
		Title:       "Trade",
		Granularity: schema.AnnualGranularity,
		Unit:        "dollars",
		Series: []schema.SeriesRef{
			{ID: "EXP", Label: "Exports", Color: "#2ca02c"},
			{ID: "IMP"},
		},
	}
}

func TestGetPageResult(t *testing.T) {
	ctx := context.Background()
	all := schema.AllPeriods()

	t.Run("failed fetch is inline", func(t *testing.T) {
		client := &contract.MockSeriesClient{}
		client.On("FetchSeries", mock.Anything, "EXP", mock.Anything).
			Return(series("EXP", pt("2021", 10), pt("2022", 12)), nil)
		client.On("FetchSeries", mock.Anything, "IMP", mock.Anything).
			Return(schema.Series{}, errors.New("HTTP 503"))

		cfg := &contract.Config{Workers: 4, Lookback: &all}
		result, err := GetPageResult(ctx, cfg, client, noCache(), testPage())
		require.NoError(t, err)

		assert.Equal(t, "trade", result.Name)
		require.Len(t, result.Series, 2)
		assert.Equal(t, "Exports", result.Series[0].Label)
		assert.Equal(t, schema.FetchedStatus, result.Series[0].Status)
		assert.Equal(t, 2, result.Series[0].PointCount)
		assert.Equal(t, schema.FailedStatus, result.Series[1].Status)
		assert.Equal(t, "dollars", result.Series[1].Unit, "page unit fills in for failed series")

		assert.Equal(t, []schema.SeriesError{{SeriesID: "IMP", Message: "HTTP 503"}}, result.Errors)

		require.Len(t, result.Rows, 2)
		for _, row := range result.Rows {
			assert.Contains(t, row.ValuesByID, "IMP", "failed series still has a column")
			assert.Nil(t, row.ValuesByID["IMP"].Value)
		}
		assert.InDelta(t, 20.0, *result.Rows[1].ValuesByID["EXP"].MoMPct, 1e-9)
	})

	t.Run("invalid granularity fails before fetching", func(t *testing.T) {
		client := &contract.MockSeriesClient{}
		page := testPage()
		page.Granularity = "weekly"

		_, err := GetPageResult(ctx, &contract.Config{Workers: 1}, client, noCache(), page)
		assert.ErrorIs(t, err, align.ErrInvalidGranularity)
		client.AssertNotCalled(t, "FetchSeries", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative lookback fails", func(t *testing.T) {
		bad := schema.LastYears(-1)
		_, err := GetPageResult(ctx, &contract.Config{Workers: 1, Lookback: &bad}, &contract.MockSeriesClient{}, noCache(), testPage())
		assert.ErrorIs(t, err, align.ErrInvalidLookback)
	})

	t.Run("overrides and filters", func(t *testing.T) {
		client := &contract.MockSeriesClient{}
		expected := schema.Filters{"area": "CA", "table": "T1"}
		client.On("FetchSeries", mock.Anything, mock.Anything, expected).Return(schema.Series{}, nil)

		page := testPage()
		page.Filters = map[string]string{"area": "US", "table": "T1"}
		cfg := &contract.Config{
			Workers:     2,
			Granularity: schema.MonthlyGranularity,
			Filters:     schema.Filters{"area": "CA"},
		}

		result, err := GetPageResult(ctx, cfg, client, nil, page)
		require.NoError(t, err)
		assert.Equal(t, schema.MonthlyGranularity, result.Granularity)
		assert.Equal(t, expected, result.Filters)
		assert.True(t, result.Lookback.All)
		assert.Empty(t, result.Rows)
		client.AssertNumberOfCalls(t, "FetchSeries", 2)
	})
}

func TestResolveLookback(t *testing.T) {
	five := 5
	page := schema.PageDefinition{LookbackYears: &five}
	override := schema.LastYears(2)

	assert.Equal(t, schema.LastYears(2), resolveLookback(&contract.Config{Lookback: &override}, page))
	assert.Equal(t, schema.LastYears(5), resolveLookback(&contract.Config{}, page))
	assert.Equal(t, schema.AllPeriods(), resolveLookback(&contract.Config{}, schema.PageDefinition{}))
}

// countingClient tracks concurrency so the worker bound can be checked.
type countingClient struct {
	contract.MockSeriesClient
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (c *countingClient) FetchSeries(_ context.Context, seriesID string, _ schema.Filters) (schema.Series, error) {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	c.inFlight.Add(-1)
	return series(seriesID, pt("2024", 1)), nil
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("bounded workers", func(t *testing.T) {
		client := &countingClient{}
		refs := make([]schema.SeriesRef, 10)
		for i := range refs {
			refs[i] = schema.SeriesRef{ID: string(rune('A' + i))}
		}

		fetches := fetchAll(ctx, client, nil, &contract.Config{Workers: 3}, refs, nil)
		require.Len(t, fetches, 10)
		for i, fetch := range fetches {
			assert.Equal(t, refs[i].ID, fetch.Series.ID, "results keep reference order")
		}
		assert.LessOrEqual(t, client.peak.Load(), int32(3))
	})

	t.Run("duplicate ids fetched once", func(t *testing.T) {
		client := &countingClient{}
		refs := []schema.SeriesRef{{ID: "A"}, {ID: "B"}, {ID: "A"}}

		fetches := fetchAll(ctx, client, nil, &contract.Config{Workers: 2}, refs, nil)
		require.Len(t, fetches, 3)
		assert.Equal(t, int32(2), client.calls.Load())
		assert.Equal(t, "A", fetches[2].Series.ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &contract.MockSeriesClient{}
		client.On("FetchSeries", mock.Anything, "A", mock.Anything).Return(schema.Series{}, context.Canceled)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		fetches := fetchAll(cancelled, client, nil, &contract.Config{Workers: 1}, []schema.SeriesRef{{ID: "A"}}, nil)
		require.Len(t, fetches, 1)
		assert.ErrorIs(t, fetches[0].Err, context.Canceled)
		assert.Equal(t, schema.FailedStatus, fetches[0].Status)
	})
}

func TestRunTracking(t *testing.T) {
	ctx := context.Background()
	all := schema.AllPeriods()

	client := &contract.MockSeriesClient{}
	client.On("FetchSeries", mock.Anything, "EXP", mock.Anything).
		Return(series("EXP", pt("2022", 12), pt("2021", 10)), nil)
	client.On("FetchSeries", mock.Anything, "IMP", mock.Anything).
		Return(schema.Series{}, errors.New("timeout"))

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", mock.Anything, "align", "", mock.Anything).Return(int64(7), "01JRUNKEY", nil)
	runs.On("RecordSeries", int64(7), "EXP", mock.MatchedBy(func(stat schema.RunSeriesStat) bool {
		return stat.PointCount == 2 && stat.FirstPeriod == "2021" && stat.LastPeriod == "2022" && stat.Status == schema.FetchedStatus
	})).Return(nil)
	runs.On("RecordSeries", int64(7), "IMP", mock.MatchedBy(func(stat schema.RunSeriesStat) bool {
		return stat.Status == schema.FailedStatus && stat.ErrorText == "timeout"
	})).Return(nil)
	runs.On("EndRun", int64(7), mock.Anything, 2, 1).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetSeriesStore").Return(nil)
	mgr.On("GetRunStore").Return(runs)

	page := testPage()
	page.Series = append(page.Series, schema.SeriesRef{ID: "EXP"})
	cfg := &contract.Config{Workers: 2, Lookback: &all}

	result, err := GetPageResult(withCommand(ctx, alignCommand), cfg, client, mgr, page)
	require.NoError(t, err)
	assert.Equal(t, "01JRUNKEY", result.RunKey)
	runs.AssertExpectations(t)
	runs.AssertNumberOfCalls(t, "RecordSeries", 2)
}

func TestRunTracking_BeginFailure(t *testing.T) {
	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", mock.Anything, "page", "trade", mock.Anything).Return(int64(0), "", errors.New("db locked"))

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetRunStore").Return(runs)

	tracker := beginRun(context.Background(), mgr, &contract.Config{}, testPage(), schema.AnnualGranularity, schema.AllPeriods(), nil)
	assert.Nil(t, tracker.store)
	tracker.end([]schema.SeriesFetch{{Series: schema.Series{ID: "EXP"}}})
	runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
