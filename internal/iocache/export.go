package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/internal/objstore"
	"github.com/huangsam/statdash/internal/parquet"
)

// ExecuteRunsExport exports run history to Parquet files next to outputFile.
// outputFile may be an s3:// URL.
func ExecuteRunsExport(ctx context.Context, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total series records: %d\n", status.TableSizes[runSeriesTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	runSeries, err := store.GetAllRunSeries()
	if err != nil {
		return fmt.Errorf("failed to retrieve run series: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := exportParquet(ctx, parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetRunSeries := parquet.ConvertRunSeriesRecords(runSeries)
	runSeriesFile := outputFile + ".run_series.parquet"
	if err := exportParquet(ctx, parquetRunSeries, runSeriesFile); err != nil {
		return fmt.Errorf("failed to write run series: %w", err)
	}
	fmt.Printf("Exported %d series records to: %s\n", len(parquetRunSeries), runSeriesFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}

func exportParquet[T any](ctx context.Context, data []T, dest string) error {
	out, err := objstore.Create(dest)
	if err != nil {
		return err
	}
	if err := parquet.WriteRows(out, data); err != nil {
		out.Discard()
		return err
	}
	return out.Commit(ctx)
}
