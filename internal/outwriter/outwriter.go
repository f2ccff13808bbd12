// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePage prints an aligned page using the configured output format.
func (ow *OutWriter) WritePage(result schema.PageResult, cfg *contract.Config, duration time.Duration) error {
	return PrintPageResult(result, cfg, duration)
}

// WriteSnapshot prints a cross-sectional snapshot using the configured output format.
func (ow *OutWriter) WriteSnapshot(snapshot schema.Snapshot, cfg *contract.Config) error {
	return PrintSnapshot(snapshot, cfg)
}

// WriteDimensions prints the values of a filter kind using the configured output format.
func (ow *OutWriter) WriteDimensions(list schema.DimensionList, cfg *contract.Config) error {
	return PrintDimensions(list, cfg)
}

// WritePages prints the available page definitions using the configured output format.
func (ow *OutWriter) WritePages(pages []schema.PageDefinition, cfg *contract.Config) error {
	return PrintPageDefinitions(pages, cfg)
}
