package ports

import (
	"socialcost/domain/montecarlo"
)

// BatchExporter writes a batch's per-discount-rate result tables and
// summary to delimited files under dir.
type BatchExporter interface {
	WriteTables(dir string, batch *montecarlo.Batch) error
}
