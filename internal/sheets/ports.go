package sheets

import (
	"context"

	"lapor/internal/core"
)

// RecapAppender mirrors a committed report into the shared recap
// spreadsheet. The database remains the source of truth; the recap is a
// read-only projection for the administration.
type RecapAppender interface {
	AppendRecapRow(ctx context.Context, rep core.Report) (rowRef string, err error)
}
