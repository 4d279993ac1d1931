package migrator

import (
	"context"

	"github.com/drivetools/drive-migrate/pkg/driveclient"
	"github.com/drivetools/drive-migrate/pkg/manifest"
)

// Summary aggregates the outcomes of a whole run.
type Summary struct {
	Rows             int // rows that yielded an item identifier
	UnrecognizedURLs int
	Migrated         int
	AlreadyDone      int
	Skipped          int
	Failed           int
	BytesDuplicated  int64
}

func (s *Summary) add(results []Result) {
	for _, r := range results {
		switch r.Status {
		case StatusMigrated:
			s.Migrated++
		case StatusAlreadyDone:
			s.AlreadyDone++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.BytesDuplicated += r.Bytes
	}
}

// Run drives the migrator over every manifest row. Rows with an
// unrecognized URL shape are skipped with a warning, and one row's failure
// never prevents the remaining rows from being attempted.
func (m *Migrator) Run(ctx context.Context, rows []manifest.Row, dest driveclient.ItemRef) Summary {
	var sum Summary
	for _, row := range rows {
		id, ok := manifest.ExtractItemID(row.URL)
		if !ok {
			m.log.Skip(row.Name, "", "could not extract an item identifier from URL: "+row.URL)
			sum.UnrecognizedURLs++
			continue
		}

		sum.Rows++
		sum.add(m.Migrate(ctx, driveclient.ItemRef(id), dest))

		if ctx.Err() != nil {
			break
		}
	}
	return sum
}
