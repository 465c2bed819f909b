package store

import (
	"context"
	"os"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// vacuumTables lists every table VacuumStats reports a row count for.
var vacuumTables = []string{"jobs", "config", "workers"}

// VacuumStats reports the on-disk file size and a row count per table,
// purely informational data surfaced by `queuectl status --verbose`. It
// takes no lock and never touches the scheduling state machine.
func (s *Store) VacuumStats(ctx context.Context) (domain.VacuumStats, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return domain.VacuumStats{}, err
	}

	counts := make(map[string]int, len(vacuumTables))
	for _, table := range vacuumTables {
		var n int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table)
		if err := row.Scan(&n); err != nil {
			return domain.VacuumStats{}, err
		}
		counts[table] = n
	}

	return domain.VacuumStats{FileSizeBytes: info.Size(), RowCounts: counts}, nil
}
