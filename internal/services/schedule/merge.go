package schedule

import (
	"sort"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
)

const DefaultRetention = 180 * 24 * time.Hour

// Merge puts fresh records ahead of stored ones, keeps the first record per key,
// drops anything captured before now-retention and sorts newest first.
func Merge(fresh, existing []models.ScheduledFlightRecord, now time.Time, retention time.Duration) []models.ScheduledFlightRecord {
	if retention <= 0 {
		retention = DefaultRetention
	}
	cutoff := now.Add(-retention)

	seen := make(map[string]struct{}, len(fresh)+len(existing))
	out := make([]models.ScheduledFlightRecord, 0, len(fresh)+len(existing))

	for _, list := range [][]models.ScheduledFlightRecord{fresh, existing} {
		for _, r := range list {
			k := r.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if r.ScrapedAt.IsZero() || r.ScrapedAt.Before(cutoff) {
				continue
			}
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out
}
