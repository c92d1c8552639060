// ABOUTME: Sample data inserted on first start so a fresh install has something to show
// ABOUTME: One unowned activity row per weekday, inserted only into an empty table

package store

import (
	"context"
	"fmt"
)

// sampleActivities is one week of unowned activity rows.
var sampleActivities = []Activity{
	{Day: "Lun", Steps: 5200, DistanceKm: 3.4, ActiveTime: "45m"},
	{Day: "Mar", Steps: 7600, DistanceKm: 5.1, ActiveTime: "1h 10m"},
	{Day: "Mié", Steps: 3200, DistanceKm: 2.1, ActiveTime: "30m"},
	{Day: "Jue", Steps: 8900, DistanceKm: 6.4, ActiveTime: "1h 25m"},
	{Day: "Vie", Steps: 10400, DistanceKm: 8.0, ActiveTime: "1h 55m"},
	{Day: "Sáb", Steps: 6500, DistanceKm: 4.8, ActiveTime: "50m"},
	{Day: "Dom", Steps: 4000, DistanceKm: 2.9, ActiveTime: "35m"},
}

// SeedSampleActivities inserts the sample week when the activities table is empty.
// Returns the number of rows inserted.
func (s *SQLiteStore) SeedSampleActivities(ctx context.Context) (int, error) {
	n, err := s.CountActivities(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i := range sampleActivities {
		a := sampleActivities[i]
		if err := s.CreateActivity(ctx, &a); err != nil {
			return i, fmt.Errorf("seeding activity %s: %w", a.Day, err)
		}
	}

	s.logger.Info("seeded sample activities", "count", len(sampleActivities))
	return len(sampleActivities), nil
}
