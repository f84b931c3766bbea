package hos

import (
	"fmt"
	"sort"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// hoursTolerance absorbs float rounding when four clipped durations that
// exactly cover a day are added together.
const hoursTolerance = 1e-9

// MilesFromKm converts a trip distance to miles.
func MilesFromKm(km float64) float64 {
	return km * domain.KmToMiles
}

// CheckDayHours returns domain.ErrHoursExceeded when h sums to more than 24.
func CheckDayHours(h Hours) error {
	if total := h.Total(); total > 24.0+hoursTolerance {
		return fmt.Errorf("%w: got %.6f hours", domain.ErrHoursExceeded, total)
	}
	return nil
}

// RepairChain recomputes CumulativeMileage over records in date order,
// starting from base (the cumulative mileage of the record immediately
// before the first one, or 0). It returns new records; the input is not
// modified.
func RepairChain(base float64, records []domain.DailyLogRecord) []domain.DailyLogRecord {
	out := make([]domain.DailyLogRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	cum := base
	for i := range out {
		cum += out[i].MilesToday
		out[i].CumulativeMileage = cum
	}
	return out
}
