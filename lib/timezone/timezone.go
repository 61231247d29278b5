package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Istanbul")
	if err != nil {
		panic(err)
	}
}

// the registry publishes and timestamps everything in Turkish local time,
// so day-based bookkeeping has to happen in that zone no matter where the
// server runs
func Now() time.Time {
	return time.Now().In(Location)
}

// GetDayBounds returns the start of the given day and the start of the next
// one, both in registry-local time.
func GetDayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(Location)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
	return start, start.AddDate(0, 0, 1)
}
