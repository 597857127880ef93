package notify

import "time"

// Window окно дедлайнов для напоминаний: [сегодня 00:00, завтра 23:59:59.999...]
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow builds the selection window as of the given instant:
// start is midnight of the current local day, end is the last instant of
// the following day. A task due any time today or tomorrow falls inside.
func ComputeWindow(now time.Time) Window {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 2).Add(-time.Nanosecond)
	return Window{Start: start, End: end}
}
