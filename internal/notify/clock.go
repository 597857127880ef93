package notify

import "time"

// Clock is injected everywhere the pipeline needs the current instant,
// so window math and firing logic stay testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
