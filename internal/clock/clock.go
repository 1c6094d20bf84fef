package clock

import "time"

// Clock abstracts time for services that reason about windows and
// cutoffs, so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
