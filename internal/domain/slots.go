package domain

import "time"

// Slots returns the start instants within open where a booking of length
// duration fits, stepping by step from each interval's start. Starts before
// notBefore are skipped.
func Slots(open []Interval, duration, step time.Duration, notBefore time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for _, iv := range open {
		for t := iv.Start; !t.Add(duration).After(iv.End); t = t.Add(step) {
			if t.Before(notBefore) {
				continue
			}
			slots = append(slots, t)
		}
	}
	return slots
}
