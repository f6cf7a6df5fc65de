package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a job at a fixed period. Used as the archive
// cadence when no cron expression is configured.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule builds a fixed-period schedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the first run time strictly after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in the "@every" notation.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
