package retention

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the purge once a day at midnight UTC.
const DefaultSchedule = "@daily"

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron expression or descriptor (@daily, @every 1h).
// Empty defaults to DefaultSchedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// NextRun returns the next purge time after from, in UTC.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from.UTC()).UTC(), nil
}
