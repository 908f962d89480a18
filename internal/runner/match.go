package runner

import (
	"time"

	"github.com/robfig/cron/v3"

	"pushpal/internal/config"
	"pushpal/pkg/logx"
)

// Strict 5-field cron (minute hour dom month dow), no descriptors.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// IsDue reports whether pattern fires at now, evaluated in UTC at
// minute resolution. The check is purely a function of the current
// minute: the next activation strictly after (minute - 1m) must land
// exactly on the current minute. There is no last-execution memory, so
// two invocations within the same minute both match; the external
// trigger cadence is expected to be minute-granular.
func IsDue(pattern string, now time.Time) (bool, error) {
	sched, err := cronParser.Parse(pattern)
	if err != nil {
		return false, err
	}
	minute := now.UTC().Truncate(time.Minute)
	return sched.Next(minute.Add(-time.Minute)).Equal(minute), nil
}

// dueSchedules selects the schedules to run. An explicit id bypasses
// time matching entirely (the manual/test invocation path); an unknown
// explicit id is fatal. During time matching, an unparsable pattern
// only skips its own schedule.
func (r *Runner) dueSchedules(cfg *config.Config, now time.Time, explicitID string) ([]config.Schedule, error) {
	if explicitID != "" {
		sch, err := cfg.ScheduleByID(explicitID)
		if err != nil {
			return nil, err
		}
		return []config.Schedule{*sch}, nil
	}

	var due []config.Schedule
	for _, sch := range cfg.Schedules {
		ok, err := IsDue(sch.Cron, now)
		if err != nil {
			r.log.Warn("bad cron pattern, skipping schedule",
				logx.String("schedule", sch.ID),
				logx.String("cron", sch.Cron),
				logx.Err(err))
			continue
		}
		if ok {
			due = append(due, sch)
		}
	}
	return due, nil
}
