// Package buckets derives the schedule-bucket view of a task list. The
// derivation is pure: it never mutates tasks and is recomputed from
// scratch whenever the underlying list changes.
package buckets

import (
	"sort"
	"time"

	"github.com/todone/todone/internal/models"
)

// DefaultWorkdayMinutes is the capacity used when nothing is configured.
const DefaultWorkdayMinutes = 480

// completedWindow is the rolling window behind CompletedTodayCount. It
// is not calendar-day aligned on purpose.
const completedWindow = 24 * time.Hour

// Summary partitions a task list into its schedule buckets plus the
// aggregate numbers the nudge engine and the UI read.
type Summary struct {
	Today       []models.Task
	Week        []models.Task
	Unscheduled []models.Task
	Done        []models.Task

	TodayPlannedMinutes int
	TodayDoneMinutes    int
	TodayTotalMinutes   int
	WeekMinutes         int

	PendingCount        int
	CompletedTodayCount int
	Overloaded          bool
	WorkdayMinutes      int
}

// Build partitions tasks by bucket. Pending buckets sort by Order
// ascending; Done sorts by DoneAt descending. workdayMinutes <= 0 falls
// back to DefaultWorkdayMinutes.
func Build(tasks []models.Task, now time.Time, workdayMinutes int) *Summary {
	if workdayMinutes <= 0 {
		workdayMinutes = DefaultWorkdayMinutes
	}
	s := &Summary{WorkdayMinutes: workdayMinutes}

	for _, t := range tasks {
		if t.Done {
			s.Done = append(s.Done, t)
			if t.ScheduledFor == models.BucketToday {
				s.TodayDoneMinutes += t.Minutes
			}
			if t.CompletedWithin(completedWindow, now) {
				s.CompletedTodayCount++
			}
			continue
		}
		s.PendingCount++
		switch t.ScheduledFor {
		case models.BucketToday:
			s.Today = append(s.Today, t)
			s.TodayPlannedMinutes += t.Minutes
		case models.BucketWeek:
			s.Week = append(s.Week, t)
			s.WeekMinutes += t.Minutes
		default:
			s.Unscheduled = append(s.Unscheduled, t)
		}
	}

	byOrder := func(list []models.Task) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	}
	byOrder(s.Today)
	byOrder(s.Week)
	byOrder(s.Unscheduled)
	sort.SliceStable(s.Done, func(i, j int) bool {
		di, dj := s.Done[i].DoneAt, s.Done[j].DoneAt
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})

	s.TodayTotalMinutes = s.TodayPlannedMinutes + s.TodayDoneMinutes
	s.Overloaded = s.TodayPlannedMinutes > workdayMinutes
	return s
}

// Streak counts consecutive calendar days ending today (local time of
// now) with at least one completed task, looking back at most 30 days.
// A day with no completions breaks the streak; today itself may still
// be pending, so an empty today does not break it unless yesterday is
// empty too.
func Streak(tasks []models.Task, now time.Time) int {
	days := make(map[string]bool)
	for _, t := range tasks {
		if t.Done && t.DoneAt != nil {
			days[t.DoneAt.Local().Format("2006-01-02")] = true
		}
	}
	streak := 0
	day := now.Local()
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	for i := 0; i < 30; i++ {
		if !days[day.Format("2006-01-02")] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
