package ai

import (
	"context"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/models"
)

// Provider is the interface for remote estimate/suggestion backends.
type Provider interface {
	// EstimateTask asks the model for a priority/schedule/duration guess
	// for freeform task text. A nil estimate with nil error means the
	// model had nothing usable to say.
	EstimateTask(ctx context.Context, text string) (*models.Estimate, error)

	// SuggestNudges asks the model for 1-3 short suggestions for the
	// current day state. An empty slice means none are available.
	SuggestNudges(ctx context.Context, req SuggestRequest) ([]models.Nudge, error)
}

// TaskSummary is the trimmed task shape sent to the suggestion model.
type TaskSummary struct {
	Text     string          `json:"text"`
	Priority models.Priority `json:"priority,omitempty"`
	Minutes  int             `json:"minutes,omitempty"`
}

// SuggestRequest carries the aggregates the suggestion model reasons
// about. Task lists are capped so the prompt stays small.
type SuggestRequest struct {
	TodayTasks       []TaskSummary `json:"today_tasks"`
	WeekTasks        []TaskSummary `json:"week_tasks"`
	DoneTodayCount   int           `json:"done_today_count"`
	TodayMinutes     int           `json:"today_minutes"`
	WorkdayMinutes   int           `json:"workday_minutes"`
	UnscheduledCount int           `json:"unscheduled_count"`
	Hour             int           `json:"hour"`
}

const (
	maxTodayTasksInPrompt = 8
	maxWeekTasksInPrompt  = 5
)

// NewSuggestRequest builds the model payload from a bucket summary.
func NewSuggestRequest(s *buckets.Summary, hour int) SuggestRequest {
	req := SuggestRequest{
		DoneTodayCount:   s.CompletedTodayCount,
		TodayMinutes:     s.TodayPlannedMinutes,
		WorkdayMinutes:   s.WorkdayMinutes,
		UnscheduledCount: len(s.Unscheduled),
		Hour:             hour,
	}
	for i, t := range s.Today {
		if i == maxTodayTasksInPrompt {
			break
		}
		req.TodayTasks = append(req.TodayTasks, TaskSummary{Text: t.Text, Priority: t.Priority, Minutes: t.Minutes})
	}
	for i, t := range s.Week {
		if i == maxWeekTasksInPrompt {
			break
		}
		req.WeekTasks = append(req.WeekTasks, TaskSummary{Text: t.Text, Priority: t.Priority})
	}
	return req
}
