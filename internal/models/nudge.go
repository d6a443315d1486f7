package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// NudgeActionType identifies the store mutation a nudge can trigger.
type NudgeActionType string

const (
	// NudgeActionUnload moves the least urgent today-task to the week bucket.
	NudgeActionUnload NudgeActionType = "unload"
	// NudgeActionSuggest promotes the highest-priority pending tasks to today.
	NudgeActionSuggest NudgeActionType = "suggest"
	// NudgeActionSplit flags a large task for subtask entry.
	NudgeActionSplit NudgeActionType = "split"
)

// NudgeAction carries the parameters needed to apply a nudge.
type NudgeAction struct {
	Type   NudgeActionType `json:"type"`
	TaskID uuid.UUID       `json:"task_id,omitempty"`
}

// Nudge is a transient, dismissible suggestion derived from aggregate
// task state. Nudges are never persisted; dismissal is session scoped.
type Nudge struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"`
	Icon   string       `json:"icon"`
	Color  string       `json:"color"`
	Action *NudgeAction `json:"action,omitempty"`
	AI     bool         `json:"ai,omitempty"`
}

// FormatMinutes renders a duration in minutes the way the UI shows it:
// "45 min", "2h 30m", "3h", or workdays ("1.5d") from 8 hours up.
func FormatMinutes(min int) string {
	if min <= 0 {
		return ""
	}
	if min < 60 {
		return fmt.Sprintf("%d min", min)
	}
	if min >= 480 {
		d := strconv.FormatFloat(math.Round(float64(min)/480*10)/10, 'f', -1, 64)
		return d + "d"
	}
	h, m := min/60, min%60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}
