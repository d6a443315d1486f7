package models

// Estimate is a structured guess about a task's priority, schedule
// bucket and duration, derived from its freeform text. It is produced
// locally by the inference engine and may be superseded wholesale by a
// remote estimate; the two are never merged field by field.
type Estimate struct {
	CleanText      string   `json:"clean_text"`
	Priority       Priority `json:"priority,omitempty"`
	PriorityReason string   `json:"priority_reason,omitempty"`
	ScheduledFor   Bucket   `json:"scheduled_for,omitempty"`
	ScheduleReason string   `json:"schedule_reason,omitempty"`
	Minutes        int      `json:"minutes,omitempty"`
	MinutesReason  string   `json:"minutes_reason,omitempty"`
	AI             bool     `json:"ai,omitempty"`
}

// HasAny reports whether at least one field resolved.
func (e *Estimate) HasAny() bool {
	return e.Priority != PriorityNone || e.ScheduledFor != BucketNone || e.Minutes > 0
}
