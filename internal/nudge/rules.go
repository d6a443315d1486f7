package nudge

import (
	"fmt"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/models"
)

// splitThresholdMinutes is the duration from which a task without
// subtasks earns a split suggestion.
const splitThresholdMinutes = 120

// Rules evaluates the rule-based nudges against a bucket summary, in
// fixed priority order. The result is unfiltered; the Engine applies
// dismissals on top.
func Rules(s *buckets.Summary) []models.Nudge {
	var all []models.Nudge

	if s.Overloaded {
		all = append(all, models.Nudge{
			ID: "overload",
			Text: fmt.Sprintf("Tenés %s para hoy (%s de más). ¿Movemos la menos urgente?",
				models.FormatMinutes(s.TodayPlannedMinutes),
				models.FormatMinutes(s.TodayPlannedMinutes-s.WorkdayMinutes)),
			Icon:   "⚠️",
			Color:  "#E07A5F",
			Action: &models.NudgeAction{Type: models.NudgeActionUnload},
		})
	}

	for _, t := range s.Today {
		if t.Minutes >= splitThresholdMinutes && len(t.Subtasks) == 0 {
			all = append(all, models.Nudge{
				ID: "split-" + t.ID.String(),
				Text: fmt.Sprintf("%q son %s. Dividirla en pasos la hace más manejable.",
					t.Text, models.FormatMinutes(t.Minutes)),
				Icon:   "🧩",
				Color:  "#BB6BD9",
				Action: &models.NudgeAction{Type: models.NudgeActionSplit, TaskID: t.ID},
			})
			break
		}
	}

	if len(s.Today) == 0 && s.PendingCount > 0 {
		all = append(all, models.Nudge{
			ID:     "suggest",
			Text:   "No tenés tareas para hoy. ¿Querés que mueva las más prioritarias?",
			Icon:   "📋",
			Color:  "#56CCF2",
			Action: &models.NudgeAction{Type: models.NudgeActionSuggest},
		})
	}

	switch {
	case s.CompletedTodayCount >= 5:
		all = append(all, models.Nudge{
			ID:    "done5",
			Text:  "¡5 tareas completadas hoy! Sos una máquina.",
			Icon:  "🏆",
			Color: "#81B29A",
		})
	case s.CompletedTodayCount >= 3:
		all = append(all, models.Nudge{
			ID:    "done3",
			Text:  fmt.Sprintf("¡%d completadas! Muy buen ritmo por hoy.", s.CompletedTodayCount),
			Icon:  "🎖️",
			Color: "#81B29A",
		})
	}

	if len(s.Week) > 5 && !s.Overloaded {
		all = append(all, models.Nudge{
			ID:    "weekload",
			Text:  fmt.Sprintf("Tenés %d tareas en la semana. Buen momento para revisar prioridades.", len(s.Week)),
			Icon:  "📅",
			Color: "#E6AA68",
		})
	}

	if len(s.Unscheduled) >= 3 {
		all = append(all, models.Nudge{
			ID:     "unscheduled",
			Text:   fmt.Sprintf("%d tareas sin fecha. Agendarlas te ayuda a no olvidarlas.", len(s.Unscheduled)),
			Icon:   "📥",
			Color:  "#9B6DB5",
			Action: &models.NudgeAction{Type: models.NudgeActionSuggest},
		})
	}

	if s.TodayPlannedMinutes > 0 && !s.Overloaded && s.CompletedTodayCount < 3 && len(s.Today) > 0 {
		all = append(all, models.Nudge{
			ID: "balanced",
			Text: fmt.Sprintf("Tenés %s planeadas para hoy. Día bien equilibrado.",
				models.FormatMinutes(s.TodayPlannedMinutes)),
			Icon:  "✅",
			Color: "#81B29A",
		})
	}

	return all
}
