package coach

import (
	"fmt"
	"strings"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/plan"
	"github.com/sladewinter/Momentum/internal/session"
)

// Sentinels keep the prompt sections explicit even when there is nothing to
// say; a silent omission would change what the model sees.
const (
	noHistorySentinel = "No history yet (new user)"
	noPlanSentinel    = "No plan generated yet"
)

// FormatProfile renders the present profile fields one labelled line each.
// Absent fields are omitted entirely, no placeholders.
func FormatProfile(p session.Profile) string {
	var parts []string
	if p.Goal != "" {
		parts = append(parts, fmt.Sprintf("Goal: %s", p.Goal))
	}
	if p.WorkoutType != "" {
		parts = append(parts, fmt.Sprintf("Workout style: %s", p.WorkoutType))
	}
	if p.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Available time: %d minutes", p.Duration))
	}
	if p.Constraints != "" {
		parts = append(parts, fmt.Sprintf("Limitations/Injuries: %s", p.Constraints))
	}
	if p.Experience != "" {
		parts = append(parts, fmt.Sprintf("Experience level: %s", p.Experience))
	}
	return strings.Join(parts, "\n")
}

// FormatHistory renders the three rolling logs most-recent-first in a fixed
// order: workouts, meals, adjustments. Empty logs drop their section; if all
// three are empty the sentinel is returned so the prompt never omits the
// history block silently.
func FormatHistory(h *history.Store) string {
	if h == nil || h.Empty() {
		return noHistorySentinel
	}

	var parts []string

	if workouts := h.RecentWorkouts(); len(workouts) > 0 {
		parts = append(parts, "WORKOUTS (Last 7 days):")
		for _, w := range workouts {
			status := "[SKIPPED]"
			if w.Completed {
				status = "[COMPLETED]"
			}
			parts = append(parts, fmt.Sprintf("- %s: %q %s", w.Date, w.Title, status))
		}
	}

	if meals := h.RecentMeals(); len(meals) > 0 {
		parts = append(parts, "\nMEALS (Last 7 days):")
		for _, m := range meals {
			var names []string
			for _, name := range []string{m.Breakfast, m.Lunch, m.Dinner} {
				if name != "" {
					names = append(names, name)
				}
			}
			if len(names) > 0 {
				parts = append(parts, fmt.Sprintf("- %s: %s", m.Date, strings.Join(names, ", ")))
			}
		}
	}

	if adjustments := h.RecentAdjustments(); len(adjustments) > 0 {
		parts = append(parts, "\nUSER REQUESTS THIS WEEK:")
		for _, a := range adjustments {
			parts = append(parts, fmt.Sprintf("- %s: %s adjusted - %q", a.Date, a.Kind, a.Reason))
		}
	}

	return strings.Join(parts, "\n")
}

// FormatCurrentPlan summarizes the plan for chat context. Snacks are left out
// of the meal list on purpose: the full plan carries four slots but this
// summary has always shown three, and changing it would change the prompts
// the model sees.
func FormatCurrentPlan(p *plan.DayPlan) string {
	if p == nil {
		return noPlanSentinel
	}

	var parts []string
	if p.Workout != nil {
		parts = append(parts, fmt.Sprintf("Current Workout: %s (%d mins)", p.Workout.Title, p.Workout.Duration))
		parts = append(parts, "Workout Status: Pending")
		if p.Workout.Personalization != "" {
			parts = append(parts, fmt.Sprintf("Personalization: %s", p.Workout.Personalization))
		}
	}
	if p.Meals != nil {
		var names []string
		if p.Meals.Breakfast != nil {
			names = append(names, fmt.Sprintf("Breakfast: %s", p.Meals.Breakfast.Name))
		}
		if p.Meals.Lunch != nil {
			names = append(names, fmt.Sprintf("Lunch: %s", p.Meals.Lunch.Name))
		}
		if p.Meals.Dinner != nil {
			names = append(names, fmt.Sprintf("Dinner: %s", p.Meals.Dinner.Name))
		}
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf("Today's Meals: %s", strings.Join(names, ", ")))
		}
	}
	return strings.Join(parts, "\n")
}
