package plan

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sladewinter/Momentum/internal/history"
)

// Update discriminants as they appear in coach responses.
const (
	TypeUpdateWorkout = "UPDATE_WORKOUT"
	TypeUpdateMeal    = "UPDATE_MEAL"
)

// Default adjustment reasons recorded when the caller supplies no reason
// text, one per update kind.
const (
	DefaultWorkoutReason = "User requested modification"
	DefaultMealReason    = "Ingredient swap"
)

// Update is a closed tagged variant: exactly WorkoutUpdate and MealUpdate
// implement it. Produced by the response parser, consumed here.
type Update interface {
	isUpdate()
}

// WorkoutUpdate carries a partial overwrite of the workout section. Zero
// values mean "leave unchanged".
type WorkoutUpdate struct {
	Title           string     `json:"title,omitempty"`
	Duration        int        `json:"duration,omitempty"`
	Personalization string     `json:"personalization,omitempty"`
	Exercises       []Exercise `json:"exercises,omitempty"`
}

func (WorkoutUpdate) isUpdate() {}

// MealUpdate replaces one meal slot wholesale.
type MealUpdate struct {
	Slot string `json:"slot"`
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

func (MealUpdate) isUpdate() {}

// ApplyUpdates merges a batch of updates onto a copy of existing, in arrival
// order with last-write-wins on overlapping fields, and records one
// adjustment entry per applied update. Fields not named by an update keep
// their prior values.
//
// Returns the merged plan and the count of updates that took effect. A nil
// existing plan makes the whole batch a defined no-op (nil, 0). An update
// naming an unrecognized meal slot is skipped without error.
func ApplyUpdates(existing *DayPlan, updates []Update, reason string, date string, hist *history.Store) (*DayPlan, int) {
	if existing == nil || len(updates) == 0 {
		return nil, 0
	}
	reason = strings.TrimSpace(reason)

	merged := existing.Clone()
	applied := 0

	for _, u := range updates {
		switch upd := u.(type) {
		case WorkoutUpdate:
			if merged.Workout == nil {
				merged.Workout = &Workout{}
			}
			if upd.Title != "" {
				merged.Workout.Title = upd.Title
			}
			if upd.Duration != 0 {
				merged.Workout.Duration = upd.Duration
			}
			if upd.Personalization != "" {
				merged.Workout.Personalization = upd.Personalization
			}
			if upd.Exercises != nil {
				merged.Workout.Exercises = upd.Exercises
			}
			applied++
			if hist != nil {
				hist.AddAdjustment(history.AdjustmentEntry{Date: date, Kind: history.KindWorkout, Reason: orDefault(reason, DefaultWorkoutReason)})
			}

		case MealUpdate:
			slot := mealSlot(merged.Meals, upd.Slot)
			if slot == nil {
				// Unknown slot or empty meal set: the slot set is fixed at
				// four, so this is a silent no-op.
				log.Debug().Str("slot", upd.Slot).Msg("meal update targets unknown slot, skipping")
				continue
			}
			*slot = &Meal{Name: upd.Name, Desc: upd.Desc}
			applied++
			if hist != nil {
				hist.AddAdjustment(history.AdjustmentEntry{Date: date, Kind: history.KindMeal, Reason: orDefault(reason, DefaultMealReason)})
			}
		}
	}

	return merged, applied
}

func orDefault(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

// mealSlot resolves a slot name case-insensitively against the fixed slot
// set. A missing name defaults to snacks (the ingredient-swap case). Returns
// nil when the plan has no meals or the slot is not one of the four, or the
// slot itself is unset on this plan.
func mealSlot(m *Meals, name string) **Meal {
	if m == nil {
		return nil
	}
	var slot **Meal
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "breakfast":
		slot = &m.Breakfast
	case "lunch":
		slot = &m.Lunch
	case "dinner":
		slot = &m.Dinner
	case "snacks", "":
		slot = &m.Snacks
	default:
		return nil
	}
	if *slot == nil {
		return nil
	}
	return slot
}
