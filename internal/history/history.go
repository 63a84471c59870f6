/*
Package history maintains the rolling per-user activity logs that feed the
coaching prompts. Three logs are kept (workouts, meals, adjustments), each a
fixed-capacity sliding window over the most recent entries.
*/
package history

// WindowSize is the capacity of each rolling log. Appending beyond it evicts
// the oldest entry first.
const WindowSize = 7

// Kind labels which part of a plan an adjustment touched.
type Kind string

const (
	KindWorkout Kind = "workout"
	KindMeal    Kind = "meal"
)

// WorkoutEntry records one dated workout outcome. Entries are never mutated
// after insertion.
type WorkoutEntry struct {
	Date      string   `json:"date"` // YYYY-MM-DD
	Title     string   `json:"title"`
	Exercises []string `json:"exercises"`
	Completed bool     `json:"completed"`
}

// MealEntry records the meal names logged for one date. Empty strings mark
// slots that had no meal.
type MealEntry struct {
	Date      string `json:"date"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Snacks    string `json:"snacks"`
}

// AdjustmentEntry records why a plan was modified through the coach.
type AdjustmentEntry struct {
	Date   string `json:"date"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

// Store holds the three rolling logs for a single user. Fields are exported
// for snapshot serialization; mutate only through the Add methods so the
// window invariant holds.
type Store struct {
	Workouts    []WorkoutEntry    `json:"workouts"`
	Meals       []MealEntry       `json:"meals"`
	Adjustments []AdjustmentEntry `json:"adjustments"`
}

func NewStore() *Store {
	return &Store{}
}

// AddWorkout appends at the tail and truncates to the window size.
func (s *Store) AddWorkout(e WorkoutEntry) {
	s.Workouts = prune(append(s.Workouts, e))
}

func (s *Store) AddMeal(e MealEntry) {
	s.Meals = prune(append(s.Meals, e))
}

func (s *Store) AddAdjustment(e AdjustmentEntry) {
	s.Adjustments = prune(append(s.Adjustments, e))
}

// RecentWorkouts returns the retained entries most-recent-first, as a copy.
func (s *Store) RecentWorkouts() []WorkoutEntry {
	out := make([]WorkoutEntry, 0, len(s.Workouts))
	for i := len(s.Workouts) - 1; i >= 0; i-- {
		out = append(out, s.Workouts[i])
	}
	return out
}

func (s *Store) RecentMeals() []MealEntry {
	out := make([]MealEntry, 0, len(s.Meals))
	for i := len(s.Meals) - 1; i >= 0; i-- {
		out = append(out, s.Meals[i])
	}
	return out
}

func (s *Store) RecentAdjustments() []AdjustmentEntry {
	out := make([]AdjustmentEntry, 0, len(s.Adjustments))
	for i := len(s.Adjustments) - 1; i >= 0; i-- {
		out = append(out, s.Adjustments[i])
	}
	return out
}

// Snapshot returns a copy of all three logs. The store itself carries no
// locking; callers synchronize around it.
func (s *Store) Snapshot() *Store {
	return &Store{
		Workouts:    append([]WorkoutEntry(nil), s.Workouts...),
		Meals:       append([]MealEntry(nil), s.Meals...),
		Adjustments: append([]AdjustmentEntry(nil), s.Adjustments...),
	}
}

// Empty reports whether all three logs have no entries.
func (s *Store) Empty() bool {
	return len(s.Workouts) == 0 && len(s.Meals) == 0 && len(s.Adjustments) == 0
}

// Clear drops every log. Used by the settings-save cascade.
func (s *Store) Clear() {
	s.Workouts = nil
	s.Meals = nil
	s.Adjustments = nil
}

// prune keeps the most recent WindowSize entries, dropping the oldest first.
func prune[T any](entries []T) []T {
	if len(entries) <= WindowSize {
		return entries
	}
	return entries[len(entries)-WindowSize:]
}
