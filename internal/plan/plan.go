/*
Package plan defines the daily plan data model and the merge engine that
applies coach-driven partial updates onto an existing plan.
*/
package plan

import "fmt"

// Exercise is one item of a workout, with an external guide link.
type Exercise struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
	Link   string `json:"link,omitempty"`
}

// Workout is the training half of a day plan.
type Workout struct {
	Title           string     `json:"title"`
	Personalization string     `json:"personalization,omitempty"`
	Duration        int        `json:"duration"` // minutes
	Exercises       []Exercise `json:"exercises"`
}

// Meal is a single meal suggestion.
type Meal struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
	Link string `json:"link,omitempty"`
}

// Meals holds the four fixed slots of a day. A nil slot means the plan has no
// suggestion for it. The slot set never grows beyond these four.
type Meals struct {
	Breakfast *Meal `json:"breakfast,omitempty"`
	Lunch     *Meal `json:"lunch,omitempty"`
	Dinner    *Meal `json:"dinner,omitempty"`
	Snacks    *Meal `json:"snacks,omitempty"`
}

// Recovery is the optional rest suggestion attached to a plan.
type Recovery struct {
	Icon       string `json:"icon,omitempty"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason,omitempty"`
	Link       string `json:"link,omitempty"`
}

// DayPlan is the full workout+meals+recovery bundle for one date offset.
// Once generated it is only ever modified through ApplyUpdates.
type DayPlan struct {
	Workout  *Workout  `json:"workout,omitempty"`
	Meals    *Meals    `json:"meals,omitempty"`
	Recovery *Recovery `json:"recovery,omitempty"`
}

// Clone returns a deep copy so merges never alias the original plan.
func (p *DayPlan) Clone() *DayPlan {
	if p == nil {
		return nil
	}
	out := &DayPlan{}
	if p.Workout != nil {
		w := *p.Workout
		w.Exercises = append([]Exercise(nil), p.Workout.Exercises...)
		out.Workout = &w
	}
	if p.Meals != nil {
		m := Meals{}
		m.Breakfast = cloneMeal(p.Meals.Breakfast)
		m.Lunch = cloneMeal(p.Meals.Lunch)
		m.Dinner = cloneMeal(p.Meals.Dinner)
		m.Snacks = cloneMeal(p.Meals.Snacks)
		out.Meals = &m
	}
	if p.Recovery != nil {
		r := *p.Recovery
		out.Recovery = &r
	}
	return out
}

func cloneMeal(m *Meal) *Meal {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// fallbackPersonalization doubles as the marker that a plan came from the
// offline fallback rather than the generator.
const fallbackPersonalization = "Customized for your goals"

// Fallback returns the deterministic plan used when generation fails, so a
// date offset is never left without a plan.
func Fallback(duration int) *DayPlan {
	if duration <= 0 {
		duration = 30
	}
	return &DayPlan{
		Workout: &Workout{
			Title:           fmt.Sprintf("%d-Minute Workout", duration),
			Personalization: fallbackPersonalization,
			Duration:        duration,
			Exercises: []Exercise{
				{Name: "Warm-up", Detail: "5 min light cardio"},
				{Name: "Main workout", Detail: "Full body circuit"},
				{Name: "Cool down", Detail: "5 min stretching"},
			},
		},
		Meals: &Meals{
			Breakfast: &Meal{Name: "Protein Oatmeal", Desc: "Oats, banana, protein powder"},
			Lunch:     &Meal{Name: "Grilled Chicken Salad", Desc: "Mixed greens, chicken, olive oil"},
			Dinner:    &Meal{Name: "Salmon with Vegetables", Desc: "Baked salmon, steamed broccoli"},
			Snacks:    &Meal{Name: "Greek Yogurt", Desc: "With berries and honey"},
		},
		Recovery: &Recovery{
			Icon:       "☀️",
			Suggestion: "Start your day with 10 minutes of morning sunlight",
			Reason:     "Helps regulate your circadian rhythm and boost energy",
		},
	}
}

// IsFallback reports whether p is the offline fallback plan.
func (p *DayPlan) IsFallback() bool {
	return p != nil && p.Workout != nil && p.Workout.Personalization == fallbackPersonalization
}
