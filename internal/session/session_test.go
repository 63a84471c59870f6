package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/plan"
)

func testPlan() *plan.DayPlan {
	return &plan.DayPlan{
		Workout: &plan.Workout{
			Title:    "Upper Body Strength",
			Duration: 30,
			Exercises: []plan.Exercise{
				{Name: "Push-ups", Detail: "3 sets of 12"},
				{Name: "Rows", Detail: "3 sets of 10"},
			},
		},
		Meals: &plan.Meals{
			Breakfast: &plan.Meal{Name: "Oatmeal"},
			Lunch:     &plan.Meal{Name: "Chicken Salad"},
			Dinner:    &plan.Meal{Name: "Salmon Bowl"},
			Snacks:    &plan.Meal{Name: "Greek Yogurt"},
		},
	}
}

func TestNewDefaults(t *testing.T) {
	sess := New("alice")

	p := sess.GetProfile()
	assert.Equal(t, DefaultDuration, p.Duration)
	assert.Equal(t, "beginner", p.Experience)
	assert.False(t, p.Onboarded)
	assert.True(t, sess.History.Empty())
	assert.Nil(t, sess.Plan(0))
}

func TestUpdateProfileKeepsState(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())
	sess.MarkWorkoutComplete(0)
	sess.AppendMessage(RoleUser, "hello")

	sess.UpdateProfile(Profile{Goal: "build muscle", Duration: 45, Onboarded: true})

	assert.Equal(t, "build muscle", sess.GetProfile().Goal)
	assert.NotNil(t, sess.Plan(0))
	assert.False(t, sess.History.Empty())
	assert.Len(t, sess.Messages(), 1)
}

func TestSaveSettingsCascade(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())
	sess.SetPlan(1, testPlan())
	sess.MarkWorkoutComplete(0)
	sess.LogMeals(0)
	sess.History.AddAdjustment(history.AdjustmentEntry{
		Date: DateKey(0), Kind: history.KindWorkout, Reason: "make it harder",
	})
	sess.AppendMessage(RoleUser, "make it harder")
	sess.AppendMessage(RoleAssistant, "Done!")

	updated := Profile{Goal: "lose weight", WorkoutType: "cardio", Duration: 20, Onboarded: true}
	sess.SaveSettings(updated)

	assert.Equal(t, updated, sess.GetProfile())
	assert.Nil(t, sess.Plan(0))
	assert.Nil(t, sess.Plan(1))
	assert.True(t, sess.History.Empty())
	assert.Empty(t, sess.History.RecentWorkouts())
	assert.Empty(t, sess.History.RecentMeals())
	assert.Empty(t, sess.History.RecentAdjustments())
	assert.Empty(t, sess.Messages())
}

func TestMarkWorkout(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())

	sess.MarkWorkoutComplete(0)
	sess.MarkWorkoutSkipped(0)

	entries := sess.History.RecentWorkouts()
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Completed)
	assert.True(t, entries[1].Completed)
	assert.Equal(t, "Upper Body Strength", entries[0].Title)
	assert.Equal(t, []string{"Push-ups", "Rows"}, entries[0].Exercises)
	assert.Equal(t, DateKey(0), entries[0].Date)
}

func TestMarkWorkoutNoPlan(t *testing.T) {
	sess := New("alice")

	sess.MarkWorkoutComplete(3)
	sess.MarkWorkoutSkipped(3)

	assert.True(t, sess.History.Empty())
}

func TestLogMeals(t *testing.T) {
	sess := New("alice")
	p := testPlan()
	p.Meals.Snacks = nil
	sess.SetPlan(0, p)

	sess.LogMeals(0)

	entries := sess.History.RecentMeals()
	require.Len(t, entries, 1)
	assert.Equal(t, "Oatmeal", entries[0].Breakfast)
	assert.Equal(t, "Chicken Salad", entries[0].Lunch)
	assert.Equal(t, "Salmon Bowl", entries[0].Dinner)
	assert.Empty(t, entries[0].Snacks)
}

func TestApplyPlanUpdates(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())

	merged, applied := sess.ApplyPlanUpdates(0, []plan.Update{
		plan.MealUpdate{Slot: "lunch", Name: "Lentil Soup"},
	}, "something lighter")

	assert.Equal(t, 1, applied)
	require.NotNil(t, merged)
	assert.Equal(t, "Lentil Soup", sess.Plan(0).Meals.Lunch.Name)
	// Other offsets are untouched.
	assert.Nil(t, sess.Plan(1))

	adjustments := sess.History.RecentAdjustments()
	require.Len(t, adjustments, 1)
	assert.Equal(t, history.KindMeal, adjustments[0].Kind)
	assert.Equal(t, "something lighter", adjustments[0].Reason)
}

func TestApplyPlanUpdatesNoPlan(t *testing.T) {
	sess := New("alice")

	merged, applied := sess.ApplyPlanUpdates(0, []plan.Update{
		plan.WorkoutUpdate{Title: "anything"},
	}, "reason")

	assert.Nil(t, merged)
	assert.Equal(t, 0, applied)
	assert.Nil(t, sess.Plan(0))
	assert.True(t, sess.History.Empty())
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())
	sess.MarkWorkoutComplete(0)

	snap := sess.HistorySnapshot()
	require.Len(t, snap.RecentWorkouts(), 1)

	sess.SaveSettings(Profile{Goal: "fresh start", Duration: 30, Onboarded: true})

	// The snapshot is unaffected by later mutation of the live store.
	assert.Len(t, snap.RecentWorkouts(), 1)
	assert.True(t, sess.History.Empty())
}

func TestRecentMessagesWindow(t *testing.T) {
	sess := New("alice")
	for i := 0; i < 12; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		sess.AppendMessage(role, "msg")
	}

	recent := sess.RecentMessages(10)
	require.Len(t, recent, 10)
	all := sess.Messages()
	assert.Equal(t, all[2].ID, recent[0].ID)
	assert.Equal(t, all[11].ID, recent[9].ID)

	assert.Nil(t, sess.RecentMessages(0))
	assert.Len(t, sess.RecentMessages(100), 12)
}

func TestAppendMessageAssignsIDs(t *testing.T) {
	sess := New("alice")
	a := sess.AppendMessage(RoleUser, "one")
	b := sess.AppendMessage(RoleAssistant, "two")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestClearCoachKeepsPlans(t *testing.T) {
	sess := New("alice")
	sess.SetPlan(0, testPlan())
	sess.MarkWorkoutComplete(0)
	sess.AppendMessage(RoleUser, "hi")

	sess.ClearCoach()

	assert.Empty(t, sess.Messages())
	assert.NotNil(t, sess.Plan(0))
	assert.False(t, sess.History.Empty())
}

func TestTurnGate(t *testing.T) {
	sess := New("alice")

	require.True(t, sess.TryBeginTurn())
	assert.False(t, sess.TryBeginTurn())

	sess.EndTurn()
	assert.True(t, sess.TryBeginTurn())
}
