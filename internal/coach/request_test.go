package coach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/session"
)

func TestBuildGenerationRequest_InjuryDirectives(t *testing.T) {
	profile := session.Profile{Goal: "Get fit", Duration: 30, Constraints: "Knee pain and a sore shoulder"}

	prompt, systemInstruction := BuildGenerationRequest(profile, history.NewStore(), 0)

	assert.Equal(t, PlanSystemInstruction, systemInstruction)
	assert.Contains(t, prompt, "INJURY RESTRICTIONS:")
	assert.Contains(t, prompt, "AVOID: lunges, squats, jumping, high-impact leg exercises")
	assert.Contains(t, prompt, "AVOID: overhead presses, pull-ups, dips")
	assert.NotContains(t, prompt, "AVOID: heavy deadlifts")
}

func TestBuildGenerationRequest_NoConstraintsNoRestrictionBlock(t *testing.T) {
	prompt, _ := BuildGenerationRequest(session.Profile{Duration: 30}, history.NewStore(), 0)
	assert.NotContains(t, prompt, "INJURY RESTRICTIONS")
}

func TestBuildGenerationRequest_EmbedsHistoryAndSchema(t *testing.T) {
	h := history.NewStore()
	h.AddWorkout(history.WorkoutEntry{Date: "2026-08-30", Title: "Leg Day", Completed: true})

	prompt, _ := BuildGenerationRequest(session.Profile{Duration: 45}, h, 0)

	assert.Contains(t, prompt, "RECENT HISTORY (use this to VARY today's plan")
	assert.Contains(t, prompt, `"Leg Day" [COMPLETED]`)
	assert.Contains(t, prompt, `"duration": 45`)
	assert.Contains(t, prompt, "4-6 exercises total")
	assert.Contains(t, prompt, `MUST include a "link" field`)
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestBuildGenerationRequest_EmptyHistorySentinelPresent(t *testing.T) {
	prompt, _ := BuildGenerationRequest(session.Profile{Duration: 30}, history.NewStore(), 0)
	// The history section must never be silently omitted.
	assert.Contains(t, prompt, "No history yet (new user)")
}

func TestBuildGenerationRequest_OffsetNotes(t *testing.T) {
	prompt, _ := BuildGenerationRequest(session.Profile{Duration: 30}, history.NewStore(), 2)
	assert.Contains(t, prompt, "2 days in the future")

	prompt, _ = BuildGenerationRequest(session.Profile{Duration: 30}, history.NewStore(), -3)
	assert.Contains(t, prompt, "3 days ago")

	prompt, _ = BuildGenerationRequest(session.Profile{Duration: 30}, history.NewStore(), 0)
	assert.NotContains(t, prompt, "Vary appropriately")
}

func TestBuildGenerationRequest_DefaultDuration(t *testing.T) {
	prompt, _ := BuildGenerationRequest(session.Profile{}, history.NewStore(), 0)
	assert.Contains(t, prompt, `"duration": 30`)
}

func TestMatchInjuryDirectives_CaseInsensitive(t *testing.T) {
	directives := matchInjuryDirectives("BAD BACK from sitting")
	assert.Len(t, directives, 1)
	assert.True(t, strings.Contains(directives[0], "deadlifts"))

	assert.Empty(t, matchInjuryDirectives(""))
	assert.Empty(t, matchInjuryDirectives("vegetarian"))
}
