package coach

import (
	"fmt"
	"strings"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/session"
)

// BuildGenerationRequest composes the full prompt and system instruction for
// generating a new day's plan. It embeds the formatted profile, any injury
// avoidance directives matched against the constraints text, the rolling
// history with an explicit instruction to vary against it, and the exact
// target schema.
func BuildGenerationRequest(profile session.Profile, hist *history.Store, offset int) (prompt, systemInstruction string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a personalized daily fitness plan for this user for %s:\n\n", session.DateLabel(offset))
	b.WriteString(FormatProfile(profile))
	b.WriteString("\n\n")

	if directives := matchInjuryDirectives(profile.Constraints); len(directives) > 0 {
		b.WriteString("INJURY RESTRICTIONS:\n")
		b.WriteString(strings.Join(directives, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("RECENT HISTORY (use this to VARY today's plan - avoid repeating recent workouts/meals):\n")
	b.WriteString(FormatHistory(hist))
	b.WriteString("\n\n")

	if offset != 0 {
		b.WriteString(offsetNote(offset))
		b.WriteString("\n\n")
	}

	duration := profile.Duration
	if duration <= 0 {
		duration = session.DefaultDuration
	}
	fmt.Fprintf(&b, planSchemaTemplate, duration)

	return b.String(), PlanSystemInstruction
}

// matchInjuryDirectives scans the free-text constraints for the configured
// keywords and returns one avoidance line per match. Best-effort shaping of
// the prompt only; it makes no safety guarantee.
func matchInjuryDirectives(constraints string) []string {
	if constraints == "" {
		return nil
	}
	lower := strings.ToLower(constraints)
	var out []string
	for _, d := range InjuryDirectives {
		if strings.Contains(lower, d.Keyword) {
			out = append(out, d.Directive)
		}
	}
	return out
}

func offsetNote(offset int) string {
	if offset > 0 {
		return fmt.Sprintf("Note: This is %d days in the future. Vary appropriately.", offset)
	}
	return fmt.Sprintf("Note: This is %d days ago. Vary appropriately.", -offset)
}
