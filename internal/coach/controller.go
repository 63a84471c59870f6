package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/plan"
	"github.com/sladewinter/Momentum/internal/session"
)

// Oracle is the external generative backend: one prompt plus an optional
// system instruction in, free text out. Implemented by the gemini client;
// tests substitute fakes.
type Oracle interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// TurnState is the terminal state of one coaching turn.
type TurnState string

const (
	// StateApplied: the response carried structured updates and a merge ran.
	StateApplied TurnState = "applied"
	// StateDisplayOnly: a plain conversational reply, nothing to merge.
	StateDisplayOnly TurnState = "display_only"
	// StateFailed: the oracle call failed; the fallback reply was logged.
	StateFailed TurnState = "failed"
)

// ErrTurnInProgress is returned when a send arrives while the session is
// still awaiting the oracle for a previous turn.
var ErrTurnInProgress = errors.New("a coaching turn is already in progress")

// chatContextWindow is how many trailing conversation messages feed the
// prompt for one turn.
const chatContextWindow = 10

// TurnResult reports what one coaching turn did.
type TurnResult struct {
	State   TurnState `json:"state"`
	Reply   string    `json:"reply"`
	Applied int       `json:"applied_updates"`
}

// Controller orchestrates coaching turns and plan generation against a
// session. It holds no per-user state itself; everything lives on the
// session passed in.
type Controller struct {
	oracle Oracle
}

func NewController(oracle Oracle) *Controller {
	return &Controller{oracle: oracle}
}

// Chat runs one conversational turn against the plan at the given date
// offset: append the user message, invoke the oracle with full context,
// extract structured updates, merge them, and append the assistant reply.
//
// A failed turn leaves plans and history untouched; only the message log
// gains the user's message and the fixed fallback reply. While a turn is
// awaiting the oracle, further sends for the same session are rejected with
// ErrTurnInProgress.
func (c *Controller) Chat(ctx context.Context, sess *session.Session, offset int, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, fmt.Errorf("empty message")
	}
	if !sess.TryBeginTurn() {
		return TurnResult{}, ErrTurnInProgress
	}
	defer sess.EndTurn()

	// Context is captured before the new message is appended so the prompt's
	// "previous conversation" really is previous.
	recent := sess.RecentMessages(chatContextWindow)
	currentPlan := sess.Plan(offset)
	profile := sess.GetProfile()
	hist := sess.HistorySnapshot()

	sess.AppendMessage(session.RoleUser, message)

	prompt := buildChatPrompt(recent, message)
	systemInstruction := CoachSystemPrompt + "\n\n" + buildChatContext(profile, currentPlan, hist)

	raw, err := c.oracle.Generate(ctx, prompt, systemInstruction)
	if err != nil {
		log.Error().Err(err).Str("user", sess.Username).Msg("Coach turn failed")
		sess.AppendMessage(session.RoleAssistant, FallbackReply)
		return TurnResult{State: StateFailed, Reply: FallbackReply}, nil
	}

	displayText, updates := ParseUpdateBlocks(raw)
	if len(updates) == 0 {
		sess.AppendMessage(session.RoleAssistant, raw)
		return TurnResult{State: StateDisplayOnly, Reply: raw}, nil
	}

	// Merge, adjustment logging, and the write-back to the same offset the
	// plan came from happen under the session lock in one step.
	_, applied := sess.ApplyPlanUpdates(offset, updates, message)

	reply := displayText
	if reply == "" {
		reply = raw
	}
	sess.AppendMessage(session.RoleAssistant, reply)
	return TurnResult{State: StateApplied, Reply: reply, Applied: applied}, nil
}

// buildChatPrompt renders the trailing conversation plus the new message.
func buildChatPrompt(recent []session.Message, message string) string {
	var b strings.Builder
	if len(recent) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, m := range recent {
			speaker := "User"
			if m.Role == session.RoleAssistant {
				speaker = "Coach"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User: %s", message)
	return b.String()
}

// buildChatContext assembles the awareness block appended to the coaching
// system prompt for every turn.
func buildChatContext(profile session.Profile, currentPlan *plan.DayPlan, hist *history.Store) string {
	return fmt.Sprintf(`
CONTEXTUAL AWARENESS:
User Profile:
%s

Current Plan Status:
%s

RECENT HISTORY:
%s
`, FormatProfile(profile), FormatCurrentPlan(currentPlan), FormatHistory(hist))
}

// EnsurePlan returns the plan at offset, generating one on first access.
// Generation failure of any kind degrades to the deterministic fallback plan
// so the offset is never left without a plan.
func (c *Controller) EnsurePlan(ctx context.Context, sess *session.Session, offset int) (*plan.DayPlan, error) {
	if p := sess.Plan(offset); p != nil {
		return p, nil
	}

	p, err := c.generate(ctx, sess, offset)
	if err != nil {
		log.Error().Err(err).Int("offset", offset).Str("user", sess.Username).Msg("Plan generation failed, using fallback")
		p = plan.Fallback(sess.GetProfile().Duration)
	}
	sess.SetPlan(offset, p)
	return p, err
}

// Regenerate forces a fresh generation for offset. Unlike EnsurePlan it does
// not fall back: on failure the stored plan is left untouched and the error
// is returned for the caller to surface.
func (c *Controller) Regenerate(ctx context.Context, sess *session.Session, offset int) (*plan.DayPlan, error) {
	p, err := c.generate(ctx, sess, offset)
	if err != nil {
		return nil, err
	}
	sess.SetPlan(offset, p)
	return p, nil
}

func (c *Controller) generate(ctx context.Context, sess *session.Session, offset int) (*plan.DayPlan, error) {
	prompt, systemInstruction := BuildGenerationRequest(sess.GetProfile(), sess.HistorySnapshot(), offset)
	raw, err := c.oracle.Generate(ctx, prompt, systemInstruction)
	if err != nil {
		return nil, err
	}
	p, err := ParsePlanResponse(raw)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PrefetchPlans generates plans for several offsets concurrently, skipping
// ones that already exist. Individual failures degrade to the fallback plan
// inside EnsurePlan, so the group itself only fails on context cancellation.
func (c *Controller) PrefetchPlans(ctx context.Context, sess *session.Session, offsets []int) error {
	g, grpCtx := errgroup.WithContext(ctx)
	for _, offset := range offsets {
		offset := offset
		g.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			_, _ = c.EnsurePlan(grpCtx, sess, offset)
			return nil
		})
	}
	return g.Wait()
}
