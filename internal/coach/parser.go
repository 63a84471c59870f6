package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sladewinter/Momentum/internal/plan"
)

// ErrMalformedPlan is returned when a plan response is unrecoverable after
// the repair pipeline. Callers substitute the fallback plan.
var ErrMalformedPlan = errors.New("malformed plan response")

var (
	fenceOpenRe    = regexp.MustCompile("```json?\n?")
	fencedBlockRe  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	trailingObjRe  = regexp.MustCompile(`,\s*}`)
	trailingArrRe  = regexp.MustCompile(`,\s*]`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
)

// ParsePlanResponse extracts a DayPlan from raw model text. The model is
// asked for bare JSON but routinely wraps it in fences, appends prose, or
// leaves trailing commas, so extraction is a greedy brace-bounded slice
// followed by a fixed repair pipeline, with one retry after a harsher second
// pass. Acceptance is all-or-nothing per plan: a structurally invalid object
// fails with ErrMalformedPlan rather than half-parsing.
func ParsePlanResponse(raw string) (*plan.DayPlan, error) {
	jsonStr := strings.TrimSpace(raw)
	if strings.HasPrefix(jsonStr, "```") {
		jsonStr = fenceOpenRe.ReplaceAllString(jsonStr, "")
		jsonStr = strings.ReplaceAll(jsonStr, "```", "")
	}

	// Greedy slice from the first { to the matching last }. Not a full
	// parser, just the boundary-layer trick that survives surrounding prose.
	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrMalformedPlan)
	}
	jsonStr = jsonStr[start : end+1]

	// First-pass repair: trailing commas, embedded newlines/tabs.
	jsonStr = trailingObjRe.ReplaceAllString(jsonStr, "}")
	jsonStr = trailingArrRe.ReplaceAllString(jsonStr, "]")
	jsonStr = strings.ReplaceAll(jsonStr, "\n", " ")
	jsonStr = strings.ReplaceAll(jsonStr, "\t", " ")

	var p plan.DayPlan
	if err := json.Unmarshal([]byte(jsonStr), &p); err == nil {
		return &p, nil
	}

	// Second pass: strip remaining control characters and collapse runs of
	// whitespace, then retry once.
	jsonStr = controlCharsRe.ReplaceAllString(jsonStr, " ")
	jsonStr = multiSpaceRe.ReplaceAllString(jsonStr, " ")
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return &p, nil
}

// updateEnvelope is the wire form of a structured update block.
type updateEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseUpdateBlocks scans conversational model output for fenced JSON update
// blocks. There may be zero, one, or many; a block that fails to parse is
// logged and dropped without aborting its siblings. The returned display
// text has the fences removed and is trimmed — unless no update was
// accepted, in which case the original text comes back verbatim so a bare
// narration is never mangled.
func ParseUpdateBlocks(raw string) (displayText string, updates []plan.Update) {
	matches := fencedBlockRe.FindAllStringSubmatch(raw, -1)
	for _, m := range matches {
		update, ok := parseUpdateBlock(strings.TrimSpace(m[1]))
		if !ok {
			continue
		}
		updates = append(updates, update)
	}

	if len(updates) == 0 {
		return raw, nil
	}
	return strings.TrimSpace(fencedBlockRe.ReplaceAllString(raw, "")), updates
}

// parseUpdateBlock accepts a block only when it carries a recognized type
// discriminant and a non-empty data payload; anything else is dropped.
func parseUpdateBlock(block string) (plan.Update, bool) {
	var env updateEnvelope
	if err := json.Unmarshal([]byte(block), &env); err != nil {
		log.Warn().Err(err).Msg("Dropping unparseable update block")
		return nil, false
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		log.Warn().Str("type", env.Type).Msg("Dropping update block with empty data payload")
		return nil, false
	}

	switch env.Type {
	case plan.TypeUpdateWorkout:
		var u plan.WorkoutUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			log.Warn().Err(err).Msg("Dropping malformed workout update")
			return nil, false
		}
		return u, true
	case plan.TypeUpdateMeal:
		var u plan.MealUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			log.Warn().Err(err).Msg("Dropping malformed meal update")
			return nil, false
		}
		return u, true
	default:
		log.Warn().Str("type", env.Type).Msg("Dropping update block with unrecognized type")
		return nil, false
	}
}
