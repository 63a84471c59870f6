/*
Package session holds the per-user application state: profile, generated
plans keyed by date offset, rolling history, and the coach conversation.
There is no hidden ambient state; every component receives a *Session
explicitly. Each user's session is independent, so the only locking needed
is serializing that one user's own operations.
*/
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sladewinter/Momentum/internal/history"
	"github.com/sladewinter/Momentum/internal/plan"
)

// DefaultDuration is the workout length assumed before onboarding sets one.
const DefaultDuration = 30

// Profile is the user's onboarding data. It persists across sessions and is
// mutated only through UpdateProfile / SaveSettings.
type Profile struct {
	Goal        string `json:"goal,omitempty"`
	WorkoutType string `json:"workout_type,omitempty"`
	Duration    int    `json:"duration"` // minutes available per day
	Constraints string `json:"constraints,omitempty"`
	Experience  string `json:"experience,omitempty"` // beginner | intermediate
	Onboarded   bool   `json:"onboarded"`
}

// Role of a coach conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the coach conversation. Append-only.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the full mutable state for one user. Exported fields exist for
// snapshot serialization; callers go through the methods.
type Session struct {
	Username string                `json:"username"`
	Profile  Profile               `json:"profile"`
	Plans    map[int]*plan.DayPlan `json:"plans"`
	History  *history.Store        `json:"history"`
	Coach    []Message             `json:"coach"`

	mu         sync.Mutex
	turnActive bool
}

// New returns an empty session for a username.
func New(username string) *Session {
	return &Session{
		Username: username,
		Profile:  Profile{Duration: DefaultDuration, Experience: "beginner"},
		Plans:    make(map[int]*plan.DayPlan),
		History:  history.NewStore(),
	}
}

// normalize repairs nil maps/stores after a snapshot round-trip.
func (s *Session) normalize() {
	if s.Plans == nil {
		s.Plans = make(map[int]*plan.DayPlan)
	}
	if s.History == nil {
		s.History = history.NewStore()
	}
}

// --- Profile ---

// GetProfile returns a copy of the current profile.
func (s *Session) GetProfile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Profile
}

// UpdateProfile replaces the profile without touching plans or history.
// Used by onboarding, where there is nothing to invalidate yet.
func (s *Session) UpdateProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Profile = p
}

// SaveSettings replaces the profile and cascades a full wipe of plans, all
// three history logs, and the coach conversation. History and plans are
// profile-relative; they must not outlive a profile edit.
func (s *Session) SaveSettings(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Profile = p
	s.Plans = make(map[int]*plan.DayPlan)
	s.History.Clear()
	s.Coach = nil
}

// --- Plans ---

// Plan returns the plan stored for a date offset, or nil.
func (s *Session) Plan(offset int) *plan.DayPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Plans[offset]
}

// SetPlan stores a plan for the same date offset it was generated or merged
// for. Plans never move across offsets.
func (s *Session) SetPlan(offset int, p *plan.DayPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Plans[offset] = p
}

// ApplyPlanUpdates merges a batch of updates onto the plan at offset and
// records the adjustment entries, as a single atomic step: no other
// operation on this session can observe a half-applied batch or interleave
// a history wipe mid-merge.
func (s *Session) ApplyPlanUpdates(offset int, updates []plan.Update, reason string) (*plan.DayPlan, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, applied := plan.ApplyUpdates(s.Plans[offset], updates, reason, DateKey(offset), s.History)
	if merged != nil {
		s.Plans[offset] = merged
	}
	return merged, applied
}

// HistorySnapshot returns a copy of the history logs that is safe to read
// without holding the session lock.
func (s *Session) HistorySnapshot() *history.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.History.Snapshot()
}

// MarkWorkoutComplete logs the workout at offset into history as completed.
func (s *Session) MarkWorkoutComplete(offset int) {
	s.logWorkout(offset, true)
}

// MarkWorkoutSkipped logs the workout at offset into history as skipped.
func (s *Session) MarkWorkoutSkipped(offset int) {
	s.logWorkout(offset, false)
}

func (s *Session) logWorkout(offset int, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.Plans[offset]
	if p == nil || p.Workout == nil {
		return
	}
	names := make([]string, 0, len(p.Workout.Exercises))
	for _, e := range p.Workout.Exercises {
		names = append(names, e.Name)
	}
	s.History.AddWorkout(history.WorkoutEntry{
		Date:      DateKey(offset),
		Title:     p.Workout.Title,
		Exercises: names,
		Completed: completed,
	})
}

// LogMeals records the meal names of the plan at offset into history.
func (s *Session) LogMeals(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.Plans[offset]
	if p == nil || p.Meals == nil {
		return
	}
	s.History.AddMeal(history.MealEntry{
		Date:      DateKey(offset),
		Breakfast: mealName(p.Meals.Breakfast),
		Lunch:     mealName(p.Meals.Lunch),
		Dinner:    mealName(p.Meals.Dinner),
		Snacks:    mealName(p.Meals.Snacks),
	})
}

func mealName(m *plan.Meal) string {
	if m == nil {
		return ""
	}
	return m.Name
}

// --- Coach conversation ---

// AppendMessage adds one message to the conversation and returns it.
func (s *Session) AppendMessage(role Role, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.Coach = append(s.Coach, msg)
	return msg
}

// RecentMessages returns up to n of the latest messages, oldest first.
func (s *Session) RecentMessages(n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.Coach) == 0 {
		return nil
	}
	start := len(s.Coach) - n
	if start < 0 {
		start = 0
	}
	return append([]Message(nil), s.Coach[start:]...)
}

// Messages returns a copy of the whole conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.Coach...)
}

// ClearCoach drops the conversation, leaving plans and history intact.
func (s *Session) ClearCoach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Coach = nil
}

// --- Turn serialization ---

// TryBeginTurn claims the single in-flight coaching turn for this session.
// It returns false while another turn is awaiting the oracle, which prevents
// interleaved merges racing on the same day plan.
func (s *Session) TryBeginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnActive {
		return false
	}
	s.turnActive = true
	return true
}

// EndTurn releases the turn claimed by TryBeginTurn.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnActive = false
}

// --- Dates ---

// DateKey returns the YYYY-MM-DD key for a signed day offset from today.
func DateKey(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

// DateLabel returns the human-readable form used in prompts,
// e.g. "Monday, Nov 3".
func DateLabel(offset int) string {
	t := time.Now().AddDate(0, 0, offset)
	return fmt.Sprintf("%s, %s %d", t.Weekday(), t.Month().String()[:3], t.Day())
}
