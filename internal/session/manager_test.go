package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshots struct {
	data map[string][]byte
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: make(map[string][]byte)}
}

func (m *memSnapshots) Load(_ context.Context, username string) ([]byte, bool, error) {
	b, ok := m.data[username]
	return b, ok, nil
}

func (m *memSnapshots) Save(_ context.Context, username string, state []byte) error {
	m.data[username] = state
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, username string) error {
	delete(m.data, username)
	return nil
}

func TestManagerMemoryOnly(t *testing.T) {
	mgr, err := NewManager(nil)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	sess.SetPlan(0, testPlan())

	again, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, sess, again)

	require.NoError(t, mgr.Persist(ctx, sess))
	require.NoError(t, mgr.Delete(ctx, "alice"))

	fresh, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, sess, fresh)
	assert.Nil(t, fresh.Plan(0))
}

func TestManagerRoundTrip(t *testing.T) {
	store := newMemSnapshots()
	mgr, err := NewManager(store)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	sess.UpdateProfile(Profile{Goal: "build muscle", Duration: 45, Onboarded: true})
	sess.SetPlan(0, testPlan())
	sess.MarkWorkoutComplete(0)
	sess.AppendMessage(RoleUser, "hello")
	require.NoError(t, mgr.Persist(ctx, sess))

	// Force a reload from the snapshot.
	reloaded, err := NewManager(store)
	require.NoError(t, err)
	got, err := reloaded.Get(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, "build muscle", got.GetProfile().Goal)
	require.NotNil(t, got.Plan(0))
	assert.Equal(t, "Upper Body Strength", got.Plan(0).Workout.Title)
	require.Len(t, got.History.RecentWorkouts(), 1)
	assert.Len(t, got.Messages(), 1)
}

func TestManagerCorruptSnapshot(t *testing.T) {
	store := newMemSnapshots()
	store.data["alice"] = []byte("{not json")
	mgr, err := NewManager(store)
	require.NoError(t, err)

	sess, err := mgr.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	assert.True(t, sess.History.Empty())
	assert.NotNil(t, sess.Plans)
}

func TestManagerDeleteRemovesSnapshot(t *testing.T) {
	store := newMemSnapshots()
	mgr, err := NewManager(store)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := mgr.Get(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, mgr.Persist(ctx, sess))
	require.Contains(t, store.data, "alice")

	require.NoError(t, mgr.Delete(ctx, "alice"))
	assert.NotContains(t, store.data, "alice")
}
