package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotReplacesSetWholesale(t *testing.T) {
	p := NewPresenceTracker()
	p.Add(User{ID: "1", Username: "stale"})
	p.Add(User{ID: "2", Username: "gone"})

	p.SetAll([]User{
		{ID: "3", Username: "bob"},
		{ID: "4", Username: "carol"},
	})

	assert.Equal(t, []User{
		{ID: "3", Username: "bob"},
		{ID: "4", Username: "carol"},
	}, p.Users())
}

func TestJoinLeaveDeltas(t *testing.T) {
	p := NewPresenceTracker()

	assert.True(t, p.Add(User{ID: "1", Username: "bob"}))
	assert.True(t, p.Add(User{ID: "2", Username: "carol"}))
	assert.True(t, p.Remove("1"))
	assert.False(t, p.Remove("1"))

	assert.Equal(t, []User{{ID: "2", Username: "carol"}}, p.Users())
}

func TestAddIsKeyedByID(t *testing.T) {
	p := NewPresenceTracker()
	p.Add(User{ID: "1", Username: "bob"})

	assert.False(t, p.Add(User{ID: "1", Username: "bob"}), "identical re-add changes nothing")
	assert.Equal(t, 1, p.Len())

	// Username collisions across different ids are allowed.
	assert.True(t, p.Add(User{ID: "2", Username: "bob"}))
	assert.Equal(t, 2, p.Len())
}

func TestSnapshotDropsDuplicateIDs(t *testing.T) {
	p := NewPresenceTracker()
	p.SetAll([]User{
		{ID: "1", Username: "bob"},
		{ID: "1", Username: "impostor"},
	})

	assert.Equal(t, []User{{ID: "1", Username: "bob"}}, p.Users())
}
