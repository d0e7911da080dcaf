package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 24)
	assert.True(t, IsValidID(id))
	assert.NotEqual(t, id, NewID())
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("65a1f0c2e4b0a1b2c3d4e5f6"))
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("not-an-id"))
	assert.False(t, IsValidID("65a1f0c2e4b0a1b2c3d4e5f"))
	assert.False(t, IsValidID("zza1f0c2e4b0a1b2c3d4e5f6"))
}

func TestUser_Normalize(t *testing.T) {
	u := &User{Username: "alice"}
	u.Normalize()
	assert.NotNil(t, u.Thoughts)
	assert.NotNil(t, u.Friends)
	assert.Equal(t, 0, u.FriendCount())
}

func TestUser_BeforeCreate(t *testing.T) {
	u := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, u.BeforeCreate(nil))
	assert.True(t, IsValidID(u.ID))
	assert.Equal(t, []string{}, u.Friends)

	existing := &User{ID: "65a1f0c2e4b0a1b2c3d4e5f6"}
	require.NoError(t, existing.BeforeCreate(nil))
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", existing.ID)
}

func TestUser_Relationships(t *testing.T) {
	u := &User{Friends: []string{"a", "b"}, Thoughts: []string{"t1"}}
	assert.Equal(t, 2, u.FriendCount())
	assert.True(t, u.HasFriend("b"))
	assert.False(t, u.HasFriend("c"))
	assert.True(t, u.HasThought("t1"))
	assert.False(t, u.HasThought("t2"))
}

func TestThought_Reactions(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := &Thought{}
	require.NoError(t, th.BeforeCreate(nil))
	assert.Equal(t, 0, th.ReactionCount())

	r1 := NewReaction("nice", "bob", at)
	r2 := NewReaction("agreed", "carol", at)
	th.Reactions = append(th.Reactions, r1, r2)
	assert.Equal(t, 2, th.ReactionCount())
	assert.NotEqual(t, r1.ReactionID, r2.ReactionID)
	assert.Equal(t, at, r1.CreatedAt)

	kept := th.WithoutReaction(r1.ReactionID)
	require.Len(t, kept, 1)
	assert.Equal(t, r2.ReactionID, kept[0].ReactionID)

	assert.Len(t, th.WithoutReaction("missing"), 2)
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.Equal(t, "Internal server error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("load user: %w", NewNotFoundError("User", "abc"))
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeValidation))
	assert.False(t, IsCode(cause, CodeInternal))

	assert.Equal(t, "User with ID abc not found", NewNotFoundError("User", "abc").Error())
	assert.Equal(t, CodeConflict, NewConflictError("dup").Code)
	assert.Equal(t, CodeValidation, NewValidationError("bad").Code)
	assert.Equal(t, "No thought with that ID", NewNotFoundMessage("No thought with that ID").Message)
}
