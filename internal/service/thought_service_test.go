package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"thoughtnet/internal/models"
	"thoughtnet/internal/notifications"
	"thoughtnet/internal/observability"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store unavailable")

// failingUsers overrides AddThought on a real repository.
type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) AddThought(context.Context, string, string) error {
	return models.NewInternalError(errStore)
}

// failingThoughts overrides Delete on a real repository.
type failingThoughts struct {
	repository.ThoughtRepository
}

func (failingThoughts) Delete(context.Context, string) error {
	return models.NewInternalError(errStore)
}

func compensationCount(t *testing.T, op string) float64 {
	t.Helper()
	var m dto.Metric
	var c prometheus.Counter = observability.Compensations.WithLabelValues(op)
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestThoughtService_CreateThought_AppendsToUser(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	th := f.createThought(t, bob, "hi")
	assert.Equal(t, "hi", th.ThoughtText)
	assert.Equal(t, "bob", th.Username)
	assert.Equal(t, bob.ID, th.UserID)
	assert.Equal(t, 0, th.ReactionCount)
	assert.NotNil(t, th.CreatedAt)

	user, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, user.Thoughts)

	evt := f.events.last()
	assert.Equal(t, notifications.EventThoughtCreated, evt.event.Type)
	assert.Equal(t, []string{bob.ID}, evt.targets)
}

func TestThoughtService_CreateThought_Validation(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateThoughtInput
		code string
	}{
		{"empty text", CreateThoughtInput{ThoughtText: "", Username: "bob", UserID: bob.ID}, models.CodeValidation},
		{"missing username", CreateThoughtInput{ThoughtText: "hi", UserID: bob.ID}, models.CodeValidation},
		{"missing user id", CreateThoughtInput{ThoughtText: "hi", Username: "bob"}, models.CodeValidation},
		{"too long", CreateThoughtInput{ThoughtText: strings.Repeat("a", 281), Username: "bob", UserID: bob.ID}, models.CodeValidation},
		{"malformed user id", CreateThoughtInput{ThoughtText: "hi", Username: "bob", UserID: "nope"}, models.CodeValidation},
		{"unknown user", CreateThoughtInput{ThoughtText: "hi", Username: "bob", UserID: models.NewID()}, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.thought.CreateThought(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, tt.code), err.Error())
		})
	}

	// Nothing was written by the rejected calls.
	all, err := f.thoughts.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestThoughtService_CreateThought_LengthBoundary(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")

	th := f.createThought(t, bob, strings.Repeat("a", 280))
	assert.Len(t, th.ThoughtText, 280)

	// Length is counted in characters, not bytes.
	th = f.createThought(t, bob, strings.Repeat("é", 280))
	assert.Equal(t, 280, len([]rune(th.ThoughtText)))
}

func TestThoughtService_WhitespaceTextIsContent(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	th := f.createThought(t, bob, " ")
	assert.Equal(t, " ", th.ThoughtText)

	updated, err := f.thought.UpdateThoughtText(ctx, th.ID, UpdateThoughtInput{ThoughtText: "\t"})
	require.NoError(t, err)
	assert.Equal(t, "\t", updated.ThoughtText)

	withReaction, err := f.thought.AddReaction(ctx, th.ID, AddReactionInput{ReactionBody: " ", Username: "carol"})
	require.NoError(t, err)
	require.Len(t, withReaction.Reactions, 1)
	assert.Equal(t, " ", withReaction.Reactions[0].ReactionBody)

	_, err = f.thought.CreateThought(ctx, CreateThoughtInput{ThoughtText: "", Username: "bob", UserID: bob.ID})
	require.Error(t, err)
	assert.Equal(t, "Missing required fields", err.Error())
}

func TestThoughtService_CreateThought_CompensatesFailedAppend(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	thoughts := repository.NewThoughtRepository(db)
	f := newFixtureWith(failingUsers{users}, thoughts)
	ctx := context.Background()

	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, users.Create(ctx, bob))

	before := compensationCount(t, opCreateThought)
	_, err := f.thought.CreateThought(ctx, CreateThoughtInput{
		ThoughtText: "hi", Username: "bob", UserID: bob.ID,
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.Equal(t, before+1, compensationCount(t, opCreateThought))

	all, err := thoughts.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.events.types())
}

func TestThoughtService_DeleteThought(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()
	th := f.createThought(t, bob, "hi")

	res, err := f.thought.DeleteThought(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thought deleted", res.Message)

	_, err = f.thought.GetThought(ctx, th.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	user, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, user.Thoughts)

	_, err = f.thought.DeleteThought(ctx, th.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestThoughtService_DeleteThought_ResolvesOwnerByReference(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	// A thought stored without an owner id, referenced only from bob's list.
	legacy := &models.Thought{ThoughtText: "old", Username: "someone-else"}
	require.NoError(t, f.thoughts.Create(ctx, legacy))
	require.NoError(t, f.users.AddThought(ctx, bob.ID, legacy.ID))

	_, err := f.thought.DeleteThought(ctx, legacy.ID)
	require.NoError(t, err)

	user, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, user.Thoughts)
}

func TestThoughtService_DeleteThought_OrphanWithoutOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orphan := &models.Thought{ThoughtText: "alone", Username: "nobody"}
	require.NoError(t, f.thoughts.Create(ctx, orphan))

	_, err := f.thought.DeleteThought(ctx, orphan.ID)
	require.NoError(t, err)
}

func TestThoughtService_DeleteThought_CompensatesFailedDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	thoughts := repository.NewThoughtRepository(db)
	ctx := context.Background()

	ok := newFixtureWith(users, thoughts)
	bob := ok.createUser(t, "bob")
	th := ok.createThought(t, bob, "hi")

	f := newFixtureWith(users, failingThoughts{thoughts})
	before := compensationCount(t, opDeleteThought)
	_, err := f.thought.DeleteThought(ctx, th.ID)
	require.Error(t, err)
	assert.Equal(t, before+1, compensationCount(t, opDeleteThought))

	user, err := users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.ID}, user.Thoughts)
}

func TestThoughtService_UpdateThoughtText(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()
	th := f.createThought(t, bob, "hi")

	_, err := f.thought.AddReaction(ctx, th.ID, AddReactionInput{ReactionBody: "nice", Username: "carol"})
	require.NoError(t, err)

	updated, err := f.thought.UpdateThoughtText(ctx, th.ID, UpdateThoughtInput{ThoughtText: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.ThoughtText)
	assert.Equal(t, th.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 1, updated.ReactionCount)

	// Validation is checked before existence.
	_, err = f.thought.UpdateThoughtText(ctx, models.NewID(), UpdateThoughtInput{})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.thought.UpdateThoughtText(ctx, models.NewID(), UpdateThoughtInput{ThoughtText: "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestThoughtService_ReactionLifecycle(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()
	th := f.createThought(t, bob, "hi")

	withReaction, err := f.thought.AddReaction(ctx, th.ID, AddReactionInput{
		ReactionBody: "nice",
		Username:     "carol",
	})
	require.NoError(t, err)
	require.Len(t, withReaction.Reactions, 1)
	assert.Equal(t, 1, withReaction.ReactionCount)
	r := withReaction.Reactions[0]
	assert.True(t, models.IsValidID(r.ReactionID))
	assert.NotNil(t, r.CreatedAt)

	// Removing an unknown reaction leaves the thought unchanged.
	same, err := f.thought.DeleteReaction(ctx, th.ID, models.NewID())
	require.NoError(t, err)
	assert.Equal(t, 1, same.ReactionCount)

	empty, err := f.thought.DeleteReaction(ctx, th.ID, r.ReactionID)
	require.NoError(t, err)
	assert.Empty(t, empty.Reactions)
	assert.Equal(t, 0, empty.ReactionCount)

	assert.Equal(t, []string{
		notifications.EventUserCreated,
		notifications.EventThoughtCreated,
		notifications.EventReactionAdded,
		notifications.EventReactionRemoved,
		notifications.EventReactionRemoved,
	}, f.events.types())
}

func TestThoughtService_AddReaction_Errors(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	ctx := context.Background()
	th := f.createThought(t, bob, "hi")

	_, err := f.thought.AddReaction(ctx, th.ID, AddReactionInput{Username: "carol"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.thought.AddReaction(ctx, th.ID, AddReactionInput{ReactionBody: "x"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.thought.AddReaction(ctx, th.ID, AddReactionInput{
		ReactionBody: strings.Repeat("b", 281), Username: "carol",
	})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.thought.AddReaction(ctx, models.NewID(), AddReactionInput{ReactionBody: "x", Username: "carol"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = f.thought.DeleteReaction(ctx, models.NewID(), models.NewID())
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestThoughtService_ListThoughts(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	f.createThought(t, bob, "one")
	f.createThought(t, bob, "two")

	views, err := f.thought.ListThoughts(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
