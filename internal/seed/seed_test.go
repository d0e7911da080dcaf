package seed

import (
	"context"
	"testing"

	"thoughtnet/internal/repository"
	"thoughtnet/internal/testutil"
	"thoughtnet/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T) (*Seeder, repository.UserRepository, repository.ThoughtRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	thoughts := repository.NewThoughtRepository(db)
	return NewSeeder(users, thoughts), users, thoughts
}

func TestDefaultFixture_Load(t *testing.T) {
	s, users, thoughts := newSeeder(t)
	ctx := context.Background()

	f, err := DefaultFixture()
	require.NoError(t, err)

	res, err := s.Load(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 6, res.Thoughts)
	assert.Equal(t, 4, res.Reactions)
	assert.Equal(t, 8, res.Friendships)

	u, err := users.GetByUsername(ctx, "testUser1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Len(t, u.Thoughts, 1)
	assert.Len(t, u.Friends, 2)

	th, err := thoughts.GetByID(ctx, u.Thoughts[0])
	require.NoError(t, err)
	assert.Equal(t, "This is a test thought", th.ThoughtText)
	assert.Equal(t, u.ID, th.UserID)
	require.Len(t, th.Reactions, 1)
	assert.Equal(t, "Awesome!", th.Reactions[0].ReactionBody)
}

func TestSeeder_WipeThenReload(t *testing.T) {
	s, users, thoughts := newSeeder(t)
	ctx := context.Background()
	f, err := DefaultFixture()
	require.NoError(t, err)

	_, err = s.Load(ctx, f)
	require.NoError(t, err)
	require.NoError(t, s.Wipe(ctx))

	all, err := users.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	allThoughts, err := thoughts.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, allThoughts)

	// Usernames are free again after a wipe.
	_, err = s.Load(ctx, f)
	require.NoError(t, err)
}

func TestParseFixture_Errors(t *testing.T) {
	_, err := ParseFixture([]byte("users: ["))
	assert.Error(t, err)

	_, err = ParseFixture([]byte(`
users:
  - username: a
    email: a@example.com
    friends: [ghost]
`))
	assert.ErrorContains(t, err, "unknown friend")

	_, err = ParseFixture([]byte(`
users:
  - username: a
    email: a@example.com
  - username: a
    email: b@example.com
`))
	assert.ErrorContains(t, err, "twice")
}

func TestFake_IsDeterministicAndValid(t *testing.T) {
	a := Fake(5, 42)
	b := Fake(5, 42)
	assert.Equal(t, a, b)
	require.Len(t, a.Users, 5)

	for _, u := range a.Users {
		assert.True(t, validation.IsValidEmail(u.Email), u.Email)
		assert.NotEmpty(t, u.Thoughts)
		for _, th := range u.Thoughts {
			assert.LessOrEqual(t, len([]rune(th.Text)), 280)
		}
	}
}

func TestFake_Loads(t *testing.T) {
	s, users, _ := newSeeder(t)
	ctx := context.Background()

	res, err := s.Load(ctx, Fake(8, 7))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Users)

	all, err := users.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}
