package service

import (
	"context"
	"sync"
	"testing"

	"thoughtnet/internal/notifications"
	"thoughtnet/internal/presenter"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/testutil"

	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	event   notifications.Event
	targets []string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt notifications.Event, userIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event: evt, targets: userIDs})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event.Type)
	}
	return out
}

func (p *recordingPublisher) last() publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	userSvc  *UserService
	thought  *ThoughtService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	thoughts := repository.NewThoughtRepository(db)
	return newFixtureWith(users, thoughts)
}

func newFixtureWith(users repository.UserRepository, thoughts repository.ThoughtRepository) *fixture {
	events := &recordingPublisher{}
	format := presenter.NewFormatter(nil)
	return &fixture{
		users:    users,
		thoughts: thoughts,
		userSvc:  NewUserService(users, thoughts, format, events),
		thought:  NewThoughtService(thoughts, users, format, events),
		events:   events,
	}
}

func (f *fixture) createUser(t *testing.T, username string) *presenter.UserSummary {
	t.Helper()
	u, err := f.userSvc.CreateUser(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) createThought(t *testing.T, owner *presenter.UserSummary, text string) *presenter.ThoughtView {
	t.Helper()
	th, err := f.thought.CreateThought(context.Background(), CreateThoughtInput{
		ThoughtText: text,
		Username:    owner.Username,
		UserID:      owner.ID,
	})
	require.NoError(t, err)
	return th
}
