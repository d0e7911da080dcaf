package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Result counts what a seeding run created.
type Result struct {
	Users       int
	Thoughts    int
	Reactions   int
	Friendships int
}

// Seeder writes fixtures through the services.
type Seeder struct {
	userRepo    repository.UserRepository
	thoughtRepo repository.ThoughtRepository
	users       *service.UserService
	thoughts    *service.ThoughtService
}

// NewSeeder builds a Seeder on the given repositories.
func NewSeeder(users repository.UserRepository, thoughts repository.ThoughtRepository) *Seeder {
	return &Seeder{
		userRepo:    users,
		thoughtRepo: thoughts,
		users:       service.NewUserService(users, thoughts, nil, nil),
		thoughts:    service.NewThoughtService(thoughts, users, nil, nil),
	}
}

// Wipe deletes every thought and user.
func (s *Seeder) Wipe(ctx context.Context) error {
	if err := s.thoughtRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("wipe thoughts: %w", err)
	}
	if err := s.userRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("wipe users: %w", err)
	}
	return nil
}

// Load creates the users of f, then their thoughts and reactions, then the
// friendships. Reaction authors are free text and need not be declared.
func (s *Seeder) Load(ctx context.Context, f *Fixture) (*Result, error) {
	res := &Result{}
	ids := make(map[string]string, len(f.Users))

	for _, u := range f.Users {
		created, err := s.users.CreateUser(ctx, service.CreateUserInput{Username: u.Username, Email: u.Email})
		if err != nil {
			return res, fmt.Errorf("create user %q: %w", u.Username, err)
		}
		ids[u.Username] = created.ID
		res.Users++
	}

	for _, u := range f.Users {
		for _, t := range u.Thoughts {
			thought, err := s.thoughts.CreateThought(ctx, service.CreateThoughtInput{
				ThoughtText: t.Text,
				Username:    u.Username,
				UserID:      ids[u.Username],
			})
			if err != nil {
				return res, fmt.Errorf("create thought for %q: %w", u.Username, err)
			}
			res.Thoughts++

			for _, r := range t.Reactions {
				if _, err := s.thoughts.AddReaction(ctx, thought.ID, service.AddReactionInput{
					ReactionBody: r.Body,
					Username:     r.Username,
				}); err != nil {
					return res, fmt.Errorf("add reaction to %q: %w", thought.ID, err)
				}
				res.Reactions++
			}
		}
	}

	for _, u := range f.Users {
		for _, friend := range u.Friends {
			if _, err := s.users.AddFriend(ctx, ids[u.Username], ids[friend]); err != nil {
				if models.IsCode(err, models.CodeConflict) {
					continue
				}
				return res, fmt.Errorf("add friend %q to %q: %w", friend, u.Username, err)
			}
			res.Friendships++
		}
	}

	middleware.Logger.Info("fixture loaded",
		slog.Int("users", res.Users),
		slog.Int("thoughts", res.Thoughts),
		slog.Int("reactions", res.Reactions),
		slog.Int("friendships", res.Friendships),
	)
	return res, nil
}

// Fake builds a random network of n users. The same seed yields the same
// usernames and texts.
func Fake(n int, seed int64) *Fixture {
	faker := gofakeit.New(seed)
	f := &Fixture{Users: make([]FixtureUser, 0, n)}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%d", slug(faker.Username()), i)
		f.Users = append(f.Users, FixtureUser{
			Username: name,
			Email:    strings.ToLower(name) + "@example.com",
		})
	}

	for i := range f.Users {
		thoughts := faker.Number(1, 3)
		for j := 0; j < thoughts; j++ {
			t := FixtureThought{Text: truncate(faker.Sentence(faker.Number(4, 16)), models.MaxThoughtTextLength)}
			for k := faker.Number(0, 2); k > 0; k-- {
				author := f.Users[faker.Number(0, n-1)].Username
				t.Reactions = append(t.Reactions, FixtureReaction{
					Body:     truncate(faker.Phrase(), models.MaxReactionBodyLength),
					Username: author,
				})
			}
			f.Users[i].Thoughts = append(f.Users[i].Thoughts, t)
		}

		if n > 1 {
			for k := faker.Number(0, 3); k > 0; k-- {
				friend := f.Users[faker.Number(0, n-1)].Username
				if friend != f.Users[i].Username {
					f.Users[i].Friends = append(f.Users[i].Friends, friend)
				}
			}
		}
	}
	return f
}

// slug keeps the ASCII letters and digits of s.
func slug(s string) string {
	out := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
	if out == "" {
		return "user"
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
