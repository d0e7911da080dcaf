package service

import (
	"context"
	"log/slog"
	"strings"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"
	"thoughtnet/internal/notifications"
	"thoughtnet/internal/observability"
	"thoughtnet/internal/presenter"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	duplicateUserMessage = "Username or email already exists"
	userOrFriendNotFound = "User or friend not found"
	userDeletedMessage   = "User and associated thoughts deleted successfully"
	friendAddedMessage   = "Friend added successfully"
	friendRemovedMessage = "Friend removed successfully"
)

type UserService struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	format   *presenter.Formatter
	events   notifications.Publisher
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,thoughtemail"`
}

type UpdateUserInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,thoughtemail"`
}

// DeleteUserResult acknowledges a cascade delete.
type DeleteUserResult struct {
	Message         string `json:"message"`
	DeletedThoughts int    `json:"deletedThoughts"`
}

// NewUserService wires a UserService. events may be nil.
func NewUserService(
	users repository.UserRepository,
	thoughts repository.ThoughtRepository,
	format *presenter.Formatter,
	events notifications.Publisher,
) *UserService {
	if format == nil {
		format = presenter.NewFormatter(nil)
	}
	return &UserService{
		users:    users,
		thoughts: thoughts,
		format:   format,
		events:   events,
	}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]presenter.UserSummary, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return presenter.Summaries(users), nil
}

// GetUser returns the populated detail view: thoughts formatted in reference
// order and friends reduced to their identifying fields.
func (s *UserService) GetUser(ctx context.Context, userID string) (*presenter.UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	thoughts, err := s.thoughts.GetByIDs(ctx, user.Thoughts)
	if err != nil {
		return nil, err
	}
	friends, err := s.users.GetByIDs(ctx, user.Friends)
	if err != nil {
		return nil, err
	}
	view := s.format.User(user, thoughts, friends)
	return &view, nil
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (summary *presenter.UserSummary, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.CreateUser")
	defer span.Finish(opCreateUser, &err)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err = requireFields(in.Username, in.Email); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	if err = s.ensureUnique(ctx, in.Username, in.Email, ""); err != nil {
		return nil, err
	}

	user := &models.User{Username: in.Username, Email: in.Email}
	if err = s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	sum := presenter.Summary(user)
	publish(ctx, s.events, notifications.EventUserCreated, sum, user.ID)
	return &sum, nil
}

// UpdateUser replaces username and email. Thoughts keep the author name they
// were created with.
func (s *UserService) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (summary *presenter.UserSummary, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.UpdateUser",
		attribute.String("user.id", userID))
	defer span.Finish(opUpdateUser, &err)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err = requireFields(in.Username, in.Email); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = s.ensureUnique(ctx, in.Username, in.Email, user.ID); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	if err = s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	sum := presenter.Summary(user)
	publish(ctx, s.events, notifications.EventUserUpdated, sum, user.ID)
	return &sum, nil
}

// ensureUnique reports a validation error when another user already holds
// username or email. The unique indexes remain the final arbiter under races.
func (s *UserService) ensureUnique(ctx context.Context, username, email, selfID string) error {
	byName, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != selfID {
		return models.NewValidationError(duplicateUserMessage)
	}
	byEmail, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return models.NewValidationError(duplicateUserMessage)
	}
	return nil
}

// DeleteUser removes the user, every thought authored under its username or
// referenced from its thoughts list, and its id from every friends list.
// Deleted documents cannot be restored, so the cascade is not compensated.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (res *DeleteUserResult, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.DeleteUser",
		attribute.String("user.id", userID))
	defer span.Finish(opDeleteUser, &err)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.thoughts.DeleteOwned(ctx, user.Username, user.Thoughts)
	if err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.Int("thoughts.deleted", len(deleted)))
	s.detachForeignThoughts(ctx, user, deleted)

	affected, err := s.users.RemoveFriendFromAll(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err = s.users.Delete(ctx, user.ID); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.EventUserDeleted,
		map[string]any{"userId": user.ID, "deletedThoughts": deleted},
		append([]string{user.ID}, affected...)...)
	return &DeleteUserResult{Message: userDeletedMessage, DeletedThoughts: len(deleted)}, nil
}

// detachForeignThoughts pulls deleted thoughts that matched by username but
// are listed under a different user.
func (s *UserService) detachForeignThoughts(ctx context.Context, user *models.User, deleted []string) {
	for _, id := range deleted {
		if user.HasThought(id) {
			continue
		}
		owner, err := s.users.FindByThought(ctx, id)
		if err == nil && owner != nil && owner.ID != user.ID {
			err = s.users.RemoveThought(ctx, owner.ID, id)
		}
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to detach deleted thought",
				slog.String("thought_id", id), slog.String("error", err.Error()))
		}
	}
}

// AddFriend appends friendID to the user's friends. The repository checks
// for an existing entry in the same write.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID string) (res *MessageResult, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.AddFriend",
		attribute.String("user.id", userID), attribute.String("friend.id", friendID))
	defer span.Finish(opAddFriend, &err)

	if err = s.resolvePair(ctx, userID, friendID); err != nil {
		return nil, err
	}
	if err = s.users.AddFriend(ctx, userID, friendID); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.EventFriendAdded,
		map[string]string{"userId": userID, "friendId": friendID}, userID, friendID)
	return &MessageResult{Message: friendAddedMessage}, nil
}

// RemoveFriend pulls friendID from the user's friends.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID string) (res *MessageResult, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.RemoveFriend",
		attribute.String("user.id", userID), attribute.String("friend.id", friendID))
	defer span.Finish(opRemoveFriend, &err)

	if err = s.resolvePair(ctx, userID, friendID); err != nil {
		return nil, err
	}
	if err = s.users.RemoveFriend(ctx, userID, friendID); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.EventFriendRemoved,
		map[string]string{"userId": userID, "friendId": friendID}, userID, friendID)
	return &MessageResult{Message: friendRemovedMessage}, nil
}

// resolvePair checks that both users exist.
func (s *UserService) resolvePair(ctx context.Context, userID, friendID string) error {
	for _, id := range []string{userID, friendID} {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.NewNotFoundMessage(userOrFriendNotFound)
			}
			return err
		}
	}
	return nil
}
