package service

import (
	"context"
	"time"

	"thoughtnet/internal/models"
	"thoughtnet/internal/notifications"
	"thoughtnet/internal/observability"
	"thoughtnet/internal/presenter"
	"thoughtnet/internal/repository"
	"thoughtnet/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type ThoughtService struct {
	thoughts repository.ThoughtRepository
	users    repository.UserRepository
	format   *presenter.Formatter
	events   notifications.Publisher
	now      func() time.Time
}

type CreateThoughtInput struct {
	ThoughtText string `json:"thoughtText" validate:"required,min=1,max=280"`
	Username    string `json:"username" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
}

type UpdateThoughtInput struct {
	ThoughtText string `json:"thoughtText" validate:"required,min=1,max=280"`
}

type AddReactionInput struct {
	ReactionBody string `json:"reactionBody" validate:"required,max=280"`
	Username     string `json:"username" validate:"required"`
}

// NewThoughtService wires a ThoughtService. events may be nil.
func NewThoughtService(
	thoughts repository.ThoughtRepository,
	users repository.UserRepository,
	format *presenter.Formatter,
	events notifications.Publisher,
) *ThoughtService {
	if format == nil {
		format = presenter.NewFormatter(nil)
	}
	return &ThoughtService{
		thoughts: thoughts,
		users:    users,
		format:   format,
		events:   events,
		now:      time.Now,
	}
}

func (s *ThoughtService) ListThoughts(ctx context.Context, limit, offset int) ([]presenter.ThoughtView, error) {
	thoughts, err := s.thoughts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.format.Thoughts(thoughts), nil
}

func (s *ThoughtService) GetThought(ctx context.Context, thoughtID string) (*presenter.ThoughtView, error) {
	thought, err := s.thoughts.GetByID(ctx, thoughtID)
	if err != nil {
		return nil, err
	}
	view := s.format.Thought(thought)
	return &view, nil
}

// CreateThought stores a new thought and appends its id to the owner's
// thoughts. The owner must exist before anything is written; if the append
// fails the thought is deleted again.
func (s *ThoughtService) CreateThought(ctx context.Context, in CreateThoughtInput) (view *presenter.ThoughtView, err error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.CreateThought",
		attribute.String("user.id", in.UserID))
	defer span.Finish(opCreateThought, &err)

	if err = requireFields(in.ThoughtText, in.Username, in.UserID); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	if err = requireID(in.UserID, "user"); err != nil {
		return nil, err
	}
	if _, err = s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	thought := &models.Thought{
		ThoughtText: in.ThoughtText,
		Username:    in.Username,
		UserID:      in.UserID,
	}
	if err = s.thoughts.Create(ctx, thought); err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.String("thought.id", thought.ID))

	if err = s.users.AddThought(ctx, in.UserID, thought.ID); err != nil {
		compensate(ctx, opCreateThought, func(ctx context.Context) error {
			return s.thoughts.Delete(ctx, thought.ID)
		})
		return nil, err
	}

	v := s.format.Thought(thought)
	publish(ctx, s.events, notifications.EventThoughtCreated, v, in.UserID)
	return &v, nil
}

// UpdateThoughtText replaces the text only. Input is validated before the
// thought is looked up.
func (s *ThoughtService) UpdateThoughtText(ctx context.Context, thoughtID string, in UpdateThoughtInput) (view *presenter.ThoughtView, err error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.UpdateThoughtText",
		attribute.String("thought.id", thoughtID))
	defer span.Finish(opUpdateThought, &err)

	if err = requireFields(in.ThoughtText); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	thought, err := s.thoughts.UpdateText(ctx, thoughtID, in.ThoughtText)
	if err != nil {
		return nil, err
	}

	v := s.format.Thought(thought)
	publish(ctx, s.events, notifications.EventThoughtUpdated, v, thought.UserID)
	return &v, nil
}

// DeleteThought pulls the id from its owner and then deletes the thought.
// The owner is the recorded UserID or, for thoughts stored without one, the
// user whose thoughts list references the id. If the delete fails the
// reference is restored.
func (s *ThoughtService) DeleteThought(ctx context.Context, thoughtID string) (res *MessageResult, err error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.DeleteThought",
		attribute.String("thought.id", thoughtID))
	defer span.Finish(opDeleteThought, &err)

	thought, err := s.thoughts.GetByID(ctx, thoughtID)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.resolveOwner(ctx, thought)
	if err != nil {
		return nil, err
	}

	detached := false
	if ownerID != "" {
		err = s.users.RemoveThought(ctx, ownerID, thought.ID)
		switch {
		case err == nil:
			detached = true
		case models.IsCode(err, models.CodeNotFound):
			// The owner is already gone; nothing references the thought.
			err = nil
		default:
			return nil, err
		}
	}

	if err = s.thoughts.Delete(ctx, thought.ID); err != nil {
		if detached {
			compensate(ctx, opDeleteThought, func(ctx context.Context) error {
				return s.users.AddThought(ctx, ownerID, thought.ID)
			})
		}
		return nil, err
	}

	publish(ctx, s.events, notifications.EventThoughtDeleted,
		map[string]string{"thoughtId": thought.ID, "userId": ownerID}, ownerID)
	return &MessageResult{Message: "Thought deleted"}, nil
}

func (s *ThoughtService) resolveOwner(ctx context.Context, thought *models.Thought) (string, error) {
	if thought.UserID != "" {
		return thought.UserID, nil
	}
	owner, err := s.users.FindByThought(ctx, thought.ID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		return "", nil
	}
	return owner.ID, nil
}

// AddReaction appends a reaction stamped with a new id and the current time.
func (s *ThoughtService) AddReaction(ctx context.Context, thoughtID string, in AddReactionInput) (view *presenter.ThoughtView, err error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.AddReaction",
		attribute.String("thought.id", thoughtID))
	defer span.Finish(opAddReaction, &err)

	if err = requireFields(in.ReactionBody, in.Username); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	reaction := models.NewReaction(in.ReactionBody, in.Username, s.now())
	thought, err := s.thoughts.AddReaction(ctx, thoughtID, reaction)
	if err != nil {
		return nil, err
	}

	v := s.format.Thought(thought)
	publish(ctx, s.events, notifications.EventReactionAdded, v, thought.UserID)
	return &v, nil
}

// DeleteReaction pulls the matching reaction. A missing reaction leaves the
// thought unchanged; a missing thought is NotFound.
func (s *ThoughtService) DeleteReaction(ctx context.Context, thoughtID, reactionID string) (view *presenter.ThoughtView, err error) {
	span, ctx := observability.NewSpan(ctx, "ThoughtService.DeleteReaction",
		attribute.String("thought.id", thoughtID),
		attribute.String("reaction.id", reactionID))
	defer span.Finish(opDeleteReaction, &err)

	thought, err := s.thoughts.RemoveReaction(ctx, thoughtID, reactionID)
	if err != nil {
		return nil, err
	}

	v := s.format.Thought(thought)
	publish(ctx, s.events, notifications.EventReactionRemoved, v, thought.UserID)
	return &v, nil
}
