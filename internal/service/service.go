// Package service holds the operations that read or mutate more than one
// document and keep the references between users and thoughts consistent.
package service

import (
	"context"
	"log/slog"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"
	"thoughtnet/internal/notifications"
	"thoughtnet/internal/observability"
)

// Operation names used for spans, metrics and compensation counters.
const (
	opCreateThought  = "create_thought"
	opUpdateThought  = "update_thought"
	opDeleteThought  = "delete_thought"
	opAddReaction    = "add_reaction"
	opDeleteReaction = "delete_reaction"
	opCreateUser     = "create_user"
	opUpdateUser     = "update_user"
	opDeleteUser     = "delete_user"
	opAddFriend      = "add_friend"
	opRemoveFriend   = "remove_friend"
)

const missingFieldsMessage = "Missing required fields"

// MessageResult is the acknowledgement returned by operations without a body.
type MessageResult struct {
	Message string `json:"message"`
}

// requireFields fails when any value is empty. Whitespace counts as content;
// callers trim the fields that must not carry it.
func requireFields(values ...string) error {
	for _, v := range values {
		if v == "" {
			return models.NewValidationError(missingFieldsMessage)
		}
	}
	return nil
}

// requireID rejects ids that cannot name a stored document.
func requireID(id, kind string) error {
	if !models.IsValidID(id) {
		return models.NewValidationError("Invalid " + kind + " ID")
	}
	return nil
}

// compensate runs undo after a later step of op failed. Its own failure is
// logged and never replaces the error being returned to the caller.
func compensate(ctx context.Context, op string, undo func(context.Context) error) {
	observability.Compensations.WithLabelValues(op).Inc()
	if err := undo(context.WithoutCancel(ctx)); err != nil {
		middleware.Logger.ErrorContext(ctx, "compensating action failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}

// publish hands evt to p when a publisher is configured.
func publish(ctx context.Context, p notifications.Publisher, eventType string, payload any, userIDs ...string) {
	if p == nil {
		return
	}
	p.Publish(ctx, notifications.Event{Type: eventType, Payload: payload}, userIDs...)
}
