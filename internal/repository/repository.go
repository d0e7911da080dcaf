// Package repository implements the data access layer for users and thoughts.
package repository

import (
	"context"
	"errors"
	"strings"

	"thoughtnet/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users. Array mutations
// (thoughts, friends) are atomic per user document.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByThought returns the user whose thoughts list contains thoughtID,
	// or nil when no user references it.
	FindByThought(ctx context.Context, thoughtID string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update persists username and email only.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	AddThought(ctx context.Context, userID, thoughtID string) error
	RemoveThought(ctx context.Context, userID, thoughtID string) error
	// AddFriend appends friendID unless already present (Conflict).
	AddFriend(ctx context.Context, userID, friendID string) error
	// RemoveFriend pulls friendID, returning Conflict when it is absent.
	RemoveFriend(ctx context.Context, userID, friendID string) error
	// RemoveFriendFromAll pulls friendID from every friends list and returns
	// the ids of the users that changed.
	RemoveFriendFromAll(ctx context.Context, friendID string) ([]string, error)
}

// ThoughtRepository defines persistence operations for thoughts and their
// embedded reactions.
type ThoughtRepository interface {
	GetByID(ctx context.Context, id string) (*models.Thought, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error)
	List(ctx context.Context, limit, offset int) ([]models.Thought, error)
	Create(ctx context.Context, thought *models.Thought) error
	UpdateText(ctx context.Context, id, text string) (*models.Thought, error)
	Delete(ctx context.Context, id string) error
	// DeleteOwned removes every thought authored by username or listed in ids
	// and returns the ids that were deleted.
	DeleteOwned(ctx context.Context, username string, ids []string) ([]string, error)
	DeleteAll(ctx context.Context) error
	AddReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error)
	// RemoveReaction pulls the matching reaction; an absent reaction is a no-op.
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// forUpdate row-locks the selected document on backends that support it.
// SQLite serializes writers on its single connection instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// jsonArrayContains matches a JSON-serialized string array column holding id.
func jsonArrayContains(column, id string) (string, string) {
	return column + " LIKE ?", `%"` + id + `"%`
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

func without(ids []string, id string) []string {
	kept := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}
