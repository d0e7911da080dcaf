package repository

import (
	"context"
	"errors"

	"thoughtnet/internal/models"

	"gorm.io/gorm"
)

const thoughtNotFound = "Thought not found"

type thoughtRepository struct {
	db *gorm.DB
}

// NewThoughtRepository returns a gorm-backed ThoughtRepository.
func NewThoughtRepository(db *gorm.DB) ThoughtRepository {
	return &thoughtRepository{db: db}
}

func (r *thoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thought).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(thoughtNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	normalizeThought(&thought)
	return &thought, nil
}

func (r *thoughtRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	var thoughts []models.Thought
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&thoughts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return normalizeThoughts(thoughts), nil
}

func (r *thoughtRepository) List(ctx context.Context, limit, offset int) ([]models.Thought, error) {
	var thoughts []models.Thought
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if err := paginate(q, limit, offset).Find(&thoughts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return normalizeThoughts(thoughts), nil
}

func (r *thoughtRepository) Create(ctx context.Context, thought *models.Thought) error {
	normalizeThought(thought)
	if err := r.db.WithContext(ctx).Create(thought).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *thoughtRepository) UpdateText(ctx context.Context, id, text string) (*models.Thought, error) {
	return r.mutate(ctx, id, "ThoughtText", func(t *models.Thought) {
		t.ThoughtText = text
	})
}

func (r *thoughtRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Thought{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage(thoughtNotFound)
	}
	return nil
}

func (r *thoughtRepository) DeleteOwned(ctx context.Context, username string, ids []string) ([]string, error) {
	var deleted []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Thought{}).Where("username = ?", username)
		if len(ids) > 0 {
			q = q.Or("id IN ?", ids)
		}
		if err := q.Pluck("id", &deleted).Error; err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		return tx.Where("id IN ?", deleted).Delete(&models.Thought{}).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if deleted == nil {
		deleted = []string{}
	}
	return deleted, nil
}

func (r *thoughtRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Thought{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *thoughtRepository) AddReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	return r.mutate(ctx, thoughtID, "Reactions", func(t *models.Thought) {
		t.Reactions = append(t.Reactions, reaction)
	})
}

func (r *thoughtRepository) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	return r.mutate(ctx, thoughtID, "Reactions", func(t *models.Thought) {
		t.Reactions = t.WithoutReaction(reactionID)
	})
}

// mutate loads the thought under a row lock, applies fn and writes back the
// named column in the same transaction, returning the updated document.
func (r *thoughtRepository) mutate(ctx context.Context, id, field string, fn func(t *models.Thought)) (*models.Thought, error) {
	var thought models.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", id).First(&thought).Error; err != nil {
			return err
		}
		normalizeThought(&thought)
		fn(&thought)
		return tx.Model(&thought).Select(field, "UpdatedAt").Updates(&thought).Error
	})
	if err != nil {
		return nil, translateError(err, thoughtNotFound)
	}
	return &thought, nil
}

func normalizeThought(t *models.Thought) {
	if t.Reactions == nil {
		t.Reactions = []models.Reaction{}
	}
}

func normalizeThoughts(thoughts []models.Thought) []models.Thought {
	if thoughts == nil {
		return []models.Thought{}
	}
	for i := range thoughts {
		normalizeThought(&thoughts[i])
	}
	return thoughts
}
