package repository

import (
	"context"
	"errors"

	"thoughtnet/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("User not found")
		}
		return nil, models.NewInternalError(err)
	}
	user.Normalize()
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return normalizeUsers(users), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByThought(ctx context.Context, thoughtID string) (*models.User, error) {
	query, arg := jsonArrayContains("thoughts", thoughtID)
	return r.findOne(ctx, query, arg)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	user.Normalize()
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if err := paginate(q, limit, offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return normalizeUsers(users), nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Normalize()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]any{"username": user.Username, "email": user.Email})
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.NewValidationError("Username or email already exists")
		}
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("User not found")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("User not found")
	}
	return nil
}

func (r *userRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) AddThought(ctx context.Context, userID, thoughtID string) error {
	return r.mutate(ctx, userID, "Thoughts", func(u *models.User) error {
		if !u.HasThought(thoughtID) {
			u.Thoughts = append(u.Thoughts, thoughtID)
		}
		return nil
	})
}

func (r *userRepository) RemoveThought(ctx context.Context, userID, thoughtID string) error {
	return r.mutate(ctx, userID, "Thoughts", func(u *models.User) error {
		u.Thoughts = without(u.Thoughts, thoughtID)
		return nil
	})
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID string) error {
	return r.mutate(ctx, userID, "Friends", func(u *models.User) error {
		if u.HasFriend(friendID) {
			return models.NewConflictError("Friend is already in friend list")
		}
		u.Friends = append(u.Friends, friendID)
		return nil
	})
}

func (r *userRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return r.mutate(ctx, userID, "Friends", func(u *models.User) error {
		if !u.HasFriend(friendID) {
			return models.NewConflictError("Friend is not in friend list")
		}
		u.Friends = without(u.Friends, friendID)
		return nil
	})
}

func (r *userRepository) RemoveFriendFromAll(ctx context.Context, friendID string) ([]string, error) {
	var affected []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query, arg := jsonArrayContains("friends", friendID)
		var users []models.User
		if err := forUpdate(tx).Where(query, arg).Find(&users).Error; err != nil {
			return err
		}
		for i := range users {
			u := &users[i]
			u.Normalize()
			if !u.HasFriend(friendID) {
				continue
			}
			u.Friends = without(u.Friends, friendID)
			if err := tx.Model(u).Select("Friends", "UpdatedAt").Updates(u).Error; err != nil {
				return err
			}
			affected = append(affected, u.ID)
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return affected, nil
}

// mutate loads the user under a row lock, applies fn and writes back the
// named array column in the same transaction.
func (r *userRepository) mutate(ctx context.Context, userID, field string, fn func(u *models.User) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		user.Normalize()
		if err := fn(&user); err != nil {
			return err
		}
		return tx.Model(&user).Select(field, "UpdatedAt").Updates(&user).Error
	})
	return translateError(err, "User not found")
}

// translateError maps gorm errors to AppErrors, passing AppErrors through.
func translateError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundMessage(notFoundMsg)
	}
	return models.NewInternalError(err)
}

func normalizeUsers(users []models.User) []models.User {
	if users == nil {
		return []models.User{}
	}
	for i := range users {
		users[i].Normalize()
	}
	return users
}
