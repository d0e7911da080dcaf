package repository

import (
	"context"

	"thoughtnet/internal/cache"
	"thoughtnet/internal/models"

	"github.com/redis/go-redis/v9"
)

// cachedUserRepository serves GetByID through Redis and drops the cached
// document on every write that touches it.
type cachedUserRepository struct {
	UserRepository
	rdb *redis.Client
}

// NewCachedUserRepository decorates inner with cache-aside reads. A nil
// client returns inner unchanged.
func NewCachedUserRepository(inner UserRepository, rdb *redis.Client) UserRepository {
	if rdb == nil {
		return inner
	}
	return &cachedUserRepository{UserRepository: inner, rdb: rdb}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := r.UserRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.Normalize()
	return &user, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, user *models.User) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(user.ID))
	return r.UserRepository.Update(ctx, user)
}

func (r *cachedUserRepository) Delete(ctx context.Context, id string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(id))
	return r.UserRepository.Delete(ctx, id)
}

func (r *cachedUserRepository) DeleteAll(ctx context.Context) error {
	if err := r.UserRepository.DeleteAll(ctx); err != nil {
		return err
	}
	flushPattern(ctx, r.rdb, "user:*")
	return nil
}

func (r *cachedUserRepository) AddThought(ctx context.Context, userID, thoughtID string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(userID))
	return r.UserRepository.AddThought(ctx, userID, thoughtID)
}

func (r *cachedUserRepository) RemoveThought(ctx context.Context, userID, thoughtID string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(userID))
	return r.UserRepository.RemoveThought(ctx, userID, thoughtID)
}

func (r *cachedUserRepository) AddFriend(ctx context.Context, userID, friendID string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(userID))
	return r.UserRepository.AddFriend(ctx, userID, friendID)
}

func (r *cachedUserRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.UserKey(userID))
	return r.UserRepository.RemoveFriend(ctx, userID, friendID)
}

func (r *cachedUserRepository) RemoveFriendFromAll(ctx context.Context, friendID string) ([]string, error) {
	affected, err := r.UserRepository.RemoveFriendFromAll(ctx, friendID)
	cache.Invalidate(ctx, r.rdb, cache.UserKeys(affected...)...)
	return affected, err
}

func flushPattern(ctx context.Context, rdb *redis.Client, pattern string) {
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	cache.Invalidate(ctx, rdb, keys...)
}

// cachedThoughtRepository serves GetByID through Redis and drops the cached
// document on every write that touches it.
type cachedThoughtRepository struct {
	ThoughtRepository
	rdb *redis.Client
}

// NewCachedThoughtRepository decorates inner with cache-aside reads. A nil
// client returns inner unchanged.
func NewCachedThoughtRepository(inner ThoughtRepository, rdb *redis.Client) ThoughtRepository {
	if rdb == nil {
		return inner
	}
	return &cachedThoughtRepository{ThoughtRepository: inner, rdb: rdb}
}

func (r *cachedThoughtRepository) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	err := cache.Aside(ctx, r.rdb, cache.ThoughtKey(id), &thought, cache.ThoughtTTL, func() error {
		t, err := r.ThoughtRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		thought = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	normalizeThought(&thought)
	return &thought, nil
}

func (r *cachedThoughtRepository) UpdateText(ctx context.Context, id, text string) (*models.Thought, error) {
	defer cache.Invalidate(ctx, r.rdb, cache.ThoughtKey(id))
	return r.ThoughtRepository.UpdateText(ctx, id, text)
}

func (r *cachedThoughtRepository) Delete(ctx context.Context, id string) error {
	defer cache.Invalidate(ctx, r.rdb, cache.ThoughtKey(id))
	return r.ThoughtRepository.Delete(ctx, id)
}

func (r *cachedThoughtRepository) DeleteOwned(ctx context.Context, username string, ids []string) ([]string, error) {
	deleted, err := r.ThoughtRepository.DeleteOwned(ctx, username, ids)
	cache.Invalidate(ctx, r.rdb, cache.ThoughtKeys(deleted...)...)
	return deleted, err
}

func (r *cachedThoughtRepository) DeleteAll(ctx context.Context) error {
	if err := r.ThoughtRepository.DeleteAll(ctx); err != nil {
		return err
	}
	flushPattern(ctx, r.rdb, "thought:*")
	return nil
}

func (r *cachedThoughtRepository) AddReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	defer cache.Invalidate(ctx, r.rdb, cache.ThoughtKey(thoughtID))
	return r.ThoughtRepository.AddReaction(ctx, thoughtID, reaction)
}

func (r *cachedThoughtRepository) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	defer cache.Invalidate(ctx, r.rdb, cache.ThoughtKey(thoughtID))
	return r.ThoughtRepository.RemoveReaction(ctx, thoughtID, reactionID)
}
