package mongostore

import (
	"context"
	"errors"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const userNotFound = "User not found"

// UserStore is a MongoDB-backed repository.UserRepository.
type UserStore struct {
	coll *mongo.Collection
}

var _ repository.UserRepository = (*UserStore)(nil)

// NewUserStore returns a UserStore over the users collection of db.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err, userNotFound)
	}
	user.Normalize()
	return &user, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0, 0)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByThought(ctx context.Context, thoughtID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"thoughts": thoughtID})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Normalize()
	return &user, nil
}

func (s *UserStore) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.find(ctx, bson.M{}, limit, offset)
}

func (s *UserStore) find(ctx context.Context, filter bson.M, limit, offset int) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, filter, findOptions(limit, offset))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	user.Normalize()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		return translate(err, userNotFound)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"username":  user.Username,
		"email":     user.Email,
		"updatedAt": now(),
	}})
	if err != nil {
		return translate(err, userNotFound)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundMessage(userNotFound)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundMessage(userNotFound)
	}
	return nil
}

func (s *UserStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserStore) AddThought(ctx context.Context, userID, thoughtID string) error {
	return s.update(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"thoughts": thoughtID}})
}

func (s *UserStore) RemoveThought(ctx context.Context, userID, thoughtID string) error {
	return s.update(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"thoughts": thoughtID}})
}

// AddFriend pushes only when friendID is absent; a miss on the conditional
// filter is resolved into NotFound or Conflict.
func (s *UserStore) AddFriend(ctx context.Context, userID, friendID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "friends": bson.M{"$ne": friendID}},
		bson.M{"$push": bson.M{"friends": friendID}, "$set": bson.M{"updatedAt": now()}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return s.missReason(ctx, userID, "Friend is already in friend list")
	}
	return nil
}

func (s *UserStore) RemoveFriend(ctx context.Context, userID, friendID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "friends": friendID},
		bson.M{"$pull": bson.M{"friends": friendID}, "$set": bson.M{"updatedAt": now()}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return s.missReason(ctx, userID, "Friend is not in friend list")
	}
	return nil
}

func (s *UserStore) RemoveFriendFromAll(ctx context.Context, friendID string) ([]string, error) {
	affectedUsers, err := s.find(ctx, bson.M{"friends": friendID}, 0, 0)
	if err != nil {
		return nil, err
	}
	affected := make([]string, 0, len(affectedUsers))
	for _, u := range affectedUsers {
		affected = append(affected, u.ID)
	}
	if len(affected) == 0 {
		return affected, nil
	}
	_, err = s.coll.UpdateMany(ctx,
		bson.M{"friends": friendID},
		bson.M{"$pull": bson.M{"friends": friendID}, "$set": bson.M{"updatedAt": now()}},
	)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return affected, nil
}

func (s *UserStore) update(ctx context.Context, filter, update bson.M) error {
	update["$set"] = bson.M{"updatedAt": now()}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundMessage(userNotFound)
	}
	return nil
}

// missReason distinguishes an absent user from a failed array precondition.
func (s *UserStore) missReason(ctx context.Context, userID, conflictMsg string) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundMessage(userNotFound)
	}
	return models.NewConflictError(conflictMsg)
}
