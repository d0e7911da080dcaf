package mongostore

import (
	"context"

	"thoughtnet/internal/models"
	"thoughtnet/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const thoughtNotFound = "Thought not found"

// ThoughtStore is a MongoDB-backed repository.ThoughtRepository.
type ThoughtStore struct {
	coll *mongo.Collection
}

var _ repository.ThoughtRepository = (*ThoughtStore)(nil)

// NewThoughtStore returns a ThoughtStore over the thoughts collection of db.
func NewThoughtStore(db *mongo.Database) *ThoughtStore {
	return &ThoughtStore{coll: db.Collection(ThoughtsCollection)}
}

func (s *ThoughtStore) GetByID(ctx context.Context, id string) (*models.Thought, error) {
	var thought models.Thought
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thought); err != nil {
		return nil, translate(err, thoughtNotFound)
	}
	normalize(&thought)
	return &thought, nil
}

func (s *ThoughtStore) GetByIDs(ctx context.Context, ids []string) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0, 0)
}

func (s *ThoughtStore) List(ctx context.Context, limit, offset int) ([]models.Thought, error) {
	return s.find(ctx, bson.M{}, limit, offset)
}

func (s *ThoughtStore) find(ctx context.Context, filter bson.M, limit, offset int) ([]models.Thought, error) {
	cur, err := s.coll.Find(ctx, filter, findOptions(limit, offset))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	thoughts := []models.Thought{}
	if err := cur.All(ctx, &thoughts); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range thoughts {
		normalize(&thoughts[i])
	}
	return thoughts, nil
}

func (s *ThoughtStore) Create(ctx context.Context, thought *models.Thought) error {
	if err := thought.BeforeCreate(nil); err != nil {
		return models.NewInternalError(err)
	}
	thought.CreatedAt = now()
	thought.UpdatedAt = thought.CreatedAt
	if _, err := s.coll.InsertOne(ctx, thought); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ThoughtStore) UpdateText(ctx context.Context, id, text string) (*models.Thought, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"thoughtText": text, "updatedAt": now()}})
}

func (s *ThoughtStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundMessage(thoughtNotFound)
	}
	return nil
}

func (s *ThoughtStore) DeleteOwned(ctx context.Context, username string, ids []string) ([]string, error) {
	filter := bson.M{"username": username}
	if len(ids) > 0 {
		filter = bson.M{"$or": bson.A{
			bson.M{"username": username},
			bson.M{"_id": bson.M{"$in": ids}},
		}}
	}

	owned, err := s.find(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}
	deleted := make([]string, 0, len(owned))
	for _, t := range owned {
		deleted = append(deleted, t.ID)
	}
	if len(deleted) == 0 {
		return deleted, nil
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": deleted}}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return deleted, nil
}

func (s *ThoughtStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ThoughtStore) AddReaction(ctx context.Context, thoughtID string, reaction models.Reaction) (*models.Thought, error) {
	return s.findOneAndUpdate(ctx, thoughtID, bson.M{
		"$push": bson.M{"reactions": reaction},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (s *ThoughtStore) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*models.Thought, error) {
	return s.findOneAndUpdate(ctx, thoughtID, bson.M{
		"$pull": bson.M{"reactions": bson.M{"reactionId": reactionID}},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (s *ThoughtStore) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*models.Thought, error) {
	var thought models.Thought
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&thought); err != nil {
		return nil, translate(err, thoughtNotFound)
	}
	normalize(&thought)
	return &thought, nil
}

func normalize(t *models.Thought) {
	if t.Reactions == nil {
		t.Reactions = []models.Reaction{}
	}
}
