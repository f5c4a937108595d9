package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanote/notes/backend/go-services/internal/note"
)

// MongoRepo implements Repository on a MongoDB collection. A unique index on
// "slug" enforces slug uniqueness; authors are not referenced by the store, so
// cascading deletes go through DeleteByAuthor.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure note indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, n *note.Note) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, n); err != nil {
		return mapMongoErr(err)
	}
	return nil
}

func (m *MongoRepo) GetBySlug(ctx context.Context, slug string) (*note.Note, error) {
	var n note.Note
	if err := m.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&n); err != nil {
		return nil, mapMongoErr(err)
	}
	return &n, nil
}

func (m *MongoRepo) ListByAuthor(ctx context.Context, authorID string) ([]*note.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"authorId": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*note.Note{}
	for cur.Next(ctx) {
		var n note.Note
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, n *note.Note) error {
	n.UpdatedAt = time.Now().UTC()
	set := bson.M{"title": n.Title, "text": n.Text, "slug": n.Slug, "updatedAt": n.UpdatedAt}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": n.ID}, bson.M{"$set": set})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return note.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"authorId": authorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) Count(ctx context.Context) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{})
}

func mapMongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return note.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return note.ErrSlugTaken
	}
	return err
}
