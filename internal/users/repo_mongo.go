package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "users"

// CollectionSource yields a collection, connecting lazily.
type CollectionSource interface {
	Collection(ctx context.Context, name string) (*mongo.Collection, error)
}

// MongoRepo implements Repo on the "users" collection. The unique email
// index is created before the first insert; a failed attempt is retried on
// the next one.
type MongoRepo struct {
	Store CollectionSource

	indexMu sync.Mutex
	indexed bool
	// createIndexes defaults to createEmailIndex.
	createIndexes func(ctx context.Context, col *mongo.Collection) error
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// EnsureIndexes creates the unique email index if this repo has not yet.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.writeCollection(ctx)
	return err
}

func (r *MongoRepo) writeCollection(ctx context.Context) (*mongo.Collection, error) {
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return nil, err
	}
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	if r.indexed {
		return col, nil
	}
	create := r.createIndexes
	if create == nil {
		create = createEmailIndex
	}
	if err := create(ctx, col); err != nil {
		return nil, fmt.Errorf("ensure users indexes: %w", err)
	}
	r.indexed = true
	return col, nil
}

func createEmailIndex(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, user User) (User, error) {
	col, err := r.writeCollection(ctx)
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return fromUserDoc(doc), nil
}

func (r *MongoRepo) GetByID(ctx context.Context, userID string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (User, error) {
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return User{}, err
	}
	var doc userDoc
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return fromUserDoc(doc), nil
}

func fromUserDoc(d userDoc) User {
	return User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

var _ Repo = (*MongoRepo)(nil)
