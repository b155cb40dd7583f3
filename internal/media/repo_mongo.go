package media

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "media"

// CollectionSource yields a collection, connecting lazily.
type CollectionSource interface {
	Collection(ctx context.Context, name string) (*mongo.Collection, error)
}

// MongoRepo implements Repo on the "media" collection.
type MongoRepo struct {
	Store CollectionSource
}

type mediaDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	URL          string             `bson:"url"`
	PublicID     string             `bson:"publicId"`
	ResourceType string             `bson:"resourceType"`
	Format       string             `bson:"format,omitempty"`
	Bytes        int64              `bson:"bytes"`
	CreatedBy    any                `bson:"createdBy"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (r *MongoRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return Asset{}, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	asset.CreatedAt = now
	asset.UpdatedAt = now

	doc := toMediaDoc(asset)
	doc.ID = primitive.NewObjectID()
	if _, err := col.InsertOne(ctx, doc); err != nil {
		return Asset{}, err
	}
	asset.ID = doc.ID.Hex()
	return asset, nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Asset, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Asset{}, ErrNotFound
	}
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return Asset{}, err
	}
	var doc mediaDoc
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, err
	}
	return fromMediaDoc(doc), nil
}

// List returns assets newest first, honoring limit/offset. A zero limit means no limit.
func (r *MongoRepo) List(ctx context.Context, limit, offset int) ([]Asset, error) {
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Asset{}
	for cur.Next(ctx) {
		var doc mediaDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, fromMediaDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	col, err := r.Store.Collection(ctx, mongoCollection)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// toMediaDoc stores owners that are ObjectID hex strings as ObjectIDs so they
// join against the users collection.
func toMediaDoc(a Asset) mediaDoc {
	var createdBy any = a.OwnerID
	if oid, err := primitive.ObjectIDFromHex(a.OwnerID); err == nil {
		createdBy = oid
	}
	return mediaDoc{
		URL:          a.URL,
		PublicID:     a.StorageKey,
		ResourceType: string(a.ResourceKind),
		Format:       a.Format,
		Bytes:        a.ByteSize,
		CreatedBy:    createdBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromMediaDoc(d mediaDoc) Asset {
	a := Asset{
		ID:           d.ID.Hex(),
		URL:          d.URL,
		StorageKey:   d.PublicID,
		ResourceKind: ResourceKind(d.ResourceType),
		Format:       d.Format,
		ByteSize:     d.Bytes,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	switch v := d.CreatedBy.(type) {
	case primitive.ObjectID:
		a.OwnerID = v.Hex()
	case string:
		a.OwnerID = v
	}
	return a
}

var _ Repo = (*MongoRepo)(nil)
