// Package file provides storage for explorer files.
package file

import (
	"context"
	"time"

	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the files collection.
const Collection = "files"

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection(Collection),
	}
}

// CreateInput contains the input for creating a file.
type CreateInput struct {
	Name        string
	ParentID    *primitive.ObjectID
	OwnerID     primitive.ObjectID
	Data        string
	ContentType string
}

// Create creates a new, active file.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now().UTC()
	file := models.File{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		NameCI:      text.Fold(input.Name),
		ParentID:    input.ParentID,
		OwnerID:     input.OwnerID,
		Data:        input.Data,
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, file); err != nil {
		return nil, err
	}

	return &file, nil
}

// GetByID retrieves a file by ID regardless of its deleted flag.
// Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// GetMany loads the files with the given IDs. Missing IDs are skipped.
// Data is not loaded; listings never need content.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	findOpts := options.Find().SetProjection(bson.M{"data": 0})
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOpts)
}

// UpdateInput contains the input for updating a file. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name *string
	Data *string
}

// Update updates a file's name and/or content.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}

	if input.Name != nil {
		set["name"] = *input.Name
		set["name_ci"] = text.Fold(*input.Name)
	}
	if input.Data != nil {
		set["data"] = *input.Data
		set["size"] = int64(len(*input.Data))
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// SetParent moves a file under parentID (nil = root level).
func (s *Store) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"parent_id":  parentID,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

func deletedUpdate(deleted bool) bson.M {
	now := time.Now().UTC()
	if deleted {
		return bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}
	}
	return bson.M{
		"$set":   bson.M{"deleted": false, "updated_at": now},
		"$unset": bson.M{"deleted_at": ""},
	}
}

// SetDeleted flips the deleted flag on a single file.
func (s *Store) SetDeleted(ctx context.Context, id primitive.ObjectID, deleted bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "deleted": !deleted}, deletedUpdate(deleted))
	return err
}

// SetDeletedByParents flips the deleted flag on every file whose parent is in
// parentIDs. Returns the number of files whose flag changed.
func (s *Store) SetDeletedByParents(ctx context.Context, parentIDs []primitive.ObjectID, deleted bool) (int64, error) {
	if len(parentIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"parent_id": bson.M{"$in": parentIDs}, "deleted": !deleted}
	res, err := s.c.UpdateMany(ctx, filter, deletedUpdate(deleted))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete deletes a single file.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByParents deletes every file whose parent is in parentIDs.
func (s *Store) DeleteByParents(ctx context.Context, parentIDs []primitive.ObjectID) (int64, error) {
	if len(parentIDs) == 0 {
		return 0, nil
	}
	result, err := s.c.DeleteMany(ctx, bson.M{"parent_id": bson.M{"$in": parentIDs}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// IDsByParents returns the IDs of every file whose parent is in parentIDs.
func (s *Store) IDsByParents(ctx context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	findOpts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"parent_id": bson.M{"$in": parentIDs}}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// ListAllByParent returns every file directly under parentID, whatever
// its owner or state, in _id order. Data is not loaded.
func (s *Store) ListAllByParent(ctx context.Context, parentID primitive.ObjectID) ([]models.File, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	return s.find(ctx, bson.M{"parent_id": parentID}, findOpts)
}

// ListOptions contains options for listing files.
type ListOptions struct {
	Deleted   bool   // list tombstoned instead of active files
	SortBy    string // "name", "created_at", "size"
	SortOrder int    // 1 = asc, -1 = desc
}

func (o ListOptions) findOptions() *options.FindOptions {
	sortField := "name_ci"
	switch o.SortBy {
	case "created_at", "date":
		sortField = "created_at"
	case "size":
		sortField = "size"
	}

	sortOrder := 1
	if o.SortOrder != 0 {
		sortOrder = o.SortOrder
	}

	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
}

// ListByParent returns an owner's files within a folder.
// Pass nil for parentID to list root-level files.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, opts ListOptions) ([]models.File, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"parent_id": parentID,
		"deleted":   opts.Deleted,
	}
	return s.find(ctx, filter, opts.findOptions())
}

// ListByOwner returns all of an owner's files in the given state.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, opts ListOptions) ([]models.File, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID, "deleted": opts.Deleted}, opts.findOptions())
}

func (s *Store) find(ctx context.Context, filter bson.M, findOpts *options.FindOptions) ([]models.File, error) {
	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}

	return files, nil
}

// Each streams every file (without content) to fn, in _id order.
func (s *Store) Each(ctx context.Context, fn func(models.File) error) error {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.c.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var f models.File
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return cur.Err()
}

// CountByOwner returns the number of active files an owner has.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID, "deleted": false})
}
