// Package folder provides storage for explorer folders.
//
// The store is deliberately lifecycle-agnostic: it reads and writes folder
// documents and their items lists, but the rules about which state a folder
// must be in for an operation live in the fstree engine.
package folder

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

// Collection is the name of the folders collection.
const Collection = "folders"

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection(Collection),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name     string
	ParentID *primitive.ObjectID
	OwnerID  primitive.ObjectID
}

// Create creates a new, active folder with an empty items list.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	now := time.Now().UTC()
	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		ParentID:  input.ParentID,
		OwnerID:   input.OwnerID,
		Items:     []models.ItemRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, folder); err != nil {
		return nil, err
	}

	return &folder, nil
}

// GetByID retrieves a folder by ID regardless of its deleted flag.
// Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetMany loads the folders with the given IDs. Missing IDs are skipped.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Folder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var folders []models.Folder
	if err := cur.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// Rename sets a folder's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetParent moves a folder under parentID (nil = root level).
func (s *Store) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"parent_id":  parentID,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetDeleted flips the deleted flag on every listed folder.
// Returns the number of folders whose flag actually changed.
func (s *Store) SetDeleted(ctx context.Context, ids []primitive.ObjectID, deleted bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}
	if !deleted {
		update = bson.M{
			"$set":   bson.M{"deleted": false, "updated_at": now},
			"$unset": bson.M{"deleted_at": ""},
		}
	}
	res, err := s.c.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "deleted": !deleted}, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteByIDs removes the listed folders outright.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ChildIDs returns the IDs of all folders whose parent_id is one of parentIDs,
// regardless of their deleted flag.
func (s *Store) ChildIDs(ctx context.Context, parentIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
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

// ListAllByParent returns every folder directly under parentID, whatever
// its owner or state, in _id order.
func (s *Store) ListAllByParent(ctx context.Context, parentID primitive.ObjectID) ([]models.Folder, error) {
	return s.find(ctx, bson.M{"parent_id": parentID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// ListOptions contains options for listing folders.
type ListOptions struct {
	Deleted   bool   // list tombstoned instead of active folders
	SortBy    string // "name", "created_at", "updated_at"
	SortOrder int    // 1 = asc, -1 = desc
}

func (o ListOptions) findOptions() *options.FindOptions {
	sortField := "name_ci"
	switch o.SortBy {
	case "created_at", "date":
		sortField = "created_at"
	case "updated_at":
		sortField = "updated_at"
	}

	sortOrder := 1
	if o.SortOrder != 0 {
		sortOrder = o.SortOrder
	}

	return options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: 1}})
}

// ListByParent returns an owner's folders within a parent folder.
// Pass nil for parentID to list root folders.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, opts ListOptions) ([]models.Folder, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"parent_id": parentID,
		"deleted":   opts.Deleted,
	}
	return s.find(ctx, filter, opts.findOptions())
}

// ListByOwner returns all of an owner's folders in the given state.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, opts ListOptions) ([]models.Folder, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID, "deleted": opts.Deleted}, opts.findOptions())
}

func (s *Store) find(ctx context.Context, filter bson.M, findOpts *options.FindOptions) ([]models.Folder, error) {
	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}

	return folders, nil
}

// GetAncestors returns all ancestors of a folder, ordered from root to immediate parent.
func (s *Store) GetAncestors(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ancestors []models.Folder

	seen := map[primitive.ObjectID]bool{folder.ID: true}
	currentParentID := folder.ParentID
	for currentParentID != nil {
		if seen[*currentParentID] {
			break // corrupt data; a cycle must not hang the caller
		}
		seen[*currentParentID] = true

		parent, err := s.GetByID(ctx, *currentParentID)
		if err != nil {
			return nil, err
		}
		ancestors = append([]models.Folder{*parent}, ancestors...)
		currentParentID = parent.ParentID
	}

	return ancestors, nil
}

// AddItem appends ref to the folder's items unless it is already present.
func (s *Store) AddItem(ctx context.Context, folderID primitive.ObjectID, ref models.ItemRef) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": folderID}, bson.M{
		"$addToSet": bson.M{"items": ref},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveItem removes every items entry matching ref from the folder.
func (s *Store) RemoveItem(ctx context.Context, folderID primitive.ObjectID, ref models.ItemRef) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": folderID}, bson.M{
		"$pull": bson.M{"items": bson.M{"item_type": ref.ItemType, "item_id": ref.ItemID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// PullItemIDs removes every items entry whose item_id is in ids, from every
// folder that holds one.
func (s *Store) PullItemIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"items.item_id": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"items": bson.M{"item_id": bson.M{"$in": ids}}}},
	)
	return err
}

// ReplaceItems overwrites the folder's items list.
func (s *Store) ReplaceItems(ctx context.Context, folderID primitive.ObjectID, items []models.ItemRef) error {
	if items == nil {
		items = []models.ItemRef{}
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": folderID}, bson.M{"$set": bson.M{
		"items":      items,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Each streams every folder in the collection to fn, in _id order.
// Iteration stops at the first error fn returns.
func (s *Store) Each(ctx context.Context, fn func(models.Folder) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var f models.Folder
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return cur.Err()
}

// CountByOwner returns the number of active folders an owner has.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID, "deleted": false})
}
