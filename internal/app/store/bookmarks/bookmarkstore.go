// internal/app/store/bookmarks/bookmarkstore.go
package bookmarkstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/store/storeutil"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the bookmarks collection.
const Collection = "bookmarks"

// ErrDuplicateURL is returned when the user already bookmarked the URL.
var ErrDuplicateURL = errors.New("url is already bookmarked")

// Store provides access to the bookmarks collection. Every query is scoped
// to an owner; another user's bookmark behaves as missing.
type Store struct {
	c *mongo.Collection
}

// New creates a new bookmark store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Input holds the editable fields of a bookmark.
type Input struct {
	Title    string
	URL      string
	Labels   []string
	Category string
}

// Create inserts a bookmark. URLs are unique per owner.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, input Input) (*models.Bookmark, error) {
	now := time.Now().UTC()
	labels := input.Labels
	if labels == nil {
		labels = []string{}
	}
	b := models.Bookmark{
		ID:        primitive.NewObjectID(),
		Title:     input.Title,
		URL:       input.URL,
		Labels:    labels,
		Category:  input.Category,
		CreatedBy: ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateURL
		}
		return nil, err
	}
	return &b, nil
}

// Patch holds the optional bookmark fields. nil means unchanged.
type Patch struct {
	Title    *string
	URL      *string
	Labels   *[]string
	Category *string
}

// Update applies p to the owner's bookmark. Returns mongo.ErrNoDocuments if
// the owner has no such bookmark and ErrDuplicateURL if the new URL clashes.
func (s *Store) Update(ctx context.Context, ownerID, id primitive.ObjectID, p Patch) (*models.Bookmark, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.URL != nil {
		set["url"] = *p.URL
	}
	if p.Labels != nil {
		labels := *p.Labels
		if labels == nil {
			labels = []string{}
		}
		set["labels"] = labels
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}

	var b models.Bookmark
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "created_by": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateURL
		}
		return nil, err
	}
	return &b, nil
}

// Delete removes the owner's bookmark. Returns mongo.ErrNoDocuments if the
// owner has no such bookmark.
func (s *Store) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "created_by": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Page is one page of a user's bookmarks.
type Page struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
	Page      int64             `json:"page"`
	Limit     int64             `json:"limit"`
	Total     int64             `json:"total"`
	Pages     int64             `json:"pages"`
}

// List returns a 1-based page of the owner's bookmarks, newest first.
// Limits above storeutil.MaxLimit are capped.
func (s *Store) List(ctx context.Context, ownerID primitive.ObjectID, page, limit int64) (*Page, error) {
	filter := bson.M{"created_by": ownerID}
	p := storeutil.Pager{Page: page, Limit: limit}.Normalize()
	opts := p.FindOptions().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := &Page{Bookmarks: []models.Bookmark{}, Page: p.Page, Limit: p.Limit, Total: total, Pages: p.Pages(total)}
	if err := cur.All(ctx, &out.Bookmarks); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByOwner returns the number of bookmarks owned by a user.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_by": ownerID})
}
