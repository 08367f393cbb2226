package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemKind is the type of a node referenced from a folder's items list.
type ItemKind string

const (
	ItemFolder ItemKind = "folder"
	ItemFile   ItemKind = "file"
)

// Valid reports whether k is a known node kind.
func (k ItemKind) Valid() bool {
	return k == ItemFolder || k == ItemFile
}

// ItemRef is one entry in a folder's containment list.
type ItemRef struct {
	ItemType ItemKind           `bson:"item_type" json:"itemType"`
	ItemID   primitive.ObjectID `bson:"item_id" json:"itemId"`
}

// Folder is a node in a user's explorer tree.
//
// Items caches the folder's direct children in insertion order. It is kept in
// step with the children's ParentID by the explorer engine; ParentID is the
// authoritative link.
type Folder struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name      string              `bson:"name" json:"name"`
	NameCI    string              `bson:"name_ci" json:"-"`                             // folded for sorting
	ParentID  *primitive.ObjectID `bson:"parent_id" json:"parentId"`                    // nil = root level
	OwnerID   primitive.ObjectID  `bson:"owner_id" json:"ownerId"`                      // immutable
	Deleted   bool                `bson:"deleted" json:"deleted"`                       // tombstoned
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"` // set when tombstoned
	Items     []ItemRef           `bson:"items" json:"items"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// HasItem reports whether the folder's items list references the given node.
func (f *Folder) HasItem(kind ItemKind, id primitive.ObjectID) bool {
	for _, it := range f.Items {
		if it.ItemType == kind && it.ItemID == id {
			return true
		}
	}
	return false
}
