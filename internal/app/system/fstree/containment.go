package fstree

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadaily/internal/app/store/file"
	"github.com/dalemusser/stratadaily/internal/app/store/folder"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Containment maintains and resolves the ordered items list each folder
// keeps of its direct children.
type Containment struct {
	folders *folder.Store
	files   *file.Store
}

// NewContainment creates a containment index over the given stores.
func NewContainment(folders *folder.Store, files *file.Store) *Containment {
	return &Containment{folders: folders, files: files}
}

// Attach records ref in the parent's items. A nil parent (root level) is a
// no-op. Attaching an existing entry does not duplicate it.
func (c *Containment) Attach(ctx context.Context, parentID *primitive.ObjectID, ref models.ItemRef) error {
	if parentID == nil {
		return nil
	}
	if err := c.folders.AddItem(ctx, *parentID, ref); err != nil {
		return fmt.Errorf("attach %s %s to %s: %w", ref.ItemType, ref.ItemID.Hex(), parentID.Hex(), err)
	}
	return nil
}

// Detach removes ref from the parent's items. A nil parent is a no-op.
func (c *Containment) Detach(ctx context.Context, parentID *primitive.ObjectID, ref models.ItemRef) error {
	if parentID == nil {
		return nil
	}
	if err := c.folders.RemoveItem(ctx, *parentID, ref); err != nil {
		return fmt.Errorf("detach %s %s from %s: %w", ref.ItemType, ref.ItemID.Hex(), parentID.Hex(), err)
	}
	return nil
}

// Entry is a resolved items entry: the reference plus the node it names.
// Exactly one of Folder and File is set.
type Entry struct {
	ItemType models.ItemKind    `json:"itemType"`
	ItemID   primitive.ObjectID `json:"itemId"`
	Folder   *models.Folder     `json:"folder,omitempty"`
	File     *models.File       `json:"file,omitempty"`
}

// Resolve joins a folder's items with the nodes they name, preserving
// order. Entries whose target is missing, tombstoned, owned by someone else,
// or parented elsewhere are dropped, as are repeated entries.
func (c *Containment) Resolve(ctx context.Context, f *models.Folder) ([]Entry, error) {
	out, err := c.ResolveMany(ctx, []models.Folder{*f})
	if err != nil {
		return nil, err
	}
	return out[f.ID], nil
}

// ResolveMany resolves the items of several folders with one batched lookup
// per node kind. The result is keyed by folder ID; every input folder has an
// entry, possibly empty.
func (c *Containment) ResolveMany(ctx context.Context, parents []models.Folder) (map[primitive.ObjectID][]Entry, error) {
	var folderIDs, fileIDs []primitive.ObjectID
	for _, p := range parents {
		for _, it := range p.Items {
			switch it.ItemType {
			case models.ItemFolder:
				folderIDs = append(folderIDs, it.ItemID)
			case models.ItemFile:
				fileIDs = append(fileIDs, it.ItemID)
			}
		}
	}

	subFolders, err := c.folders.GetMany(ctx, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve folders: %w", err)
	}
	files, err := c.files.GetMany(ctx, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve files: %w", err)
	}

	folderByID := make(map[primitive.ObjectID]*models.Folder, len(subFolders))
	for i := range subFolders {
		folderByID[subFolders[i].ID] = &subFolders[i]
	}
	fileByID := make(map[primitive.ObjectID]*models.File, len(files))
	for i := range files {
		fileByID[files[i].ID] = &files[i]
	}

	out := make(map[primitive.ObjectID][]Entry, len(parents))
	for _, p := range parents {
		entries := make([]Entry, 0, len(p.Items))
		seen := make(map[models.ItemRef]bool, len(p.Items))
		for _, it := range p.Items {
			if seen[it] {
				continue
			}
			seen[it] = true

			switch it.ItemType {
			case models.ItemFolder:
				sf, ok := folderByID[it.ItemID]
				if !ok || !visibleChild(p, sf.ParentID, sf.OwnerID, sf.Deleted) {
					continue
				}
				entries = append(entries, Entry{ItemType: it.ItemType, ItemID: it.ItemID, Folder: sf})
			case models.ItemFile:
				f, ok := fileByID[it.ItemID]
				if !ok || !visibleChild(p, f.ParentID, f.OwnerID, f.Deleted) {
					continue
				}
				entries = append(entries, Entry{ItemType: it.ItemType, ItemID: it.ItemID, File: f})
			}
		}
		out[p.ID] = entries
	}
	return out, nil
}

func visibleChild(parent models.Folder, childParent *primitive.ObjectID, childOwner primitive.ObjectID, childDeleted bool) bool {
	return !childDeleted &&
		childParent != nil && *childParent == parent.ID &&
		childOwner == parent.OwnerID
}
