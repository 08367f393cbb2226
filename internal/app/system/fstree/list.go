package fstree

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadaily/internal/app/store/file"
	"github.com/dalemusser/stratadaily/internal/app/store/folder"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FolderView is a folder with its items resolved to the active children
// they name. Items shadows the raw references of the embedded folder.
type FolderView struct {
	models.Folder
	Items []Entry `json:"items"`
}

// RootListing is the caller's root level.
type RootListing struct {
	Folders []FolderView  `json:"folders"`
	Files   []models.File `json:"files"`
}

// ListRoot returns the caller's active root-level folders, each with its
// resolved items, and active root-level files.
func (e *Engine) ListRoot(ctx context.Context, callerID primitive.ObjectID) (*RootListing, error) {
	roots, err := e.folders.ListByParent(ctx, callerID, nil, folder.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	resolved, err := e.items.ResolveMany(ctx, roots)
	if err != nil {
		return nil, err
	}
	files, err := e.files.ListByParent(ctx, callerID, nil, file.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list root files: %w", err)
	}

	out := &RootListing{
		Folders: make([]FolderView, 0, len(roots)),
		Files:   files,
	}
	if out.Files == nil {
		out.Files = []models.File{}
	}
	for _, f := range roots {
		out.Folders = append(out.Folders, FolderView{Folder: f, Items: resolved[f.ID]})
	}
	return out, nil
}

// GetFolder returns an active folder with its resolved items.
func (e *Engine) GetFolder(ctx context.Context, id, callerID primitive.ObjectID) (*FolderView, error) {
	f, err := e.folders.GetByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil, notFound(models.ItemFolder)
		}
		return nil, fmt.Errorf("load folder %s: %w", id.Hex(), err)
	}
	if err := authz.RequireOwner(f.OwnerID, callerID); err != nil {
		return nil, err
	}
	if f.Deleted {
		return nil, notFound(models.ItemFolder)
	}

	items, err := e.items.Resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FolderView{Folder: *f, Items: items}, nil
}

// GetFile returns an active file, including its content.
func (e *Engine) GetFile(ctx context.Context, id, callerID primitive.ObjectID) (*models.File, error) {
	f, err := e.files.GetByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil, notFound(models.ItemFile)
		}
		return nil, fmt.Errorf("load file %s: %w", id.Hex(), err)
	}
	if err := authz.RequireOwner(f.OwnerID, callerID); err != nil {
		return nil, err
	}
	if f.Deleted {
		return nil, notFound(models.ItemFile)
	}
	return f, nil
}

// ListRootFiles returns the caller's active root-level files.
func (e *Engine) ListRootFiles(ctx context.Context, callerID primitive.ObjectID) ([]models.File, error) {
	files, err := e.files.ListByParent(ctx, callerID, nil, file.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list root files: %w", err)
	}
	if files == nil {
		files = []models.File{}
	}
	return files, nil
}

// ListFiles returns every active file the caller owns, at any depth.
func (e *Engine) ListFiles(ctx context.Context, callerID primitive.ObjectID) ([]models.File, error) {
	files, err := e.files.ListByOwner(ctx, callerID, file.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if files == nil {
		files = []models.File{}
	}
	return files, nil
}

// DeletedFolders returns the trash view of the caller's folders: tombstoned
// folders whose parent is not tombstoned. Their descendants come back with
// them on restore and are not listed separately.
func (e *Engine) DeletedFolders(ctx context.Context, callerID primitive.ObjectID) ([]models.Folder, error) {
	deleted, err := e.folders.ListByOwner(ctx, callerID, folder.ListOptions{Deleted: true, SortBy: "updated_at", SortOrder: -1})
	if err != nil {
		return nil, fmt.Errorf("list deleted folders: %w", err)
	}
	inTrash := make(map[primitive.ObjectID]bool, len(deleted))
	for _, f := range deleted {
		inTrash[f.ID] = true
	}

	out := make([]models.Folder, 0, len(deleted))
	for _, f := range deleted {
		if f.ParentID == nil || !inTrash[*f.ParentID] {
			out = append(out, f)
		}
	}
	return out, nil
}

// DeletedFiles returns the trash view of the caller's files: tombstoned
// files that are not inside a tombstoned folder.
func (e *Engine) DeletedFiles(ctx context.Context, callerID primitive.ObjectID) ([]models.File, error) {
	deleted, err := e.files.ListByOwner(ctx, callerID, file.ListOptions{Deleted: true, SortBy: "created_at", SortOrder: -1})
	if err != nil {
		return nil, fmt.Errorf("list deleted files: %w", err)
	}

	var parentIDs []primitive.ObjectID
	for _, f := range deleted {
		if f.ParentID != nil {
			parentIDs = append(parentIDs, *f.ParentID)
		}
	}
	parents, err := e.folders.GetMany(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("load parents of deleted files: %w", err)
	}
	parentDeleted := make(map[primitive.ObjectID]bool, len(parents))
	for _, p := range parents {
		parentDeleted[p.ID] = p.Deleted
	}

	out := make([]models.File, 0, len(deleted))
	for _, f := range deleted {
		if f.ParentID == nil || !parentDeleted[*f.ParentID] {
			out = append(out, f)
		}
	}
	return out, nil
}

// TreeNode is one node of the nested explorer view.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	IsFolder bool        `json:"isFolder"`
	Items    []*TreeNode `json:"items"`
}

// Tree returns the caller's whole active tree as nested nodes under a
// synthetic "root" folder. Each level lists folders before files, each in
// folded-name order. The tree is built from parent_id alone.
func (e *Engine) Tree(ctx context.Context, callerID primitive.ObjectID) (*TreeNode, error) {
	folders, err := e.folders.ListByOwner(ctx, callerID, folder.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	files, err := e.files.ListByOwner(ctx, callerID, file.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	root := &TreeNode{ID: "root", Name: "root", IsFolder: true, Items: []*TreeNode{}}
	nodes := make(map[primitive.ObjectID]*TreeNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &TreeNode{ID: f.ID.Hex(), Name: f.Name, IsFolder: true, Items: []*TreeNode{}}
	}

	parentOf := func(p *primitive.ObjectID) *TreeNode {
		if p == nil {
			return root
		}
		// Nodes under a missing or tombstoned parent are not reachable.
		return nodes[*p]
	}
	for _, f := range folders {
		if parent := parentOf(f.ParentID); parent != nil {
			parent.Items = append(parent.Items, nodes[f.ID])
		}
	}
	for _, f := range files {
		if parent := parentOf(f.ParentID); parent != nil {
			parent.Items = append(parent.Items, &TreeNode{ID: f.ID.Hex(), Name: f.Name, IsFolder: false, Items: []*TreeNode{}})
		}
	}

	return root, nil
}
