package fstree

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadaily/internal/app/system/txn"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CascadeResult counts the nodes a cascading operation changed.
type CascadeResult struct {
	Folders int64 `json:"folders"`
	Files   int64 `json:"files"`
}

// subtree returns folderID and the IDs of every folder beneath it,
// whatever their state. It walks parent_id one level at a time with a
// worklist, so depth is bounded only by the data, not the stack.
func (e *Engine) subtree(ctx context.Context, folderID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{folderID}
	seen := map[primitive.ObjectID]bool{folderID: true}
	frontier := []primitive.ObjectID{folderID}

	for len(frontier) > 0 {
		children, err := e.folders.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("list subfolders: %w", err)
		}
		frontier = frontier[:0:0]
		for _, c := range children {
			if seen[c] {
				continue
			}
			seen[c] = true
			ids = append(ids, c)
			frontier = append(frontier, c)
		}
	}
	return ids, nil
}

// SoftDelete tombstones a node. For a folder the whole subtree is
// tombstoned in one transaction. Items lists are left intact so Restore can
// bring the subtree back as it was. Deleting a node that is already
// tombstoned re-applies the cascade, completing any subtree left mixed.
func (e *Engine) SoftDelete(ctx context.Context, kind models.ItemKind, id, callerID primitive.ObjectID) (CascadeResult, error) {
	_, unlock, err := e.begin(ctx, kind, id, callerID, anyState)
	if err != nil {
		return CascadeResult{}, err
	}
	defer unlock()

	res, err := e.setDeleted(ctx, kind, id, true)
	if err != nil {
		return CascadeResult{}, err
	}

	e.log.Info("explorer node deleted",
		zap.String("kind", string(kind)),
		zap.String("id", id.Hex()),
		zap.Int64("folders", res.Folders),
		zap.Int64("files", res.Files))
	return res, nil
}

// setDeleted runs setDeletedTx in its own transaction.
func (e *Engine) setDeleted(ctx context.Context, kind models.ItemKind, id primitive.ObjectID, deleted bool) (CascadeResult, error) {
	var res CascadeResult
	err := txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		var err error
		res, err = e.setDeletedTx(ctx, kind, id, deleted)
		return err
	})
	return res, err
}

// Restore returns a tombstoned node to active. For a folder the whole
// subtree is restored. If the node's parent is itself tombstoned or gone,
// the node is moved to the root level so it is reachable again.
func (e *Engine) Restore(ctx context.Context, kind models.ItemKind, id, callerID primitive.ObjectID) (CascadeResult, error) {
	n, unlock, err := e.begin(ctx, kind, id, callerID, mustBeTombstoned)
	if err != nil {
		return CascadeResult{}, err
	}
	defer unlock()

	reroot := false
	if n.parentID != nil {
		parent, err := e.load(ctx, models.ItemFolder, *n.parentID)
		switch {
		case err == nil:
			reroot = parent.deleted
		case isNotFound(err):
			reroot = true
		default:
			return CascadeResult{}, err
		}
	}

	var res CascadeResult
	err = txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		if reroot {
			if err := e.reroot(ctx, n); err != nil {
				return err
			}
		}
		var err error
		res, err = e.setDeletedTx(ctx, kind, id, false)
		return err
	})
	if err != nil {
		return CascadeResult{}, err
	}

	e.log.Info("explorer node restored",
		zap.String("kind", string(kind)),
		zap.String("id", id.Hex()),
		zap.Bool("rerooted", reroot),
		zap.Int64("folders", res.Folders),
		zap.Int64("files", res.Files))
	return res, nil
}

// setDeletedTx flips the deleted flag on a node and, for folders, on every
// descendant. Nodes already in the target state are skipped, so a repeated
// call converges instead of failing.
func (e *Engine) setDeletedTx(ctx context.Context, kind models.ItemKind, id primitive.ObjectID, deleted bool) (CascadeResult, error) {
	var res CascadeResult
	if kind == models.ItemFile {
		if err := e.files.SetDeleted(ctx, id, deleted); err != nil {
			return res, fmt.Errorf("set deleted on file %s: %w", id.Hex(), err)
		}
		res.Files = 1
		return res, nil
	}

	ids, err := e.subtree(ctx, id)
	if err != nil {
		return res, err
	}
	if res.Folders, err = e.folders.SetDeleted(ctx, ids, deleted); err != nil {
		return res, fmt.Errorf("set deleted on folders: %w", err)
	}
	if res.Files, err = e.files.SetDeletedByParents(ctx, ids, deleted); err != nil {
		return res, fmt.Errorf("set deleted on files: %w", err)
	}
	return res, nil
}

// reroot detaches n from its parent and moves it to the root level.
func (e *Engine) reroot(ctx context.Context, n node) error {
	if err := e.items.Detach(ctx, n.parentID, n.ref()); err != nil {
		return err
	}
	var err error
	if n.kind == models.ItemFolder {
		err = e.folders.SetParent(ctx, n.id, nil)
	} else {
		err = e.files.SetParent(ctx, n.id, nil)
	}
	if err != nil {
		return fmt.Errorf("move %s %s to root: %w", n.kind, n.id.Hex(), err)
	}
	return nil
}

// PermanentDelete removes a tombstoned node for good. For a folder, every
// descendant folder and file is removed too, whatever its state, and the
// folder is detached from its parent's items.
func (e *Engine) PermanentDelete(ctx context.Context, kind models.ItemKind, id, callerID primitive.ObjectID) (CascadeResult, error) {
	n, unlock, err := e.begin(ctx, kind, id, callerID, mustBeTombstoned)
	if err != nil {
		return CascadeResult{}, err
	}
	defer unlock()

	var res CascadeResult
	err = txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		res = CascadeResult{}
		if kind == models.ItemFile {
			if err := e.files.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete file %s: %w", id.Hex(), err)
			}
			res.Files = 1
			if err := e.items.Detach(ctx, n.parentID, n.ref()); err != nil {
				return err
			}
			return e.folders.PullItemIDs(ctx, []primitive.ObjectID{id})
		}

		ids, err := e.subtree(ctx, id)
		if err != nil {
			return err
		}
		fileIDs, err := e.files.IDsByParents(ctx, ids)
		if err != nil {
			return fmt.Errorf("list files to purge: %w", err)
		}
		if res.Files, err = e.files.DeleteByParents(ctx, ids); err != nil {
			return fmt.Errorf("purge files: %w", err)
		}
		if res.Folders, err = e.folders.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("purge folders: %w", err)
		}
		if err := e.items.Detach(ctx, n.parentID, n.ref()); err != nil {
			return err
		}
		// Drop any stray references to purged nodes held elsewhere.
		if err := e.folders.PullItemIDs(ctx, append(ids, fileIDs...)); err != nil {
			return fmt.Errorf("prune references: %w", err)
		}
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}

	e.log.Info("explorer node purged",
		zap.String("kind", string(kind)),
		zap.String("id", id.Hex()),
		zap.Int64("folders", res.Folders),
		zap.Int64("files", res.Files))
	return res, nil
}
