// Package fstree implements the explorer's tree operations: creating,
// renaming, moving, soft-deleting, restoring, and purging folders and files.
//
// Folders and files are linked by parent_id. Each folder also caches its
// direct children in an ordered items list (see Containment). The engine
// keeps both in step:
//
//   - every mutation of a tree runs under that tree's lock, keyed by the
//     top-level folder, so overlapping operations never interleave
//   - every cascade runs inside a single transaction (txn.Run), so a
//     failure never leaves a half-deleted subtree
//   - descendants are always found by parent_id, never through the items
//     cache, so a drifted cache cannot hide nodes from a cascade
//
// Lifecycle per node: active -> tombstoned -> active (Restore) or purged
// (PermanentDelete). A node in the wrong state for an operation is reported
// as not found.
package fstree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratadaily/internal/app/store/file"
	"github.com/dalemusser/stratadaily/internal/app/store/folder"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/txn"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxNameLength bounds folder and file names.
const MaxNameLength = 255

// lockRetries bounds how often lockNodes re-resolves tree roots when a
// concurrent move changes them while it waits.
const lockRetries = 5

// Engine performs tree operations for all users. It is safe for concurrent
// use; create one per process so the tree locks are shared.
type Engine struct {
	db      *mongo.Database
	folders *folder.Store
	files   *file.Store
	items   *Containment
	locks   *lockMap
	log     *zap.Logger
}

// New creates an engine over db.
func New(db *mongo.Database, logger *zap.Logger) *Engine {
	folders := folder.New(db)
	files := file.New(db)
	return &Engine{
		db:      db,
		folders: folders,
		files:   files,
		items:   NewContainment(folders, files),
		locks:   newLockMap(),
		log:     logger,
	}
}

// Containment returns the engine's containment index.
func (e *Engine) Containment() *Containment {
	return e.items
}

// node is the kind-independent view of a folder or file the engine needs
// for checks and locking.
type node struct {
	kind     models.ItemKind
	id       primitive.ObjectID
	parentID *primitive.ObjectID
	ownerID  primitive.ObjectID
	deleted  bool
}

func (n node) ref() models.ItemRef {
	return models.ItemRef{ItemType: n.kind, ItemID: n.id}
}

func kindLabel(kind models.ItemKind) string {
	if kind == models.ItemFolder {
		return "Folder"
	}
	return "File"
}

func notFound(kind models.ItemKind) error {
	return apperr.NotFound(kindLabel(kind) + " not found")
}

// load reads a node of either kind. A missing node is NotFound.
func (e *Engine) load(ctx context.Context, kind models.ItemKind, id primitive.ObjectID) (node, error) {
	switch kind {
	case models.ItemFolder:
		f, err := e.folders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return node{}, notFound(kind)
			}
			return node{}, fmt.Errorf("load folder %s: %w", id.Hex(), err)
		}
		return node{kind: kind, id: f.ID, parentID: f.ParentID, ownerID: f.OwnerID, deleted: f.Deleted}, nil
	case models.ItemFile:
		f, err := e.files.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return node{}, notFound(kind)
			}
			return node{}, fmt.Errorf("load file %s: %w", id.Hex(), err)
		}
		return node{kind: kind, id: f.ID, parentID: f.ParentID, ownerID: f.OwnerID, deleted: f.Deleted}, nil
	default:
		return node{}, apperr.Validation(fmt.Sprintf("unknown item type %q", kind))
	}
}

// lifecycle is the state an operation requires its target to be in.
type lifecycle int

const (
	mustBeActive lifecycle = iota
	mustBeTombstoned
	anyState
)

func (l lifecycle) check(n node) error {
	switch {
	case l == mustBeActive && n.deleted:
		return notFound(n.kind)
	case l == mustBeTombstoned && !n.deleted:
		return apperr.NotFound(kindLabel(n.kind) + " not found in trash")
	}
	return nil
}

// begin locks the node's tree, then loads it and checks ownership and
// lifecycle state under the lock. On success the caller must call unlock.
func (e *Engine) begin(ctx context.Context, kind models.ItemKind, id, callerID primitive.ObjectID, want lifecycle, extra ...primitive.ObjectID) (node, func(), error) {
	unlock, err := e.lockNodes(ctx, []models.ItemRef{{ItemType: kind, ItemID: id}}, extra...)
	if err != nil {
		return node{}, nil, err
	}

	n, err := e.load(ctx, kind, id)
	if err == nil {
		err = authz.RequireOwner(n.ownerID, callerID)
	}
	if err == nil {
		err = want.check(n)
	}
	if err != nil {
		unlock()
		return node{}, nil, err
	}
	return n, unlock, nil
}

// lockNodes takes the tree locks for every referenced node plus any extra
// folders (by their trees). Roots are resolved before locking and again
// after; if a concurrent move changed them, the locks are dropped and the
// resolution retried.
func (e *Engine) lockNodes(ctx context.Context, refs []models.ItemRef, extraFolders ...primitive.ObjectID) (func(), error) {
	resolve := func() ([]primitive.ObjectID, error) {
		roots := make([]primitive.ObjectID, 0, len(refs)+len(extraFolders))
		for _, r := range refs {
			root, err := e.rootOf(ctx, r.ItemType, r.ItemID)
			if err != nil {
				return nil, err
			}
			roots = append(roots, root)
		}
		for _, id := range extraFolders {
			root, err := e.rootOf(ctx, models.ItemFolder, id)
			if err != nil {
				return nil, err
			}
			roots = append(roots, root)
		}
		return uniqueSorted(roots), nil
	}

	return lockStable(e.locks.Lock, resolve)
}

// lockStable locks the roots resolve reports, then resolves again under the
// locks. Different roots mean a concurrent move re-homed a node; the locks
// are dropped and the attempt repeated. After lockRetries such races the
// operation fails with a Conflict rather than run under a stale lock.
func lockStable(lock func(...primitive.ObjectID) func(), resolve func() ([]primitive.ObjectID, error)) (func(), error) {
	roots, err := resolve()
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		unlock := lock(roots...)
		again, err := resolve()
		if err != nil {
			unlock()
			return nil, err
		}
		if sameIDs(roots, again) {
			return unlock, nil
		}
		unlock()
		if attempt >= lockRetries {
			return nil, apperr.Conflict("The folder tree changed during the operation; please retry")
		}
		roots = again
	}
}

// rootOf returns the lock key for a node: the ID of its top-level folder,
// or the node's own ID when it sits at the root level. A broken parent chain
// ends at the last folder that exists.
func (e *Engine) rootOf(ctx context.Context, kind models.ItemKind, id primitive.ObjectID) (primitive.ObjectID, error) {
	if kind == models.ItemFile {
		f, err := e.files.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return primitive.NilObjectID, notFound(kind)
			}
			return primitive.NilObjectID, fmt.Errorf("load file %s: %w", id.Hex(), err)
		}
		if f.ParentID == nil {
			return f.ID, nil
		}
		root, err := e.rootOf(ctx, models.ItemFolder, *f.ParentID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return f.ID, nil // orphan; reconciliation re-roots it
		}
		return root, err
	}

	cur := id
	seen := map[primitive.ObjectID]bool{}
	for {
		f, err := e.folders.GetByID(ctx, cur)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				if cur == id {
					return primitive.NilObjectID, notFound(kind)
				}
				return cur, nil
			}
			return primitive.NilObjectID, fmt.Errorf("load folder %s: %w", cur.Hex(), err)
		}
		seen[f.ID] = true
		if f.ParentID == nil || seen[*f.ParentID] {
			return f.ID, nil
		}
		cur = *f.ParentID
	}
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cleanName trims and validates a node name.
func cleanName(kind models.ItemKind, name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name,
		validation.Required.Error(kindLabel(kind)+" name is required"),
		validation.RuneLength(1, MaxNameLength).Error(fmt.Sprintf("%s name must be at most %d characters", kindLabel(kind), MaxNameLength)),
	)
	if err != nil {
		return "", apperr.Validation(err.Error(), apperr.FieldError{Field: "name", Message: err.Error()})
	}
	return name, nil
}

// activeParent loads a prospective parent folder. Anything other than an
// active folder owned by callerID is reported as a validation error.
func (e *Engine) activeParent(ctx context.Context, parentID, callerID primitive.ObjectID) (*models.Folder, error) {
	parent, err := e.folders.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, parentNotFound()
		}
		return nil, fmt.Errorf("load parent folder %s: %w", parentID.Hex(), err)
	}
	if parent.Deleted || parent.OwnerID != callerID {
		return nil, parentNotFound()
	}
	return parent, nil
}

func parentNotFound() error {
	return apperr.Validation("Parent folder not found", apperr.FieldError{Field: "parentId", Message: "parent folder not found"})
}

// lockParent locks the tree a new child will join. Root-level creates touch
// no existing tree and need no lock.
func (e *Engine) lockParent(ctx context.Context, parentID *primitive.ObjectID) (func(), error) {
	if parentID == nil {
		return func() {}, nil
	}
	unlock, err := e.lockNodes(ctx, nil, *parentID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, parentNotFound()
		}
		return nil, err
	}
	return unlock, nil
}

// CreateFolderInput contains the input for creating a folder.
type CreateFolderInput struct {
	Name     string
	ParentID *primitive.ObjectID
	OwnerID  primitive.ObjectID
}

// CreateFolder creates a folder and attaches it to its parent's items.
func (e *Engine) CreateFolder(ctx context.Context, in CreateFolderInput) (*models.Folder, error) {
	name, err := cleanName(models.ItemFolder, in.Name)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if in.ParentID != nil {
		if _, err := e.activeParent(ctx, *in.ParentID, in.OwnerID); err != nil {
			return nil, err
		}
	}

	var created *models.Folder
	err = txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		f, err := e.folders.Create(ctx, folder.CreateInput{Name: name, ParentID: in.ParentID, OwnerID: in.OwnerID})
		if err != nil {
			return fmt.Errorf("insert folder: %w", err)
		}
		if err := e.items.Attach(ctx, in.ParentID, models.ItemRef{ItemType: models.ItemFolder, ItemID: f.ID}); err != nil {
			return err
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("folder created",
		zap.String("folder_id", created.ID.Hex()),
		zap.String("owner_id", in.OwnerID.Hex()))
	return created, nil
}

// CreateFileInput contains the input for creating a file.
type CreateFileInput struct {
	Name        string
	ParentID    *primitive.ObjectID
	OwnerID     primitive.ObjectID
	Data        string
	ContentType string
}

// CreateFile creates a file and attaches it to its parent's items.
func (e *Engine) CreateFile(ctx context.Context, in CreateFileInput) (*models.File, error) {
	name, err := cleanName(models.ItemFile, in.Name)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if in.ParentID != nil {
		if _, err := e.activeParent(ctx, *in.ParentID, in.OwnerID); err != nil {
			return nil, err
		}
	}

	var created *models.File
	err = txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		f, err := e.files.Create(ctx, file.CreateInput{
			Name:        name,
			ParentID:    in.ParentID,
			OwnerID:     in.OwnerID,
			Data:        in.Data,
			ContentType: in.ContentType,
		})
		if err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		if err := e.items.Attach(ctx, in.ParentID, models.ItemRef{ItemType: models.ItemFile, ItemID: f.ID}); err != nil {
			return err
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug("file created",
		zap.String("file_id", created.ID.Hex()),
		zap.String("owner_id", in.OwnerID.Hex()))
	return created, nil
}

// RenameFolder renames an active folder owned by callerID.
func (e *Engine) RenameFolder(ctx context.Context, id primitive.ObjectID, newName string, callerID primitive.ObjectID) (*models.Folder, error) {
	name, err := cleanName(models.ItemFolder, newName)
	if err != nil {
		return nil, err
	}

	_, unlock, err := e.begin(ctx, models.ItemFolder, id, callerID, mustBeActive)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := e.folders.Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename folder %s: %w", id.Hex(), err)
	}
	return e.folders.GetByID(ctx, id)
}

// FileUpdate lists the file fields to change. Nil fields are left alone.
type FileUpdate struct {
	Name *string
	Data *string
}

// UpdateFile renames and/or rewrites an active file owned by callerID.
func (e *Engine) UpdateFile(ctx context.Context, id primitive.ObjectID, upd FileUpdate, callerID primitive.ObjectID) (*models.File, error) {
	if upd.Name == nil && upd.Data == nil {
		return nil, apperr.Validation("Nothing to update: provide name or data")
	}
	in := file.UpdateInput{Data: upd.Data}
	if upd.Name != nil {
		name, err := cleanName(models.ItemFile, *upd.Name)
		if err != nil {
			return nil, err
		}
		in.Name = &name
	}

	_, unlock, err := e.begin(ctx, models.ItemFile, id, callerID, mustBeActive)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := e.files.Update(ctx, id, in); err != nil {
		return nil, fmt.Errorf("update file %s: %w", id.Hex(), err)
	}
	return e.files.GetByID(ctx, id)
}

// Move reparents an active node under newParentID (nil = root level).
// Folders cannot be moved into their own subtree.
func (e *Engine) Move(ctx context.Context, kind models.ItemKind, id primitive.ObjectID, newParentID *primitive.ObjectID, callerID primitive.ObjectID) error {
	var extra []primitive.ObjectID
	if newParentID != nil {
		if kind == models.ItemFolder && *newParentID == id {
			return apperr.Validation("Cannot move a folder into itself")
		}
		if _, err := e.activeParent(ctx, *newParentID, callerID); err != nil {
			return err
		}
		extra = append(extra, *newParentID)
	}

	n, unlock, err := e.begin(ctx, kind, id, callerID, mustBeActive, extra...)
	if err != nil {
		return err
	}
	defer unlock()

	// Recheck the destination under the lock.
	if newParentID != nil {
		if _, err := e.activeParent(ctx, *newParentID, callerID); err != nil {
			return err
		}
		if kind == models.ItemFolder {
			inside, err := e.isWithin(ctx, *newParentID, id)
			if err != nil {
				return err
			}
			if inside {
				return apperr.Validation("Cannot move a folder into its own subfolder")
			}
		}
	}

	if sameParent(n.parentID, newParentID) {
		return nil
	}

	return txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		if err := e.items.Detach(ctx, n.parentID, n.ref()); err != nil {
			return err
		}
		var err error
		if kind == models.ItemFolder {
			err = e.folders.SetParent(ctx, id, newParentID)
		} else {
			err = e.files.SetParent(ctx, id, newParentID)
		}
		if err != nil {
			return fmt.Errorf("set parent of %s %s: %w", kind, id.Hex(), err)
		}
		return e.items.Attach(ctx, newParentID, n.ref())
	})
}

// isWithin reports whether folderID is ancestorID or lies beneath it.
func (e *Engine) isWithin(ctx context.Context, folderID, ancestorID primitive.ObjectID) (bool, error) {
	if folderID == ancestorID {
		return true, nil
	}
	ancestors, err := e.folders.GetAncestors(ctx, folderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("load ancestors of %s: %w", folderID.Hex(), err)
	}
	for _, a := range ancestors {
		if a.ID == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func isNotFound(err error) bool {
	return err != nil && apperr.KindOf(err) == apperr.KindNotFound
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
