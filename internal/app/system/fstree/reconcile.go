package fstree

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadaily/internal/app/store/folder"
	"github.com/dalemusser/stratadaily/internal/app/system/txn"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Problem kinds reported by CheckIntegrity.
const (
	ProblemStale     = "stale"     // entry names a missing node or one parented elsewhere
	ProblemDuplicate = "duplicate" // entry repeated in the same items list
	ProblemMissing   = "missing"   // child not referenced by its parent's items
	ProblemUndeleted = "undeleted" // active child under a tombstoned folder
)

// Problem is one containment inconsistency in a folder.
type Problem struct {
	FolderID primitive.ObjectID `json:"folderId"`
	Kind     string             `json:"kind"`
	Item     models.ItemRef     `json:"item"`
}

func (p Problem) String() string {
	return fmt.Sprintf("folder %s: %s %s %s", p.FolderID.Hex(), p.Kind, p.Item.ItemType, p.Item.ItemID.Hex())
}

// inspection is the comparison of one folder's items with its children.
type inspection struct {
	items     []models.ItemRef // corrected items: valid entries in order, then missing children
	problems  []Problem
	undeleted bool
}

func (in inspection) count(kind string) int {
	n := 0
	for _, p := range in.problems {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

// inspect compares f's items with the nodes whose parent_id is f.
func (e *Engine) inspect(ctx context.Context, f models.Folder) (inspection, error) {
	childFolders, err := e.folders.ListAllByParent(ctx, f.ID)
	if err != nil {
		return inspection{}, fmt.Errorf("list child folders of %s: %w", f.ID.Hex(), err)
	}
	childFiles, err := e.files.ListAllByParent(ctx, f.ID)
	if err != nil {
		return inspection{}, fmt.Errorf("list child files of %s: %w", f.ID.Hex(), err)
	}

	var in inspection
	children := make(map[models.ItemRef]bool, len(childFolders)+len(childFiles))
	var order []models.ItemRef
	for _, c := range childFolders {
		ref := models.ItemRef{ItemType: models.ItemFolder, ItemID: c.ID}
		children[ref] = true
		order = append(order, ref)
		if f.Deleted && !c.Deleted {
			in.undeleted = true
			in.problems = append(in.problems, Problem{FolderID: f.ID, Kind: ProblemUndeleted, Item: ref})
		}
	}
	for _, c := range childFiles {
		ref := models.ItemRef{ItemType: models.ItemFile, ItemID: c.ID}
		children[ref] = true
		order = append(order, ref)
		if f.Deleted && !c.Deleted {
			in.undeleted = true
			in.problems = append(in.problems, Problem{FolderID: f.ID, Kind: ProblemUndeleted, Item: ref})
		}
	}

	listed := make(map[models.ItemRef]bool, len(f.Items))
	in.items = make([]models.ItemRef, 0, len(children))
	for _, it := range f.Items {
		switch {
		case listed[it]:
			in.problems = append(in.problems, Problem{FolderID: f.ID, Kind: ProblemDuplicate, Item: it})
		case !children[it]:
			in.problems = append(in.problems, Problem{FolderID: f.ID, Kind: ProblemStale, Item: it})
		default:
			in.items = append(in.items, it)
		}
		listed[it] = true
	}
	for _, ref := range order {
		if !listed[ref] {
			in.problems = append(in.problems, Problem{FolderID: f.ID, Kind: ProblemMissing, Item: ref})
			in.items = append(in.items, ref)
		}
	}
	return in, nil
}

// CheckIntegrity reports every containment inconsistency in an owner's
// folders, whatever their state. An empty result means every items entry
// names a node parented by that folder, every child is listed once, and no
// tombstoned folder has an active child.
func (e *Engine) CheckIntegrity(ctx context.Context, ownerID primitive.ObjectID) ([]Problem, error) {
	var problems []Problem
	for _, deleted := range []bool{false, true} {
		folders, err := e.folders.ListByOwner(ctx, ownerID, folder.ListOptions{Deleted: deleted})
		if err != nil {
			return nil, fmt.Errorf("list folders: %w", err)
		}
		for _, f := range folders {
			in, err := e.inspect(ctx, f)
			if err != nil {
				return nil, err
			}
			problems = append(problems, in.problems...)
		}
	}
	return problems, nil
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	FoldersScanned  int   `json:"foldersScanned"`
	ItemsPruned     int   `json:"itemsPruned"`
	ItemsAttached   int   `json:"itemsAttached"`
	FlagsRepaired   int64 `json:"flagsRepaired"`
	OrphansRerooted int   `json:"orphansRerooted"`
}

// Reconcile repairs drift left by interrupted writes or manual edits, for
// all users:
//
//   - items entries naming missing or re-parented nodes are pruned
//   - children absent from their parent's items are appended
//   - active nodes under a tombstoned folder are tombstoned
//   - nodes whose parent no longer exists are moved to the root level
//
// Each folder is repaired under its tree lock in its own transaction, so a
// pass can run alongside normal traffic.
func (e *Engine) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	var ids []primitive.ObjectID
	if err := e.folders.Each(ctx, func(f models.Folder) error {
		ids = append(ids, f.ID)
		return nil
	}); err != nil {
		return report, fmt.Errorf("scan folders: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.reconcileFolder(ctx, id, &report); err != nil {
			return report, err
		}
		report.FoldersScanned++
	}

	if err := e.files.Each(ctx, func(f models.File) error {
		if f.ParentID == nil {
			return nil
		}
		return e.rerootIfOrphan(ctx, models.ItemFile, f.ID, &report)
	}); err != nil {
		return report, fmt.Errorf("scan files: %w", err)
	}

	e.log.Info("containment reconciled",
		zap.Int("folders_scanned", report.FoldersScanned),
		zap.Int("items_pruned", report.ItemsPruned),
		zap.Int("items_attached", report.ItemsAttached),
		zap.Int64("flags_repaired", report.FlagsRepaired),
		zap.Int("orphans_rerooted", report.OrphansRerooted))
	return report, nil
}

func (e *Engine) reconcileFolder(ctx context.Context, id primitive.ObjectID, report *ReconcileReport) error {
	if err := e.rerootIfOrphan(ctx, models.ItemFolder, id, report); err != nil {
		return err
	}

	unlock, err := e.lockNodes(ctx, []models.ItemRef{{ItemType: models.ItemFolder, ItemID: id}})
	if err != nil {
		if isNotFound(err) {
			return nil // purged since the scan
		}
		return err
	}
	defer unlock()

	f, err := e.folders.GetByID(ctx, id)
	if err != nil {
		if isNoDocuments(err) {
			return nil
		}
		return fmt.Errorf("load folder %s: %w", id.Hex(), err)
	}
	in, err := e.inspect(ctx, *f)
	if err != nil {
		return err
	}
	if len(in.problems) == 0 {
		return nil
	}

	var repaired int64
	err = txn.Run(ctx, e.db, e.log, func(ctx context.Context) error {
		repaired = 0
		if err := e.folders.ReplaceItems(ctx, f.ID, in.items); err != nil {
			return fmt.Errorf("replace items of %s: %w", f.ID.Hex(), err)
		}
		if in.undeleted {
			res, err := e.setDeletedTx(ctx, models.ItemFolder, f.ID, true)
			if err != nil {
				return err
			}
			repaired = res.Folders + res.Files
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.FlagsRepaired += repaired
	report.ItemsPruned += in.count(ProblemStale) + in.count(ProblemDuplicate)
	report.ItemsAttached += in.count(ProblemMissing)
	e.log.Warn("folder containment repaired",
		zap.String("folder_id", f.ID.Hex()),
		zap.Int("problems", len(in.problems)))
	return nil
}

// rerootIfOrphan moves a node whose parent folder no longer exists to the
// root level. The parent is looked up at repair time, not from a snapshot,
// so a folder created during the pass is never mistaken for a missing one.
func (e *Engine) rerootIfOrphan(ctx context.Context, kind models.ItemKind, id primitive.ObjectID, report *ReconcileReport) error {
	n, err := e.load(ctx, kind, id)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if n.parentID == nil {
		return nil
	}
	if _, err := e.folders.GetByID(ctx, *n.parentID); err == nil {
		return nil
	} else if !isNoDocuments(err) {
		return fmt.Errorf("load parent %s: %w", n.parentID.Hex(), err)
	}

	unlock, err := e.lockNodes(ctx, []models.ItemRef{n.ref()})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	defer unlock()

	if kind == models.ItemFolder {
		err = e.folders.SetParent(ctx, id, nil)
	} else {
		err = e.files.SetParent(ctx, id, nil)
	}
	if err != nil {
		return fmt.Errorf("re-root %s %s: %w", kind, id.Hex(), err)
	}
	report.OrphansRerooted++
	e.log.Warn("orphan moved to root",
		zap.String("kind", string(kind)),
		zap.String("id", id.Hex()),
		zap.String("missing_parent", n.parentID.Hex()))
	return nil
}
