// Package explorer serves the folder/file tree over HTTP.
//
// Endpoints (mounted at /api/v1):
//   - /folders: create, list root, tree, deleted list, get, rename, move,
//     soft delete, restore, permanent delete
//   - /files: the same lifecycle for files, plus content updates
//
// Every operation acts for the authenticated caller. Handlers decode and
// validate the request, then hand off to fstree.Engine, which owns locking,
// transactions and containment.
package explorer

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles explorer requests.
type Handler struct {
	engine *fstree.Engine
	rs     jsonutil.Responder
	logger *zap.Logger
}

// NewHandler creates a new explorer handler. dev attaches internal error
// causes to responses.
func NewHandler(engine *fstree.Engine, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		engine: engine,
		rs:     jsonutil.Responder{Log: logger, Dev: dev},
		logger: logger,
	}
}

// target resolves the caller and the {id} path parameter.
func target(r *http.Request) (id, caller primitive.ObjectID, err error) {
	caller, err = authz.Caller(r)
	if err != nil {
		return
	}
	id, err = jsonutil.PathID(r, "id")
	return
}

/* -------------------------------- folders -------------------------------- */

// CreateFolder handles POST /folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req createFolderRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	f, err := h.engine.CreateFolder(r.Context(), fstree.CreateFolderInput{
		Name:     req.Name,
		ParentID: req.ParentID.ID,
		OwnerID:  caller,
	})
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "Folder created successfully", f)
}

// ListRoot handles GET /folders: root-level folders with their items, and
// root-level files.
func (h *Handler) ListRoot(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	listing, err := h.engine.ListRoot(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Folders fetched successfully", listing)
}

// Tree handles GET /folders/tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	tree, err := h.engine.Tree(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "File explorer fetched successfully", tree)
}

// DeletedFolders handles GET /folders/deletedFolders.
func (h *Handler) DeletedFolders(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	folders, err := h.engine.DeletedFolders(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Deleted folders fetched successfully", folders)
}

// GetFolder handles GET /folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	view, err := h.engine.GetFolder(r.Context(), id, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Folder fetched successfully", view)
}

// RenameFolder handles PATCH /folders/{id}.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req renameFolderRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	f, err := h.engine.RenameFolder(r.Context(), id, req.Name, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Folder renamed successfully", f)
}

// MoveFolder handles PATCH /folders/{id}/move.
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, models.ItemFolder, "Folder moved successfully")
}

// DeleteFolder handles DELETE /folders/{id}.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFolder, h.engine.SoftDelete, "Folder deleted successfully")
}

// RestoreFolder handles PATCH /folders/restore/{id}.
func (h *Handler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFolder, h.engine.Restore, "Folder restored successfully")
}

// PurgeFolder handles DELETE /folders/permanentDelete/{id}.
func (h *Handler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFolder, h.engine.PermanentDelete, "Folder permanently deleted")
}

/* --------------------------------- files --------------------------------- */

// CreateFile handles POST /files.
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req createFileRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	f, err := h.engine.CreateFile(r.Context(), fstree.CreateFileInput{
		Name:        req.Name,
		ParentID:    req.ParentID.ID,
		OwnerID:     caller,
		Data:        req.Data,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.Created(w, "File created successfully", f)
}

// ListFiles handles GET /files: every active file the caller owns, or only
// root-level files with ?root=true.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	list := h.engine.ListFiles
	if r.URL.Query().Get("root") == "true" {
		list = h.engine.ListRootFiles
	}
	files, err := list(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Files fetched successfully", files)
}

// DeletedFiles handles GET /files/deletedFiles.
func (h *Handler) DeletedFiles(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	files, err := h.engine.DeletedFiles(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Deleted files fetched successfully", files)
}

// GetFile handles GET /files/{id}.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	f, err := h.engine.GetFile(r.Context(), id, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "File fetched successfully", f)
}

// UpdateFile handles PATCH /files/{id}.
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req updateFileRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	f, err := h.engine.UpdateFile(r.Context(), id, fstree.FileUpdate{Name: req.Name, Data: req.Data}, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "File updated successfully", f)
}

// MoveFile handles PATCH /files/{id}/move.
func (h *Handler) MoveFile(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, models.ItemFile, "File moved successfully")
}

// DeleteFile handles DELETE /files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFile, h.engine.SoftDelete, "File deleted successfully")
}

// RestoreFile handles PATCH /files/restore/{id}.
func (h *Handler) RestoreFile(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFile, h.engine.Restore, "File restored successfully")
}

// PurgeFile handles DELETE /files/permanentDelete/{id}.
func (h *Handler) PurgeFile(w http.ResponseWriter, r *http.Request) {
	h.cascade(w, r, models.ItemFile, h.engine.PermanentDelete, "File permanently deleted")
}

/* -------------------------------- shared --------------------------------- */

func (h *Handler) move(w http.ResponseWriter, r *http.Request, kind models.ItemKind, msg string) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req moveRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	if err := h.engine.Move(r.Context(), kind, id, req.ParentID.ID, caller); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, msg, map[string]any{"_id": id, "parentId": req.ParentID.ID})
}

type cascadeFunc func(ctx context.Context, kind models.ItemKind, id, caller primitive.ObjectID) (fstree.CascadeResult, error)

func (h *Handler) cascade(w http.ResponseWriter, r *http.Request, kind models.ItemKind, op cascadeFunc, msg string) {
	id, caller, err := target(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	res, err := op(r.Context(), kind, id, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	h.logger.Debug("explorer cascade",
		zap.String("op", msg),
		zap.String("id", id.Hex()),
		zap.Int64("folders", res.Folders),
		zap.Int64("files", res.Files))
	jsonutil.OK(w, msg, res)
}
