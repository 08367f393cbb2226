package explorer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FolderRoutes returns the router mounted at /api/v1/folders.
func FolderRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.CreateFolder)
	r.Get("/", h.ListRoot)
	r.Get("/tree", h.Tree)
	r.Get("/deletedFolders", h.DeletedFolders)
	r.Patch("/restore/{id}", h.RestoreFolder)
	r.Delete("/permanentDelete/{id}", h.PurgeFolder)
	r.Get("/{id}", h.GetFolder)
	r.Patch("/{id}", h.RenameFolder)
	r.Patch("/{id}/move", h.MoveFolder)
	r.Delete("/{id}", h.DeleteFolder)
	return r
}

// FileRoutes returns the router mounted at /api/v1/files.
func FileRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.CreateFile)
	r.Get("/", h.ListFiles)
	r.Get("/deletedFiles", h.DeletedFiles)
	r.Patch("/restore/{id}", h.RestoreFile)
	r.Delete("/permanentDelete/{id}", h.PurgeFile)
	r.Get("/{id}", h.GetFile)
	r.Patch("/{id}", h.UpdateFile)
	r.Patch("/{id}/move", h.MoveFile)
	r.Delete("/{id}", h.DeleteFile)
	return r
}
