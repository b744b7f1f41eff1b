// Package handler exposes note and note folder endpoints over HTTP, plus the
// websocket collaboration handler.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"senya-web-backend/internal/note/domain"
	"senya-web-backend/internal/note/repository"
	"senya-web-backend/internal/server/middleware"
	"senya-web-backend/internal/server/respond"
)

// NoteHandler serves the /note endpoint group. All routes are mounted behind
// the auth middleware; the context always carries the owner's user id.
type NoteHandler struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewNoteHandler returns a NoteHandler backed by repo.
func NewNoteHandler(repo repository.Repository, log *zap.Logger) *NoteHandler {
	return &NoteHandler{repo: repo, log: log}
}

// Routes mounts the note and folder endpoints on r.
func (h *NoteHandler) Routes(r chi.Router) {
	r.Route("/folder", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)
		r.Put("/{folderID}", h.UpdateFolder)
		r.Delete("/{folderID}", h.DeleteFolder)
	})

	r.Get("/", h.ListNotes)
	r.Post("/", h.CreateNote)
	r.Get("/{noteID}", h.GetNote)
	r.Put("/{noteID}", h.UpdateNote)
	r.Delete("/{noteID}", h.DeleteNote)
}

type folderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

type folderResponse struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	IsRoot   bool   `json:"is_root"`
}

func folderView(f *domain.Folder) folderResponse {
	return folderResponse{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		ParentID: f.ParentID,
		IsRoot:   f.IsRoot,
	}
}

// ListFolders returns every folder owned by the caller.
func (h *NoteHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	folders, err := h.repo.ListFolders(r.Context(), userID)
	if err != nil {
		h.serverError(w, "list folders", err)
		return
	}

	out := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		out = append(out, folderView(f))
	}
	respond.JSON(w, http.StatusOK, out)
}

// CreateFolder creates a folder for the caller. A missing parent_id attaches
// the folder to the caller's root folder.
func (h *NoteHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parentID := req.ParentID
	if parentID == nil {
		root, err := h.repo.GetRootFolder(r.Context(), userID)
		if err != nil {
			h.serverError(w, "root folder lookup", err)
			return
		}
		if root == nil {
			respond.Detail(w, http.StatusNotFound, "Parent folder not found")
			return
		}
		parentID = &root.ID
	} else {
		parent, err := h.repo.GetFolder(r.Context(), *parentID, userID)
		if err != nil {
			h.serverError(w, "parent folder lookup", err)
			return
		}
		if parent == nil {
			respond.Detail(w, http.StatusNotFound, "Parent folder not found")
			return
		}
	}

	now := time.Now().UTC()
	folder := &domain.Folder{
		UserID:    userID,
		Name:      req.Name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := folder.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateFolder(r.Context(), folder); err != nil {
		h.serverError(w, "create folder", err)
		return
	}

	respond.JSON(w, http.StatusCreated, folderView(folder))
}

// UpdateFolder renames or moves a folder. The root folder is immutable.
func (h *NoteHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	folderID, ok := pathID(w, r, "folderID")
	if !ok {
		return
	}

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.repo.GetFolder(r.Context(), folderID, userID)
	if err != nil {
		h.serverError(w, "folder lookup", err)
		return
	}
	if folder == nil {
		respond.Detail(w, http.StatusNotFound, "Folder not found")
		return
	}
	if folder.IsRoot {
		respond.Detail(w, http.StatusBadRequest, "Root folder can not be edited")
		return
	}

	if req.ParentID != nil {
		parent, err := h.repo.GetFolder(r.Context(), *req.ParentID, userID)
		if err != nil {
			h.serverError(w, "parent folder lookup", err)
			return
		}
		if parent == nil {
			respond.Detail(w, http.StatusNotFound, "Parent folder not found")
			return
		}
		folder.ParentID = req.ParentID
	}
	if req.Name != "" {
		folder.Name = req.Name
	}
	folder.UpdatedAt = time.Now().UTC()

	if err := folder.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.UpdateFolder(r.Context(), folder); err != nil {
		h.serverError(w, "update folder", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Folder updated successfully"})
}

// DeleteFolder removes a folder and, through cascading deletes, its notes and
// subfolders. The root folder is protected.
func (h *NoteHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	folderID, ok := pathID(w, r, "folderID")
	if !ok {
		return
	}

	folder, err := h.repo.GetFolder(r.Context(), folderID, userID)
	if err != nil {
		h.serverError(w, "folder lookup", err)
		return
	}
	if folder == nil {
		respond.Detail(w, http.StatusNotFound, "Folder not found")
		return
	}
	if folder.IsRoot {
		respond.Detail(w, http.StatusBadRequest, "Root folder can not be deleted")
		return
	}

	if err := h.repo.DeleteFolder(r.Context(), folderID, userID); err != nil {
		h.serverError(w, "delete folder", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Folder deleted successfully"})
}

type noteRequest struct {
	Name     string          `json:"name"`
	FolderID *int64          `json:"folder_id"`
	Content  json.RawMessage `json:"content"`
}

type noteResponse struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	FolderID  int64           `json:"folder_id"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func noteView(n *domain.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Name:      n.Name,
		FolderID:  n.FolderID,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// ListNotes returns the caller's notes, optionally restricted to one folder
// via the folder_id query parameter.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var folderID *int64
	if raw := r.URL.Query().Get("folder_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, "invalid folder_id")
			return
		}
		folderID = &id
	}

	notes, err := h.repo.ListNotes(r.Context(), userID, folderID)
	if err != nil {
		h.serverError(w, "list notes", err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView(n))
	}
	respond.JSON(w, http.StatusOK, out)
}

// CreateNote creates a note inside one of the caller's folders.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FolderID == nil {
		respond.Detail(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	folder, err := h.repo.GetFolder(r.Context(), *req.FolderID, userID)
	if err != nil {
		h.serverError(w, "folder lookup", err)
		return
	}
	if folder == nil {
		respond.Detail(w, http.StatusNotFound, "Folder not found")
		return
	}

	now := time.Now().UTC()
	note := &domain.Note{
		UserID:    userID,
		Name:      req.Name,
		FolderID:  *req.FolderID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := note.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateNote(r.Context(), note); err != nil {
		h.serverError(w, "create note", err)
		return
	}

	respond.JSON(w, http.StatusCreated, noteView(note))
}

// GetNote returns a single note owned by the caller.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r, "noteID")
	if !ok {
		return
	}

	note, err := h.repo.GetNote(r.Context(), noteID, userID)
	if err != nil {
		h.serverError(w, "note lookup", err)
		return
	}
	if note == nil {
		respond.Detail(w, http.StatusNotFound, "Note not found")
		return
	}

	respond.JSON(w, http.StatusOK, noteView(note))
}

// UpdateNote updates a note's name, folder or content.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r, "noteID")
	if !ok {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.repo.GetNote(r.Context(), noteID, userID)
	if err != nil {
		h.serverError(w, "note lookup", err)
		return
	}
	if note == nil {
		respond.Detail(w, http.StatusNotFound, "Note not found")
		return
	}

	if req.FolderID != nil {
		folder, err := h.repo.GetFolder(r.Context(), *req.FolderID, userID)
		if err != nil {
			h.serverError(w, "folder lookup", err)
			return
		}
		if folder == nil {
			respond.Detail(w, http.StatusNotFound, "Folder not found")
			return
		}
		note.FolderID = *req.FolderID
	}
	if req.Name != "" {
		note.Name = req.Name
	}
	if req.Content != nil {
		note.Content = req.Content
	}
	note.UpdatedAt = time.Now().UTC()

	if err := note.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.UpdateNote(r.Context(), note); err != nil {
		h.serverError(w, "update note", err)
		return
	}

	respond.JSON(w, http.StatusOK, noteView(note))
}

// DeleteNote removes a note owned by the caller.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	noteID, ok := pathID(w, r, "noteID")
	if !ok {
		return
	}

	note, err := h.repo.GetNote(r.Context(), noteID, userID)
	if err != nil {
		h.serverError(w, "note lookup", err)
		return
	}
	if note == nil {
		respond.Detail(w, http.StatusNotFound, "Note not found")
		return
	}

	if err := h.repo.DeleteNote(r.Context(), noteID, userID); err != nil {
		h.serverError(w, "delete note", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (h *NoteHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	respond.Detail(w, http.StatusInternalServerError, "internal error")
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
