package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Folder is a node in a user's folder tree. Every user has exactly one root
// folder (IsRoot, nil ParentID) created at registration; all other folders
// have a parent.
type Folder struct {
	ID        int64
	UserID    string
	Name      string
	ParentID  *int64
	IsRoot    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the folder for persistence.
func (f *Folder) Validate() error {
	if f.UserID == "" {
		return errors.New("user id is required")
	}
	if f.Name == "" {
		return errors.New("name is required")
	}
	if len(f.Name) > 50 {
		return errors.New("name must be at most 50 characters")
	}
	if !f.IsRoot && f.ParentID == nil {
		return errors.New("non-root folder requires a parent")
	}
	return nil
}

// Note is a document in a folder. Content is an opaque JSON document owned
// by the client editor.
type Note struct {
	ID        int64
	UserID    string
	Name      string
	FolderID  int64
	Content   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the note for persistence.
func (n *Note) Validate() error {
	if n.UserID == "" {
		return errors.New("user id is required")
	}
	if n.Name == "" {
		return errors.New("name is required")
	}
	if len(n.Name) > 150 {
		return errors.New("name must be at most 150 characters")
	}
	if n.FolderID == 0 {
		return errors.New("folder id is required")
	}
	return nil
}
