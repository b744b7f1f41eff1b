package repository

import (
	"context"

	"senya-web-backend/internal/note/domain"
)

// Repository defines persistence for notes and note folders. All reads and
// mutations are scoped by owner; a row belonging to another user is treated
// as absent.
type Repository interface {
	CreateFolder(ctx context.Context, f *domain.Folder) error
	GetFolder(ctx context.Context, id int64, userID string) (*domain.Folder, error)
	GetRootFolder(ctx context.Context, userID string) (*domain.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]*domain.Folder, error)
	UpdateFolder(ctx context.Context, f *domain.Folder) error
	DeleteFolder(ctx context.Context, id int64, userID string) error

	CreateNote(ctx context.Context, n *domain.Note) error
	GetNote(ctx context.Context, id int64, userID string) (*domain.Note, error)
	ListNotes(ctx context.Context, userID string, folderID *int64) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, n *domain.Note) error
	DeleteNote(ctx context.Context, id int64, userID string) error
}
