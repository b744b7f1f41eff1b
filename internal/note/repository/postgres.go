package repository

import (
	"context"
	"database/sql"
	"errors"

	"senya-web-backend/internal/note/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a note repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const folderColumns = `id, user_id, name, parent_id, is_root, created_at, updated_at`
const noteColumns = `id, user_id, name, folder_id, content, created_at, updated_at`

// CreateFolder inserts the folder and assigns its generated ID.
func (r *PostgresRepository) CreateFolder(ctx context.Context, f *domain.Folder) error {
	parent := sql.NullInt64{}
	if f.ParentID != nil {
		parent = sql.NullInt64{Int64: *f.ParentID, Valid: true}
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO note_folder (user_id, name, parent_id, is_root, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		f.UserID, f.Name, parent, f.IsRoot, f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
}

// GetFolder returns the folder for id owned by userID, or nil if not found.
func (r *PostgresRepository) GetFolder(ctx context.Context, id int64, userID string) (*domain.Folder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM note_folder WHERE id = $1 AND user_id = $2`, id, userID)
	return scanFolder(row)
}

// GetRootFolder returns the user's root folder, or nil if not found.
func (r *PostgresRepository) GetRootFolder(ctx context.Context, userID string) (*domain.Folder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM note_folder WHERE user_id = $1 AND is_root`, userID)
	return scanFolder(row)
}

// ListFolders returns all folders owned by userID ordered by id.
func (r *PostgresRepository) ListFolders(ctx context.Context, userID string) ([]*domain.Folder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM note_folder WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Folder
	for rows.Next() {
		f, err := scanFolderRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFolder renames or reparents the folder. Ownership is part of the
// WHERE clause, so another user's folder is never touched.
func (r *PostgresRepository) UpdateFolder(ctx context.Context, f *domain.Folder) error {
	parent := sql.NullInt64{}
	if f.ParentID != nil {
		parent = sql.NullInt64{Int64: *f.ParentID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE note_folder
		SET name = $3, parent_id = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2 AND NOT is_root`,
		f.ID, f.UserID, f.Name, parent, f.UpdatedAt,
	)
	return err
}

// DeleteFolder removes the folder and, via FK cascade, its notes and subfolders.
// The root folder is never deleted.
func (r *PostgresRepository) DeleteFolder(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM note_folder WHERE id = $1 AND user_id = $2 AND NOT is_root`, id, userID)
	return err
}

// CreateNote inserts the note and assigns its generated ID.
func (r *PostgresRepository) CreateNote(ctx context.Context, n *domain.Note) error {
	content := []byte(n.Content)
	if len(content) == 0 {
		content = nil
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO note (user_id, name, folder_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		n.UserID, n.Name, n.FolderID, content, n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
}

// GetNote returns the note for id owned by userID, or nil if not found.
func (r *PostgresRepository) GetNote(ctx context.Context, id int64, userID string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM note WHERE id = $1 AND user_id = $2`, id, userID)
	return scanNote(row)
}

// ListNotes returns the user's notes, optionally restricted to one folder.
func (r *PostgresRepository) ListNotes(ctx context.Context, userID string, folderID *int64) ([]*domain.Note, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if folderID != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+noteColumns+` FROM note WHERE user_id = $1 AND folder_id = $2 ORDER BY id`, userID, *folderID)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+noteColumns+` FROM note WHERE user_id = $1 ORDER BY id`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Note
	for rows.Next() {
		n, err := scanNoteRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNote updates name, folder, and content of an owned note.
func (r *PostgresRepository) UpdateNote(ctx context.Context, n *domain.Note) error {
	content := []byte(n.Content)
	if len(content) == 0 {
		content = nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE note
		SET name = $3, folder_id = $4, content = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2`,
		n.ID, n.UserID, n.Name, n.FolderID, content, n.UpdatedAt,
	)
	return err
}

// DeleteNote removes an owned note. Missing rows are not an error.
func (r *PostgresRepository) DeleteNote(ctx context.Context, id int64, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM note WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func scanFolder(row *sql.Row) (*domain.Folder, error) {
	var f domain.Folder
	var parent sql.NullInt64
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &parent, &f.IsRoot, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if parent.Valid {
		f.ParentID = &parent.Int64
	}
	return &f, nil
}

func scanFolderRows(rows *sql.Rows) (*domain.Folder, error) {
	var f domain.Folder
	var parent sql.NullInt64
	if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &parent, &f.IsRoot, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		f.ParentID = &parent.Int64
	}
	return &f, nil
}

func scanNote(row *sql.Row) (*domain.Note, error) {
	var n domain.Note
	var content []byte
	err := row.Scan(&n.ID, &n.UserID, &n.Name, &n.FolderID, &content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.Content = content
	return &n, nil
}

func scanNoteRows(rows *sql.Rows) (*domain.Note, error) {
	var n domain.Note
	var content []byte
	if err := rows.Scan(&n.ID, &n.UserID, &n.Name, &n.FolderID, &content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Content = content
	return &n, nil
}
