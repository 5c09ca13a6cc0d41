package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"folio-cli/internal/model"
)

const backendFileName = "backend.sqlite"

var backendSchema = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		icon TEXT NOT NULL DEFAULT '',
		color TEXT,
		user_id TEXT NOT NULL DEFAULT '',
		workspace_id TEXT NOT NULL,
		parent_id TEXT REFERENCES folders(id) ON DELETE CASCADE,
		created_at_unixms INTEGER NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_folders_workspace ON folders(workspace_id);`,
	`CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		workspace_id TEXT NOT NULL,
		folder_id TEXT REFERENCES folders(id) ON DELETE SET NULL,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at_unixms INTEGER NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_workspace ON blocks(workspace_id);`,
	`CREATE TABLE IF NOT EXISTS document_access (
		document_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (document_id, user_id)
	);`,
}

// Backend is the server-side repository behind `folio serve`.
type Backend struct {
	db *sql.DB
}

// OpenBackend opens the backend database at path (":memory:" works for tests
// when used with a single connection).
func OpenBackend(ctx context.Context, path string) (*Backend, error) {
	db, err := openSQLite(ctx, path, backendSchema)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return &Backend{db: db}, nil
}

func DefaultBackendPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, backendFileName), nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

const folderCols = `id, name, description, icon, color, user_id, workspace_id, parent_id, created_at_unixms, updated_at_unixms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(r rowScanner) (model.Folder, error) {
	var f model.Folder
	var desc, color, parent sql.NullString
	var created, updated int64
	if err := r.Scan(&f.ID, &f.Name, &desc, &f.Icon, &color, &f.UserID, &f.WorkspaceID, &parent, &created, &updated); err != nil {
		return model.Folder{}, err
	}
	f.Description = nullStr(desc)
	f.Color = nullStr(color)
	f.ParentID = nullStr(parent)
	f.CreatedAt = time.UnixMilli(created).UTC()
	f.UpdatedAt = time.UnixMilli(updated).UTC()
	return f, nil
}

func (b *Backend) queryFolders(ctx context.Context, q string, args ...any) ([]model.Folder, error) {
	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListFolders returns every folder of a workspace, oldest first.
func (b *Backend) ListFolders(ctx context.Context, workspaceID string) ([]model.Folder, error) {
	return b.queryFolders(ctx, `SELECT `+folderCols+` FROM folders WHERE workspace_id = ? ORDER BY created_at_unixms, id`, workspaceID)
}

func (b *Backend) FolderChildren(ctx context.Context, folderID string) ([]model.Folder, error) {
	return b.queryFolders(ctx, `SELECT `+folderCols+` FROM folders WHERE parent_id = ? ORDER BY created_at_unixms, id`, folderID)
}

func (b *Backend) GetFolder(ctx context.Context, id string) (model.Folder, error) {
	f, err := scanFolder(b.db.QueryRowContext(ctx, `SELECT `+folderCols+` FROM folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Folder{}, NotFoundError{Kind: "folder", ID: id}
	}
	return f, err
}

func (b *Backend) InsertFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Folder{}, errors.New("folder name is empty")
	}
	if strings.TrimSpace(in.WorkspaceID) == "" {
		return model.Folder{}, errors.New("folder workspace_id is empty")
	}
	if p := model.StrOrEmpty(in.ParentID); p != "" {
		if _, err := b.GetFolder(ctx, p); err != nil {
			return model.Folder{}, err
		}
	}
	id, err := newRandomID(PrefixFolder)
	if err != nil {
		return model.Folder{}, err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = b.db.ExecContext(ctx, `INSERT INTO folders(`+folderCols+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, nullable(in.Description), in.Icon, nullable(in.Color), in.UserID, in.WorkspaceID, nullable(emptyToNil(in.ParentID)), now, now)
	if err != nil {
		return model.Folder{}, err
	}
	return b.GetFolder(ctx, id)
}

// UpdateFolder sets name, description and icon.
func (b *Backend) UpdateFolder(ctx context.Context, id string, in model.FolderInput) (model.Folder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Folder{}, errors.New("folder name is empty")
	}
	res, err := b.db.ExecContext(ctx, `UPDATE folders SET name = ?, description = ?, icon = ?, updated_at_unixms = ? WHERE id = ?`,
		name, nullable(in.Description), in.Icon, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return model.Folder{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Folder{}, NotFoundError{Kind: "folder", ID: id}
	}
	return b.GetFolder(ctx, id)
}

// DeleteFolder deletes a folder and, through the foreign key, its subfolders.
// Documents inside are kept and lose their folder.
func (b *Backend) DeleteFolder(ctx context.Context, id string) (model.Folder, error) {
	f, err := b.GetFolder(ctx, id)
	if err != nil {
		return model.Folder{}, err
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return model.Folder{}, err
	}
	return f, nil
}

const blockCols = `id, title, user_id, workspace_id, folder_id, deleted, created_at_unixms, updated_at_unixms`

func scanDocument(r rowScanner) (model.Document, error) {
	var d model.Document
	var folder sql.NullString
	var deleted int
	var created, updated int64
	if err := r.Scan(&d.ID, &d.Title, &d.UserID, &d.WorkspaceID, &folder, &deleted, &created, &updated); err != nil {
		return model.Document{}, err
	}
	d.FolderID = nullStr(folder)
	d.Deleted = deleted != 0
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}

// visibleDocs filters live documents a user owns or has been granted. An
// empty user sees every live document of the workspace.
const visibleDocs = `deleted = 0 AND workspace_id = ?1 AND (?2 = '' OR user_id = ?2 OR id IN (SELECT document_id FROM document_access WHERE user_id = ?2))`

func (b *Backend) ListDocuments(ctx context.Context, workspaceID, userID string) ([]model.Document, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT `+blockCols+` FROM blocks WHERE `+visibleDocs+` ORDER BY created_at_unixms, id`, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (b *Backend) CountDocuments(ctx context.Context, workspaceID, userID string) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks WHERE `+visibleDocs, workspaceID, userID).Scan(&n)
	return n, err
}

func (b *Backend) GetDocument(ctx context.Context, id string) (model.Document, error) {
	d, err := scanDocument(b.db.QueryRowContext(ctx, `SELECT `+blockCols+` FROM blocks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, NotFoundError{Kind: "document", ID: id}
	}
	return d, err
}

func (b *Backend) InsertDocument(ctx context.Context, in model.DocumentInput) (model.Document, error) {
	if strings.TrimSpace(in.WorkspaceID) == "" {
		return model.Document{}, errors.New("document workspace_id is empty")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled"
	}
	id, err := newRandomID(PrefixDocument)
	if err != nil {
		return model.Document{}, err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = b.db.ExecContext(ctx, `INSERT INTO blocks(`+blockCols+`) VALUES(?, ?, ?, ?, ?, 0, ?, ?)`,
		id, title, in.UserID, in.WorkspaceID, nullable(emptyToNil(in.FolderID)), now, now)
	if err != nil {
		return model.Document{}, err
	}
	return b.GetDocument(ctx, id)
}

// SoftDeleteDocument marks a document deleted. Deleting twice is not an error.
func (b *Backend) SoftDeleteDocument(ctx context.Context, id string) (model.Document, error) {
	res, err := b.db.ExecContext(ctx, `UPDATE blocks SET deleted = 1, updated_at_unixms = ? WHERE id = ?`, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return model.Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Document{}, NotFoundError{Kind: "document", ID: id}
	}
	return b.GetDocument(ctx, id)
}

func (b *Backend) GrantAccess(ctx context.Context, documentID, userID string) error {
	if _, err := b.GetDocument(ctx, documentID); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx, `INSERT OR IGNORE INTO document_access(document_id, user_id) VALUES(?, ?)`, documentID, userID)
	return err
}

// RemoveAccess revokes a share and returns the number of rows removed.
func (b *Backend) RemoveAccess(ctx context.Context, documentID, userID string) (int, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM document_access WHERE document_id = ? AND user_id = ?`, documentID, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
