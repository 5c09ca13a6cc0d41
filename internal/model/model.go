package model

import "time"

// Typenames used as the cache discriminator and as GraphQL object names.
const (
	TypeBlocks  = "blocks"
	TypeFolders = "folders"
)

type Ref struct {
	Typename string `json:"__typename"`
	ID       string `json:"id"`
}

func DocumentRef(id string) Ref { return Ref{Typename: TypeBlocks, ID: id} }
func FolderRef(id string) Ref   { return Ref{Typename: TypeFolders, ID: id} }

type Folder struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	WorkspaceID string  `json:"workspace_id,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is a top-level block.
type Document struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	UserID      string  `json:"user_id,omitempty"`
	WorkspaceID string  `json:"workspace_id,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"`
	Deleted     bool    `json:"deleted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderInput carries the fields a folder dialog edits.
type FolderInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Icon        string  `json:"icon"`
	Color       *string `json:"color"`
	UserID      string  `json:"user_id,omitempty"`
	WorkspaceID string  `json:"workspace_id,omitempty"`
	ParentID    *string `json:"parent_id"`
}

type DocumentInput struct {
	Title       string  `json:"title"`
	FolderID    *string `json:"folder_id"`
	WorkspaceID string  `json:"workspace_id"`
	UserID      string  `json:"user_id,omitempty"`
}

type AggregateCount struct {
	Count int `json:"count"`
}

// Aggregate mirrors the `<collection>_aggregate` GraphQL shape.
type Aggregate struct {
	Aggregate *AggregateCount `json:"aggregate"`
}

func StrPtr(s string) *string { return &s }

// StrOrEmpty dereferences p, returning "" for nil.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
