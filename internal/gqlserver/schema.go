// Package gqlserver serves the folder/document GraphQL API backed by store.Backend.
package gqlserver

import (
	"context"
	"errors"

	"folio-cli/internal/model"
	"folio-cli/internal/store"

	"github.com/attic-labs/graphql"
)

// Backend is the repository surface the resolvers need.
type Backend interface {
	ListFolders(ctx context.Context, workspaceID string) ([]model.Folder, error)
	FolderChildren(ctx context.Context, folderID string) ([]model.Folder, error)
	GetFolder(ctx context.Context, id string) (model.Folder, error)
	InsertFolder(ctx context.Context, in model.FolderInput) (model.Folder, error)
	UpdateFolder(ctx context.Context, id string, in model.FolderInput) (model.Folder, error)
	DeleteFolder(ctx context.Context, id string) (model.Folder, error)

	ListDocuments(ctx context.Context, workspaceID, userID string) ([]model.Document, error)
	CountDocuments(ctx context.Context, workspaceID, userID string) (int, error)
	InsertDocument(ctx context.Context, in model.DocumentInput) (model.Document, error)
	SoftDeleteDocument(ctx context.Context, id string) (model.Document, error)
	RemoveAccess(ctx context.Context, documentID, userID string) (int, error)
}

var _ Backend = (*store.Backend)(nil)

// NewSchema builds the executable schema over b.
func NewSchema(b Backend) (graphql.Schema, error) {
	var folderType *graphql.Object
	folderType = graphql.NewObject(graphql.ObjectConfig{
		Name: model.TypeFolders,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"description":  &graphql.Field{Type: graphql.String},
				"icon":         &graphql.Field{Type: graphql.String},
				"color":        &graphql.Field{Type: graphql.String},
				"user_id":      &graphql.Field{Type: graphql.String},
				"workspace_id": &graphql.Field{Type: graphql.String},
				"parent_id":    &graphql.Field{Type: graphql.String},
				"children": &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(folderType))),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						src, _ := p.Source.(map[string]interface{})
						id, _ := src["id"].(string)
						kids, err := b.FolderChildren(p.Context, id)
						if err != nil {
							return nil, err
						}
						return folderMaps(kids), nil
					},
				},
			}
		}),
	})

	blockType := graphql.NewObject(graphql.ObjectConfig{
		Name: model.TypeBlocks,
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"title":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user_id":      &graphql.Field{Type: graphql.String},
			"workspace_id": &graphql.Field{Type: graphql.String},
			"folder_id":    &graphql.Field{Type: graphql.String},
			"deleted":      &graphql.Field{Type: graphql.Boolean},
		},
	})

	aggregateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "blocks_aggregate",
		Fields: graphql.Fields{
			"aggregate": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "blocks_aggregate_fields",
				Fields: graphql.Fields{
					"count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				},
			})},
		},
	})

	affectedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "document_access_mutation_response",
		Fields: graphql.Fields{
			"affected_rows": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	folderSetInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "folders_set_input",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"icon":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	folderInsertInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "folders_insert_input",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"description":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"icon":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"color":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"user_id":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"workspace_id": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"parent_id":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	blockSetInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "blocks_set_input",
		Fields: graphql.InputObjectConfigFieldMap{
			"deleted": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})
	blockInsertInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "blocks_insert_input",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"folder_id":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"workspace_id": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"user_id":      &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	nonNullString := graphql.NewNonNull(graphql.String)
	idArg := graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: nonNullString}}
	listArgs := graphql.FieldConfigArgument{
		"workspace_id": &graphql.ArgumentConfig{Type: nonNullString},
		"user_id":      &graphql.ArgumentConfig{Type: graphql.String},
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "query_root",
		Fields: graphql.Fields{
			"folders": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(folderType))),
				Args: graphql.FieldConfigArgument{
					"workspace_id": &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fs, err := b.ListFolders(p.Context, argString(p.Args, "workspace_id"))
					if err != nil {
						return nil, err
					}
					return folderMaps(fs), nil
				},
			},
			"folders_by_pk": &graphql.Field{
				Type: folderType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f, err := b.GetFolder(p.Context, argString(p.Args, "id"))
					if err != nil {
						return nil, err
					}
					return folderMap(f), nil
				},
			},
			"blocks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(blockType))),
				Args: listArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ds, err := b.ListDocuments(p.Context, argString(p.Args, "workspace_id"), argString(p.Args, "user_id"))
					if err != nil {
						return nil, err
					}
					out := make([]interface{}, 0, len(ds))
					for _, d := range ds {
						out = append(out, documentMap(d))
					}
					return out, nil
				},
			},
			"blocks_aggregate": &graphql.Field{
				Type: graphql.NewNonNull(aggregateType),
				Args: listArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					n, err := b.CountDocuments(p.Context, argString(p.Args, "workspace_id"), argString(p.Args, "user_id"))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"aggregate": map[string]interface{}{"count": n},
					}, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "mutation_root",
		Fields: graphql.Fields{
			"update_blocks_by_pk": &graphql.Field{
				Type: blockType,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: nonNullString},
					"_set": &graphql.ArgumentConfig{Type: blockSetInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					set, _ := p.Args["_set"].(map[string]interface{})
					if deleted, _ := set["deleted"].(bool); !deleted {
						return nil, errors.New("update_blocks_by_pk: only {deleted: true} is supported")
					}
					d, err := b.SoftDeleteDocument(p.Context, argString(p.Args, "id"))
					if err != nil {
						return nil, err
					}
					return documentMap(d), nil
				},
			},
			"insert_blocks_one": &graphql.Field{
				Type: blockType,
				Args: graphql.FieldConfigArgument{
					"object": &graphql.ArgumentConfig{Type: graphql.NewNonNull(blockInsertInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					obj, _ := p.Args["object"].(map[string]interface{})
					d, err := b.InsertDocument(p.Context, model.DocumentInput{
						Title:       argString(obj, "title"),
						FolderID:    argStringPtr(obj, "folder_id"),
						WorkspaceID: argString(obj, "workspace_id"),
						UserID:      argString(obj, "user_id"),
					})
					if err != nil {
						return nil, err
					}
					return documentMap(d), nil
				},
			},
			"delete_document_access": &graphql.Field{
				Type: affectedType,
				Args: graphql.FieldConfigArgument{
					"document_id": &graphql.ArgumentConfig{Type: nonNullString},
					"user_id":     &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					n, err := b.RemoveAccess(p.Context, argString(p.Args, "document_id"), argString(p.Args, "user_id"))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"affected_rows": n}, nil
				},
			},
			"update_folders_by_pk": &graphql.Field{
				Type: folderType,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: nonNullString},
					"_set": &graphql.ArgumentConfig{Type: graphql.NewNonNull(folderSetInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					set, _ := p.Args["_set"].(map[string]interface{})
					f, err := b.UpdateFolder(p.Context, argString(p.Args, "id"), model.FolderInput{
						Name:        argString(set, "name"),
						Description: argStringPtr(set, "description"),
						Icon:        argString(set, "icon"),
					})
					if err != nil {
						return nil, err
					}
					return folderMap(f), nil
				},
			},
			"insert_folders_one": &graphql.Field{
				Type: folderType,
				Args: graphql.FieldConfigArgument{
					"object": &graphql.ArgumentConfig{Type: graphql.NewNonNull(folderInsertInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					obj, _ := p.Args["object"].(map[string]interface{})
					f, err := b.InsertFolder(p.Context, model.FolderInput{
						Name:        argString(obj, "name"),
						Description: argStringPtr(obj, "description"),
						Icon:        argString(obj, "icon"),
						Color:       argStringPtr(obj, "color"),
						UserID:      argString(obj, "user_id"),
						WorkspaceID: argString(obj, "workspace_id"),
						ParentID:    argStringPtr(obj, "parent_id"),
					})
					if err != nil {
						return nil, err
					}
					return folderMap(f), nil
				},
			},
			"delete_folders_by_pk": &graphql.Field{
				Type: folderType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f, err := b.DeleteFolder(p.Context, argString(p.Args, "id"))
					if err != nil {
						return nil, err
					}
					return folderMap(f), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func folderMap(f model.Folder) map[string]interface{} {
	return map[string]interface{}{
		"id":           f.ID,
		"name":         f.Name,
		"description":  ptrOrNil(f.Description),
		"icon":         f.Icon,
		"color":        ptrOrNil(f.Color),
		"user_id":      f.UserID,
		"workspace_id": f.WorkspaceID,
		"parent_id":    ptrOrNil(f.ParentID),
	}
}

func folderMaps(fs []model.Folder) []interface{} {
	out := make([]interface{}, 0, len(fs))
	for _, f := range fs {
		out = append(out, folderMap(f))
	}
	return out
}

func documentMap(d model.Document) map[string]interface{} {
	return map[string]interface{}{
		"id":           d.ID,
		"title":        d.Title,
		"user_id":      d.UserID,
		"workspace_id": d.WorkspaceID,
		"folder_id":    ptrOrNil(d.FolderID),
		"deleted":      d.Deleted,
	}
}

func ptrOrNil(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func argString(args map[string]interface{}, k string) string {
	s, _ := args[k].(string)
	return s
}

func argStringPtr(args map[string]interface{}, k string) *string {
	s, ok := args[k].(string)
	if !ok {
		return nil
	}
	return &s
}
