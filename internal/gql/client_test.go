package gql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"folio-cli/internal/gqlserver"
	"folio-cli/internal/model"
	"folio-cli/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*Client, *store.Backend) {
	t.Helper()
	b, err := store.OpenBackend(context.Background(), filepath.Join(t.TempDir(), "backend.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	h, err := gqlserver.NewHandler(b, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(gqlserver.Mux(h))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/graphql"), b
}

func TestClient_FolderRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	parent, err := c.InsertFolder(ctx, model.FolderInput{Name: "Projects", WorkspaceID: "ws", UserID: "u"})
	require.NoError(t, err)
	require.Equal(t, "Projects", parent.Name)

	child, err := c.InsertFolder(ctx, model.FolderInput{Name: "Q3", WorkspaceID: "ws", ParentID: &parent.ID})
	require.NoError(t, err)
	require.Equal(t, parent.ID, model.StrOrEmpty(child.ParentID))

	desc := "quarterly"
	updated, err := c.UpdateFolder(ctx, child.ID, model.FolderInput{Name: "Q3 plans", Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "Q3 plans", updated.Name)
	require.Equal(t, "quarterly", model.StrOrEmpty(updated.Description))

	ws, err := c.FetchWorkspace(ctx, "ws", "")
	require.NoError(t, err)
	require.Len(t, ws.Folders, 2)
	require.Len(t, ws.Children[parent.ID], 1)
	require.Equal(t, child.ID, ws.Children[parent.ID][0].ID)

	id, err := c.DeleteFolder(ctx, parent.ID)
	require.NoError(t, err)
	require.Equal(t, parent.ID, id)

	_, err = c.DeleteFolder(ctx, parent.ID)
	var se ServerError
	require.True(t, errors.As(err, &se), "expected ServerError, got %v", err)
}

func TestClient_DocumentOperations(t *testing.T) {
	ctx := context.Background()
	c, b := newClient(t)

	doc, err := c.InsertDocument(ctx, model.DocumentInput{Title: "Notes", WorkspaceID: "ws", UserID: "alice"})
	require.NoError(t, err)
	shared, err := b.InsertDocument(ctx, model.DocumentInput{Title: "Theirs", WorkspaceID: "ws", UserID: "bob"})
	require.NoError(t, err)
	require.NoError(t, b.GrantAccess(ctx, shared.ID, "alice"))

	ws, err := c.FetchWorkspace(ctx, "ws", "alice")
	require.NoError(t, err)
	require.Equal(t, 2, ws.Count)
	require.Len(t, ws.Documents, 2)

	n, err := c.RemoveDocumentAccess(ctx, shared.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	id, err := c.SoftDeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, id)

	ws, err = c.FetchWorkspace(ctx, "ws", "alice")
	require.NoError(t, err)
	require.Equal(t, 0, ws.Count)
	require.Empty(t, ws.Documents)
}

func TestClient_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SoftDeleteDocument(context.Background(), "doc-1")
	var te TransportError
	require.True(t, errors.As(err, &te), "expected TransportError, got %v", err)
	require.Equal(t, "SoftDeleteDocument", te.Op)

	_, err = New("").DeleteFolder(context.Background(), "fld-1")
	require.True(t, errors.As(err, &te))
}
