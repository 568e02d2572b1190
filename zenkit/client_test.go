package zenkit_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/zkgen/zenkit"
	"github.com/matthewbaird/zkgen/zenkit/zenkittest"
)

func seed(t *testing.T) *zenkittest.Server {
	t.Helper()
	srv := zenkittest.New(t)
	srv.AddWorkspace(zenkit.Workspace{ID: 1, UUID: "6f1c1a4e-0d5c-4b55-9b55-1b2d3c4d5e6f", Name: "Acme"})
	srv.AddList(1, zenkit.ListInfo{
		List: zenkit.List{ID: 10, ShortID: "tsk", UUID: "list-tasks", Name: "Tasks"},
		Elements: []zenkit.Element{
			{ID: 100, UUID: "el-title", Name: "Title", Category: zenkit.CategoryText},
		},
	})
	return srv
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := zenkit.NewClient(zenkit.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, zenkit.ErrNoToken))
}

func TestWorkspaceLookup(t *testing.T) {
	srv := seed(t)
	c := srv.Client(t)
	ctx := context.Background()

	for _, ident := range []string{"Acme", "1", "6f1c1a4e-0d5c-4b55-9b55-1b2d3c4d5e6f"} {
		ws, err := c.Workspace(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, zenkit.ID(1), ws.ID)
		require.Len(t, ws.Lists, 1)
		assert.Equal(t, "Tasks", ws.Lists[0].Name)
	}

	_, err := c.Workspace(ctx, "Nope")
	assert.True(t, errors.Is(err, zenkit.ErrNotFound))
}

func TestListInfo(t *testing.T) {
	srv := seed(t)
	c := srv.Client(t)

	info, err := c.ListInfo(context.Background(), 1, "list-tasks")
	require.NoError(t, err)
	assert.Equal(t, "tsk", info.List.ShortID)
	require.Len(t, info.Elements, 1)
	assert.Equal(t, zenkit.CategoryText, info.Elements[0].Category)

	_, err = c.ListInfo(context.Background(), 2, "list-tasks")
	assert.True(t, errors.Is(err, zenkit.ErrNotFound))

	_, err = c.ListInfo(context.Background(), 1, "missing")
	assert.True(t, errors.Is(err, zenkit.ErrNotFound))
	var apiErr *zenkit.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestUnauthorized(t *testing.T) {
	srv := seed(t)
	c, err := zenkit.NewClient(zenkit.Config{Token: "wrong", Endpoint: srv.URL(), RetryMax: 1})
	require.NoError(t, err)
	_, err = c.Workspaces(context.Background())
	assert.True(t, errors.Is(err, zenkit.ErrUnauthorized))
}

func TestCreateFetchUpdate(t *testing.T) {
	srv := seed(t)
	c := srv.Client(t)
	ctx := context.Background()

	created, err := c.CreateEntry(ctx, 10, map[string]any{
		"el-title_text": "Write docs",
		"el-tags_categories": []zenkit.ID{1, 2},
	})
	require.NoError(t, err)
	text, ok := created.Text("el-title_text")
	require.True(t, ok)
	assert.Equal(t, "Write docs", text)

	byID, err := c.Entry(ctx, 10, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UUID, byID.UUID)

	byUUID, err := c.EntryByUUID(ctx, 10, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUUID.ID)

	updated, err := c.UpdateEntry(ctx, 10, created.ID, map[string]any{
		"el-tags_categories":   []zenkit.ID{3},
		zenkit.UpdateActionKey: zenkit.UpdateActionAppend,
	})
	require.NoError(t, err)
	assert.Equal(t, []zenkit.ID{1, 2, 3}, updated.IDs("el-tags_categories"))

	_, err = c.Entry(ctx, 10, 99999)
	assert.True(t, errors.Is(err, zenkit.ErrNotFound))
}

func TestEntriesPaging(t *testing.T) {
	srv := seed(t)
	for i := 0; i < 5; i++ {
		srv.AddEntry(10, &zenkit.Entry{ID: zenkit.ID(i + 1)})
	}
	c := srv.Client(t)

	page, err := c.Entries(context.Background(), 10, zenkit.EntriesRequest{Limit: 2, Skip: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, zenkit.ID(5), page[0].ID)

	page, err = c.Entries(context.Background(), 10, zenkit.EntriesRequest{Limit: 2, Skip: 5})
	require.NoError(t, err)
	assert.Empty(t, page)
}
