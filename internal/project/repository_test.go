package project

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutroom/cutroom-agent/internal/db"
)

func setupTestRepo(t *testing.T) Repository {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func storedProject(name string) *Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &Project{
		ID:        "p-" + name,
		Name:      name,
		Document:  DefaultDocument(name, "", ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_ProjectRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := storedProject("Teaser")
	require.NoError(t, repo.CreateProject(ctx, p))

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Document, got.Document)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

	missing, err := repo.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_SaveDocumentUpdatesInPlace(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := storedProject("Teaser")
	require.NoError(t, repo.CreateProject(ctx, p))

	doc := p.Document
	doc.Name = "Teaser v2"
	doc.Position = 3.25
	require.NoError(t, repo.SaveDocument(ctx, p.ID, doc))

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teaser v2", got.Name, "the name column follows the document")
	assert.Equal(t, 3.25, got.Document.Position)
}

func TestRepository_ListOrdersByRecency(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	older := storedProject("older")
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.CreateProject(ctx, older))
	require.NoError(t, repo.CreateProject(ctx, storedProject("newer")))

	projects, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "newer", projects[0].Name)
	assert.Equal(t, "older", projects[1].Name)
}

func TestRepository_RenameAndDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := storedProject("Teaser")
	require.NoError(t, repo.CreateProject(ctx, p))

	require.NoError(t, repo.RenameProject(ctx, p.ID, "Final Cut"))
	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final Cut", got.Name)

	require.NoError(t, repo.DeleteProject(ctx, p.ID))
	got, err = repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ExportLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	e := &Export{
		ID:        "e-1",
		ProjectID: "p-1",
		Format:    "edl",
		Status:    ExportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateExport(ctx, e))

	require.NoError(t, repo.UpdateExportStatus(ctx, e.ID, ExportStatusRunning, ""))
	require.NoError(t, repo.UpdateExportProgress(ctx, e.ID, 40))
	require.NoError(t, repo.CompleteExport(ctx, e.ID, "/out/p-1.edl"))

	got, err := repo.GetExport(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ExportStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "/out/p-1.edl", got.OutputPath)

	listed, err := repo.ListExports(ctx, "p-1", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	other, err := repo.ListExports(ctx, "p-2", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_Config(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	v, err := repo.GetConfig(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, repo.SetConfig(ctx, "active_project", "p-1"))
	require.NoError(t, repo.SetConfig(ctx, "active_project", "p-2"))

	v, err = repo.GetConfig(ctx, "active_project")
	require.NoError(t, err)
	assert.Equal(t, "p-2", v)
}
