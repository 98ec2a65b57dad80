package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
	"github.com/joseph-ayodele/receipt-ledger/internal/storage"
)

func newIngestor(t *testing.T) (*FSIngestor, repository.ImageRepository, *storage.LocalStore) {
	t.Helper()
	db, err := repository.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(context.Background(), db))

	store, err := storage.NewLocalStore(t.TempDir(), "", nil)
	require.NoError(t, err)
	images := repository.NewImageRepository(db, nil)
	return NewFSIngestor(images, store, nil), images, store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestPath(t *testing.T) {
	ctx := context.Background()
	ing, images, store := newIngestor(t)
	uploader := uuid.New()

	src := filepath.Join(t.TempDir(), "cupom.JPG")
	writeFile(t, src, "receipt-bytes")

	res, err := ing.IngestPath(ctx, uploader, src)
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, "image/jpeg", res.MimeType)
	assert.True(t, store.Exists(res.Locator))

	img, err := images.GetByID(ctx, res.ImageID)
	require.NoError(t, err)
	assert.Equal(t, uploader, img.UploaderID)
	assert.Equal(t, res.Locator, img.StorageLocator)

	again, err := ing.IngestPath(ctx, uploader, src)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, res.ImageID, again.ImageID)
}

func TestIngestPath_Rejects(t *testing.T) {
	ctx := context.Background()
	ing, _, _ := newIngestor(t)

	pdf := filepath.Join(t.TempDir(), "r.pdf")
	writeFile(t, pdf, "%PDF")
	_, err := ing.IngestPath(ctx, uuid.New(), pdf)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ing.IngestPath(ctx, uuid.Nil, pdf)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	ing, _, _ := newIngestor(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "a.jpg"), "a")
	writeFile(t, filepath.Join(root, "sub", "b.png"), "b")
	writeFile(t, filepath.Join(root, "sub", "dup.png"), "b")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, ".hidden", "c.jpg"), "c")

	results, stats, err := ing.IngestDirectory(ctx, uuid.New(), root, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)
}
