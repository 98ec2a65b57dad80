package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

func TestLocalStore_SaveReadDisplay(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "", nil)
	require.NoError(t, err)

	n, err := store.Save(ctx, "u1/receipt.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.True(t, store.Exists("u1/receipt.jpg"))

	data, err := store.Read(ctx, "u1/receipt.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	img := entity.Image{ID: uuid.New(), StorageLocator: "u1/receipt.jpg"}
	u, ok := store.DisplayURL(img)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(u, "file://"), u)
	assert.True(t, strings.HasSuffix(u, "/u1/receipt.jpg"), u)

	_, ok = store.DisplayURL(entity.Image{StorageLocator: "u1/missing.jpg"})
	assert.False(t, ok)
}

func TestLocalStore_PublicBaseURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "https://cdn.example.com/images/", nil)
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "a/b.png", strings.NewReader("png"))
	require.NoError(t, err)

	u, ok := store.DisplayURL(entity.Image{StorageLocator: "a/b.png"})
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/images/a/b.png", u)
}

func TestLocalStore_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "", nil)
	require.NoError(t, err)

	for _, loc := range []string{"", "../etc/passwd", "/etc/passwd", "a/../../x"} {
		_, err := store.Read(ctx, loc)
		assert.ErrorIs(t, err, common.ErrInvalidInput, loc)
		assert.False(t, store.Exists(loc), loc)
	}
}

func TestLocalStore_ReadMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "", nil)
	require.NoError(t, err)
	_, err = store.Read(context.Background(), "nope.jpg")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
