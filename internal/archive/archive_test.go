package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCollectionFolderIdempotent(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.EnsureCollectionFolder(42))
	require.NoError(t, store.EnsureCollectionFolder(42))

	info, err := os.Stat(filepath.Join(root, "archives", "42"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, "archives/3/17.png", ImagePath(3, 17, "png"))
	assert.Equal(t, "archives/3/17.jpeg", ImagePath(3, 17, "jpeg"))
}
