package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Store manages the on-disk archive tree. Every collection gets one
// folder under <root>/archives; archived link assets live inside it.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// EnsureCollectionFolder creates the archive folder for a collection.
// Safe to call unconditionally.
func (s *Store) EnsureCollectionFolder(collectionID uint64) error {
	dir := filepath.Join(s.root, "archives", strconv.FormatUint(collectionID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create archive folder")
	}
	return nil
}

// ImagePath is the stored (relative) path of a link's archived image.
// The link id is part of the path, so it can only be computed after the
// row exists.
func ImagePath(collectionID, linkID uint64, ext string) string {
	return fmt.Sprintf("archives/%d/%d.%s", collectionID, linkID, ext)
}
