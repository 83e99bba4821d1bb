package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/keepsake/core"
)

// BlobStore resolves stored file references to bytes. The enrichment worker
// reads an item's file through this seam so the backing store (local
// directory, object storage) stays an external collaborator.
type BlobStore interface {
	// Put stores data and returns a reference that Get will resolve.
	Put(ctx context.Context, id core.ID, name string, data []byte) (string, error)

	// Get resolves a reference produced by Put back to the stored bytes.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Delete removes the blob. Deleting a missing reference is not an error.
	Delete(ctx context.Context, ref string) error
}

// DirStore is a BlobStore over a local directory. References are paths
// relative to the root, one file per blob.
type DirStore struct {
	root string
}

var _ BlobStore = (*DirStore)(nil)

// NewDirStore creates a directory-backed blob store rooted at root,
// creating the directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, errors.New("blob store root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &DirStore{root: root}, nil
}

// Put stores data under an ID-derived name, keeping the original extension
// so media types stay recognizable.
func (s *DirStore) Put(ctx context.Context, id core.ID, name string, data []byte) (string, error) {
	ref := fmt.Sprintf("%d%s", id, strings.ToLower(filepath.Ext(name)))
	if err := os.WriteFile(filepath.Join(s.root, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("store blob %s: %w", ref, err)
	}
	return ref, nil
}

// Get resolves a reference to the stored bytes.
func (s *DirStore) Get(ctx context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the blob. Missing references are ignored.
func (s *DirStore) Delete(ctx context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", ref, err)
	}
	return nil
}

// resolve joins ref with the root, rejecting references that escape it.
func (s *DirStore) resolve(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || filepath.IsAbs(ref) {
		return "", fmt.Errorf("invalid blob reference %q", ref)
	}
	return filepath.Join(s.root, ref), nil
}
