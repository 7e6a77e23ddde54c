package sheets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo identifies one sheet file within a folder.
type FileInfo struct {
	ID   string
	Name string
}

// FileStore abstracts the shared drive holding inbound and outbound
// sheets. Folder ids are store-specific: S3 key prefixes or local
// directory paths.
type FileStore interface {
	List(ctx context.Context, folderID string) ([]FileInfo, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	Upload(ctx context.Context, folderID, name string, r io.Reader) (string, error)
}

// LocalStore is a directory-backed FileStore used for development and
// tests. Folder ids are directory paths; file ids are file paths.
type LocalStore struct{}

// NewLocalStore creates a local filesystem store.
func NewLocalStore() *LocalStore { return &LocalStore{} }

// List returns the CSV files in the given directory.
func (s *LocalStore) List(_ context.Context, folderID string) ([]FileInfo, error) {
	entries, err := os.ReadDir(folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folderID, err)
	}
	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		files = append(files, FileInfo{
			ID:   filepath.Join(folderID, e.Name()),
			Name: e.Name(),
		})
	}
	return files, nil
}

// Download opens the named file.
func (s *LocalStore) Download(_ context.Context, fileID string) (io.ReadCloser, error) {
	f, err := os.Open(fileID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileID, err)
	}
	return f, nil
}

// Upload writes the stream into the folder, creating it if needed.
func (s *LocalStore) Upload(_ context.Context, folderID, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(folderID, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folderID, err)
	}
	path := filepath.Join(folderID, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
