package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/casdoor/oss"
	"github.com/pkg/errors"
)

// FileSystem is the storage backend behind a Store. Only the operations the
// attachment flow needs are exposed.
type FileSystem interface {
	GetFullPath(p string) string
	Get(p string) (*os.File, error)
	Put(p string, r io.Reader) (*oss.Object, error)
	Delete(p string) error
}

// LocalFileSystem keeps attachments on the local disk under a base folder.
type LocalFileSystem struct {
	Folder string
}

// NewFileSystem creates a local backend rooted at folder, creating the
// folder if it does not exist yet.
func NewFileSystem(folder string) (*LocalFileSystem, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve storage folder")
	}
	if err := os.MkdirAll(abs, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to create storage folder")
	}
	return &LocalFileSystem{Folder: abs}, nil
}

// GetFullPath resolves a stored path against the base folder.
func (fs *LocalFileSystem) GetFullPath(p string) string {
	if strings.HasPrefix(p, fs.Folder) {
		return p
	}
	fp, _ := filepath.Abs(filepath.Join(fs.Folder, p))
	return fp
}

// Get opens a stored file.
func (fs *LocalFileSystem) Get(p string) (*os.File, error) {
	return os.Open(fs.GetFullPath(p))
}

// Put writes the reader to the given path.
func (fs *LocalFileSystem) Put(p string, r io.Reader) (*oss.Object, error) {
	fp := fs.GetFullPath(p)
	if err := os.MkdirAll(filepath.Dir(fp), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to create attachment directory")
	}

	dst, err := os.Create(fp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create attachment file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return nil, errors.Wrap(err, "failed to write attachment file")
	}

	return &oss.Object{Path: p, Name: filepath.Base(p)}, nil
}

// Delete removes a stored file.
func (fs *LocalFileSystem) Delete(p string) error {
	return os.Remove(fs.GetFullPath(p))
}
