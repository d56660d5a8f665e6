// Package storage provides file storage for task and comment attachments.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ncobase/taskflow/config"
)

// Store wraps a FileSystem with upload policy for attachments.
type Store struct {
	fs            FileSystem
	publicPath    string
	maxUploadSize int64
}

// New creates a Store for the configured provider.
func New(cfg *config.Storage) (*Store, error) {
	switch cfg.Provider {
	case "", "filesystem":
		fs, err := NewFileSystem(cfg.Folder)
		if err != nil {
			return nil, err
		}
		return &Store{
			fs:            fs,
			publicPath:    cfg.PublicPath,
			maxUploadSize: cfg.MaxUploadSize,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// MaxUploadSize returns the upload size limit in bytes.
func (s *Store) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Folder returns the absolute base folder of the underlying file system.
func (s *Store) Folder() string {
	if lfs, ok := s.fs.(*LocalFileSystem); ok {
		return lfs.Folder
	}
	return ""
}

// SaveUpload stores an uploaded file under a collision-free generated name
// and returns the stored relative path together with the public URL.
func (s *Store) SaveUpload(originalName string, size int64, r io.Reader) (storedPath, publicURL string, err error) {
	if s.maxUploadSize > 0 && size > s.maxUploadSize {
		return "", "", errors.Errorf("file exceeds maximum upload size of %d bytes", s.maxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	storedPath = uuid.NewString() + ext
	if _, err = s.fs.Put(storedPath, r); err != nil {
		return "", "", err
	}

	return storedPath, path.Join(s.publicPath, storedPath), nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(storedPath string) error {
	if storedPath == "" {
		return nil
	}
	if err := s.fs.Delete(storedPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove stored file")
	}
	return nil
}
