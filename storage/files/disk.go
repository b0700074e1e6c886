// Package files stores uploaded material blobs on local disk under
// Conf.MediaRoot.
package files

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somaedu/soma/core/material"
)

type DiskStore struct {
	root    string
	baseURL string // public prefix, e.g. /v1/media
}

var _ material.FileStore = (*DiskStore)(nil)

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save stores the blob under a unique name that keeps the original file name
// as a suffix, so stored names stay human-readable and collision-free.
func (s *DiskStore) Save(_ context.Context, fileName string, r io.Reader) (string, string, error) {
	storedName := uuid.New().String() + "_" + sanitize(fileName)

	f, err := os.Create(filepath.Join(s.root, storedName))
	if err != nil {
		return "", "", errors.Wrap(err, "creating media file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", "", errors.Wrap(err, "writing media file")
	}
	return storedName, s.baseURL + "/" + storedName, nil
}

func (s *DiskStore) Open(_ context.Context, storedName string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, sanitize(storedName)))
	if os.IsNotExist(err) {
		return nil, material.ErrNotFound
	}
	return f, err
}

func (s *DiskStore) Delete(_ context.Context, storedName string) error {
	err := os.Remove(filepath.Join(s.root, sanitize(storedName)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// sanitize strips any path components so names cannot escape the media root.
func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "unnamed"
	}
	return name
}
