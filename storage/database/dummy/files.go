package dummydb

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/somaedu/soma/core/material"
)

// FileStore keeps blobs in memory; tests and demo runs use it instead of the
// disk store.
type FileStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ material.FileStore = (*FileStore)(nil)

func NewFileStore() *FileStore {
	return &FileStore{blobs: make(map[string][]byte)}
}

func (s *FileStore) Save(_ context.Context, fileName string, r io.Reader) (string, string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[fileName] = data
	return fileName, "/v1/media/" + fileName, nil
}

func (s *FileStore) Open(_ context.Context, storedName string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[storedName]
	if !ok {
		return nil, material.ErrNotFound
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (s *FileStore) Delete(_ context.Context, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, storedName)
	return nil
}
