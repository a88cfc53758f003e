/*
Package store keeps serialized classifiers. A Store maps IDs to byte slices;
implementations are provided for the process memory and for a directory of
files, and package redisstore provides one backed by Redis.
*/
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

/*
Store is an interface to manage a store where serialized classifiers can be
created, retrieved, updated and deleted.

All its methods take a context that may allow cancelling the operation if the
implementation allows it.
*/
type Store interface {
	// Create stores data for the first time under a new ID and returns the ID.
	Create(ctx context.Context, data []byte) (string, error)
	// Get returns the data stored under the ID, nil if there is none.
	Get(ctx context.Context, id string) ([]byte, error)
	// Store replaces the data stored under the ID.
	Store(ctx context.Context, id string, data []byte) error
	// Delete removes the data stored under the ID.
	Delete(ctx context.Context, id string) error
	// Close frees the resources of the store.
	Close(ctx context.Context) error
}

// NewID returns a new random ID.
func NewID() string {
	return uuid.NewString()
}

type memoryStore struct {
	entries map[string][]byte
	lock    *sync.RWMutex
}

// NewMemoryStore returns a Store with the process memory as backend.
func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string][]byte),
		lock:    &sync.RWMutex{},
	}
}

func (ms *memoryStore) Create(ctx context.Context, data []byte) (string, error) {
	var id string
	err := ms.withLock(ctx, func(ctx context.Context) error {
		taken := true
		for taken {
			if err := ctx.Err(); err != nil {
				return err
			}
			id = NewID()
			_, taken = ms.entries[id]
		}
		ms.entries[id] = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (ms *memoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		if d, ok := ms.entries[id]; ok {
			data = append([]byte(nil), d...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (ms *memoryStore) Store(ctx context.Context, id string, data []byte) error {
	return ms.withLock(ctx, func(ctx context.Context) error {
		ms.entries[id] = append([]byte(nil), data...)
		return nil
	})
}

func (ms *memoryStore) Delete(ctx context.Context, id string) error {
	return ms.withLock(ctx, func(ctx context.Context) error {
		delete(ms.entries, id)
		return nil
	})
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}

func (ms *memoryStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		ms.lock.Lock()
		select {
		case <-ctx.Done():
			ms.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.Unlock()
	}
	return f(ctx)
}

func (ms *memoryStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		ms.lock.RLock()
		select {
		case <-ctx.Done():
			ms.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.RUnlock()
	}
	return f(ctx)
}

const fileExtension = ".model"

type fileStore struct {
	dir string
}

/*
NewFileStore returns a Store keeping every entry in a file of the given
directory, named after its ID. The directory is created if missing.
*/
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %v", dir, err)
	}
	return &fileStore{dir}, nil
}

func (fs *fileStore) Create(ctx context.Context, data []byte) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := NewID()
		f, err := os.OpenFile(fs.pathFor(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating entry: %v", err)
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("creating entry %s: %v", id, err)
		}
		return id, nil
	}
}

func (fs *fileStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fs.pathFor(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving entry %s: %v", id, err)
	}
	return data, nil
}

func (fs *fileStore) Store(ctx context.Context, id string, data []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	tmp := fs.pathFor(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("storing entry %s: %v", id, err)
	}
	if err := os.Rename(tmp, fs.pathFor(id)); err != nil {
		return fmt.Errorf("storing entry %s: %v", id, err)
	}
	return nil
}

func (fs *fileStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(fs.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting entry %s: %v", id, err)
	}
	return nil
}

func (fs *fileStore) Close(ctx context.Context) error {
	return nil
}

func (fs *fileStore) pathFor(id string) string {
	return filepath.Join(fs.dir, id+fileExtension)
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid entry id %q", id)
	}
	return nil
}
