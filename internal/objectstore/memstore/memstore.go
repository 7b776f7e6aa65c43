// Package memstore is an in-process object store used for local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yongikim/photolio-lambda-functions/internal/objectstore"
)

var _ objectstore.Store = (*Store)(nil)

type object struct {
	body        []byte
	contentType string
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

func New(baseURL string) *Store {
	return &Store{objects: make(map[string]object), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) Put(_ context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{body: append([]byte(nil), body...), contentType: contentType}
	return nil
}

// Delete removes key. Deleting a missing key succeeds, as it does on S3.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

// Get returns the body and content type stored under key.
func (s *Store) Get(key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("get %s: %w", key, objectstore.ErrObjectNotFound)
	}
	return o.body, o.contentType, nil
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

func (s *Store) HealthPing(context.Context) error { return nil }
