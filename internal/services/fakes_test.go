package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
	objmem "github.com/yongikim/photolio-lambda-functions/internal/objectstore/memstore"
	"github.com/yongikim/photolio-lambda-functions/internal/store/memstore"
)

var errInjected = errors.New("injected failure")

// faultyStore fails Delete for the listed ItemCreatedAt values and QueryKeys when queryErr is set.
type faultyStore struct {
	*memstore.Store
	queryErr  error
	putErr    error
	rows      []model.KeyRow
	failAt    map[int64]bool
	deleteHit func(itemCreatedAt int64)
}

func (f *faultyStore) QueryKeys(ctx context.Context, albumID string, photoIDs []string) ([]model.KeyRow, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.rows != nil {
		return f.rows, nil
	}
	return f.Store.QueryKeys(ctx, albumID, photoIDs)
}

func (f *faultyStore) Put(ctx context.Context, p *model.Photo) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, p)
}

func (f *faultyStore) Delete(ctx context.Context, albumID string, itemCreatedAt int64) error {
	if f.deleteHit != nil {
		f.deleteHit(itemCreatedAt)
	}
	if f.failAt[itemCreatedAt] {
		return errInjected
	}
	return f.Store.Delete(ctx, albumID, itemCreatedAt)
}

// faultyObjects fails Delete and Put for the listed object keys.
type faultyObjects struct {
	*objmem.Store
	mu      sync.Mutex
	failKey map[string]bool
	deleted []string
}

func (f *faultyObjects) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	if f.failKey[key] {
		return errInjected
	}
	return f.Store.Delete(ctx, key)
}

func (f *faultyObjects) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if f.failKey[key] {
		return errInjected
	}
	return f.Store.Put(ctx, key, body, contentType)
}

func (f *faultyObjects) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// seqIDs hands out ids in order.
type seqIDs struct {
	mu  sync.Mutex
	ids []string
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id
}

func seed(t *testing.T, st *memstore.Store, objects *objmem.Store, photos ...model.Photo) {
	t.Helper()
	for i := range photos {
		if err := st.Put(context.Background(), &photos[i]); err != nil {
			t.Fatalf("seed row: %v", err)
		}
		key := photos[i].PhotoID + ".jpeg"
		if err := objects.Put(context.Background(), key, []byte("x"), "image/jpeg"); err != nil {
			t.Fatalf("seed object: %v", err)
		}
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
