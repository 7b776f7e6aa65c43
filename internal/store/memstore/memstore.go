// Package memstore is an in-process metadata store used for local runs and tests.
package memstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
)

var _ store.Store = (*Store)(nil)

type rowKey struct {
	albumID       string
	itemCreatedAt int64
}

// Store keeps photos in a map keyed by (AlbumID, ItemCreatedAt).
type Store struct {
	mu   sync.RWMutex
	rows map[rowKey]model.Photo
}

func New() *Store {
	return &Store{rows: make(map[rowKey]model.Photo)}
}

func (s *Store) QueryKeys(_ context.Context, albumID string, photoIDs []string) ([]model.KeyRow, error) {
	if len(photoIDs) == 0 {
		return nil, model.NewValidationError("photoIds", "must not be empty")
	}
	want := make(map[string]struct{}, len(photoIDs))
	for _, id := range photoIDs {
		want[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.KeyRow
	for _, p := range s.sorted(albumID, false) {
		if _, ok := want[p.PhotoID]; !ok {
			continue
		}
		album, created, id := p.AlbumID, p.ItemCreatedAt, p.PhotoID
		out = append(out, model.KeyRow{AlbumID: &album, ItemCreatedAt: &created, PhotoID: &id})
	}
	return out, nil
}

func (s *Store) Put(_ context.Context, p *model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rowKey{p.AlbumID, p.ItemCreatedAt}
	if _, exists := s.rows[k]; exists {
		return fmt.Errorf("put photo %s: %w", p.PhotoID, model.ErrConflict)
	}
	s.rows[k] = *p
	return nil
}

func (s *Store) Delete(_ context.Context, albumID string, itemCreatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, rowKey{albumID, itemCreatedAt})
	return nil
}

func (s *Store) ListAlbum(_ context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.sorted(req.AlbumID, true), req)
}

func (s *Store) ListByPhotoID(_ context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.Photo
	for _, p := range s.rows {
		if p.PhotoID == req.PhotoID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ItemCreatedAt > matched[j].ItemCreatedAt })
	return page(matched, req)
}

// Get returns the row at (albumID, itemCreatedAt).
func (s *Store) Get(albumID string, itemCreatedAt int64) (model.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[rowKey{albumID, itemCreatedAt}]
	return p, ok
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store) HealthPing(context.Context) error { return nil }

// sorted returns rows of albumID by ItemCreatedAt; caller holds the lock.
func (s *Store) sorted(albumID string, desc bool) []model.Photo {
	var out []model.Photo
	for k, p := range s.rows {
		if k.albumID == albumID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ItemCreatedAt > out[j].ItemCreatedAt
		}
		return out[i].ItemCreatedAt < out[j].ItemCreatedAt
	})
	return out
}

// page applies the offset cursor and limit to an ordered slice.
func page(rows []model.Photo, req model.ListPhotosRequest) (*model.PhotoPage, error) {
	start := 0
	if req.Cursor != "" {
		raw, err := base64.RawURLEncoding.DecodeString(req.Cursor)
		if err != nil {
			return nil, model.NewValidationError("cursor", "is malformed")
		}
		start, err = strconv.Atoi(string(raw))
		if err != nil || start < 0 {
			return nil, model.NewValidationError("cursor", "is malformed")
		}
	}
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if req.Limit > 0 && start+req.Limit < end {
		end = start + req.Limit
	}

	out := &model.PhotoPage{
		Photos: append([]model.Photo{}, rows[start:end]...),
		Meta:   model.PageMeta{Total: end - start, Limit: req.Limit},
	}
	if end < len(rows) {
		out.Meta.Cursor = base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(end)))
	}
	return out, nil
}
