package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yongikim/photolio-lambda-functions/internal/awsconfig"
	"github.com/yongikim/photolio-lambda-functions/internal/imaging"
	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/objectstore"
	"github.com/yongikim/photolio-lambda-functions/internal/photoid"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
)

// MaxListLimit caps the page size of list and get calls.
const MaxListLimit = 100

// maxCreatedAtAttempts bounds how often an upload moves to a later
// ItemCreatedAt after its slot was already taken.
const maxCreatedAtAttempts = 5

// Options tunes PhotoService.
type Options struct {
	DefaultAlbumID    string
	ListLimit         int
	DeleteConcurrency int
}

type PhotoService struct {
	store    store.Store
	objects  objectstore.Store
	ids      photoid.Generator
	resolver *KeyResolver
	deleter  *ItemDeleter
	opts     Options
	now      func() time.Time
	log      zerolog.Logger
}

func NewPhotoService(st store.Store, objects objectstore.Store, ids photoid.Generator, opts Options, log zerolog.Logger) *PhotoService {
	if opts.DefaultAlbumID == "" {
		opts.DefaultAlbumID = "all"
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 10
	}
	return &PhotoService{
		store:    st,
		objects:  objects,
		ids:      ids,
		resolver: NewKeyResolver(st, log),
		deleter:  NewItemDeleter(st, objects, opts.DeleteConcurrency, log),
		opts:     opts,
		now:      time.Now,
		log:      log,
	}
}

// DeletePhotos resolves the keys of req.PhotoIDs in req.AlbumID and deletes each of them.
// Lookup failures are returned as *model.LookupError; per-photo failures only show up
// in the outcomes, which follow the resolved key order.
func (s *PhotoService) DeletePhotos(ctx context.Context, req model.DeleteRequest) ([]model.DeleteOutcome, error) {
	if strings.TrimSpace(req.AlbumID) == "" {
		return nil, model.NewValidationError("albumId", "is required")
	}
	keys, err := s.resolver.ResolveKeys(ctx, req.AlbumID, req.PhotoIDs)
	if err != nil {
		return nil, err
	}
	return s.deleter.DeleteItems(ctx, keys), nil
}

// UploadPhotos stores every item as an object plus a row in the default album.
// Results follow the input order; an item that fails is reported, not returned as error.
func (s *PhotoService) UploadPhotos(ctx context.Context, items []model.UploadItem) ([]model.UploadResult, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("photos", "must not be empty")
	}

	results := make([]model.UploadResult, len(items))
	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = s.uploadObject(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	base := s.now().Unix()
	stride := int64(len(items))
	var rows errgroup.Group
	for i := range results {
		if !results[i].Success {
			continue
		}
		i := i
		rows.Go(func() error {
			results[i].Success = s.putRow(ctx, &results[i], base+int64(i), stride)
			return nil
		})
	}
	_ = rows.Wait()

	return results, nil
}

func (s *PhotoService) uploadObject(ctx context.Context, item model.UploadItem) model.UploadResult {
	failed := model.UploadResult{Title: item.Title}

	body, err := decodeImage(item.ImageBase64)
	if err != nil {
		s.log.Warn().Err(err).Str("title", item.Title).Msg("upload rejected")
		return failed
	}
	info, err := imaging.Inspect(body)
	if err != nil {
		s.log.Warn().Err(err).Str("title", item.Title).Msg("upload rejected")
		return failed
	}

	id := s.ids.NewID()
	key := objectstore.ObjectKey(id)
	if err := s.objects.Put(ctx, key, body, info.MIMEType); err != nil {
		s.log.Error().Stack().Err(err).Str("photo_id", id).Str("aws_code", awsconfig.ErrorCode(err)).Msg("put photo object failed")
		return failed
	}
	return model.UploadResult{
		ID:      id,
		URL:     s.objects.URL(key),
		Title:   item.Title,
		Width:   info.Width,
		Height:  info.Height,
		Success: true,
	}
}

// putRow writes the row of an uploaded object at createdAt, stepping by stride
// while the slot is occupied by another row.
func (s *PhotoService) putRow(ctx context.Context, r *model.UploadResult, createdAt, stride int64) bool {
	for attempt := 0; attempt < maxCreatedAtAttempts; attempt++ {
		p := &model.Photo{
			AlbumID:       s.opts.DefaultAlbumID,
			ItemCreatedAt: createdAt,
			PhotoID:       r.ID,
			PhotoURL:      r.URL,
			PhotoTitle:    r.Title,
			PhotoWidth:    r.Width,
			PhotoHeight:   r.Height,
		}
		err := s.store.Put(ctx, p)
		if err == nil {
			return true
		}
		if !errors.Is(err, model.ErrConflict) {
			s.log.Error().Stack().Err(err).Str("photo_id", r.ID).Str("aws_code", awsconfig.ErrorCode(err)).Msg("put photo row failed")
			return false
		}
		createdAt += stride
	}
	s.log.Error().Str("photo_id", r.ID).Msg("put photo row failed: no free ItemCreatedAt slot")
	return false
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, model.NewValidationError("imageBase64", "is required")
	}
	body, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, model.NewValidationError("imageBase64", "is not valid base64")
	}
	return body, nil
}

// ListPhotos returns a page of the default album, newest first.
func (s *PhotoService) ListPhotos(ctx context.Context, limit int, cursor string) (*model.PhotoPage, error) {
	return s.store.ListAlbum(ctx, model.ListPhotosRequest{
		AlbumID: s.opts.DefaultAlbumID,
		Limit:   s.clampLimit(limit),
		Cursor:  cursor,
	})
}

// GetPhoto returns the rows carrying photoID, newest first.
func (s *PhotoService) GetPhoto(ctx context.Context, photoID string, limit int, cursor string) (*model.PhotoPage, error) {
	if strings.TrimSpace(photoID) == "" {
		return nil, model.NewValidationError("photoId", "is required")
	}
	return s.store.ListByPhotoID(ctx, model.ListPhotosRequest{
		PhotoID: photoID,
		Limit:   s.clampLimit(limit),
		Cursor:  cursor,
	})
}

func (s *PhotoService) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.opts.ListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
