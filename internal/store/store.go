package store

import (
	"context"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
)

// Store exposes the photo metadata operations required by services.
// Implementations live under internal/store/<driver>/ (dynamo, memstore).
type Store interface {
	// QueryKeys returns the key attributes of every row in albumID whose
	// PhotoId is one of photoIDs, in the store's natural order.
	QueryKeys(ctx context.Context, albumID string, photoIDs []string) ([]model.KeyRow, error)
	// Put stores a new row; an existing row with the same key yields model.ErrConflict.
	Put(ctx context.Context, p *model.Photo) error
	Delete(ctx context.Context, albumID string, itemCreatedAt int64) error
	// ListAlbum returns rows of req.AlbumID newest first.
	ListAlbum(ctx context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error)
	// ListByPhotoID returns rows carrying req.PhotoID newest first.
	ListByPhotoID(ctx context.Context, req model.ListPhotosRequest) (*model.PhotoPage, error)
}
