package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/awsconfig"
	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
)

// KeyResolver turns photo ids of an album into full composite keys.
type KeyResolver struct {
	store store.Store
	log   zerolog.Logger
}

func NewKeyResolver(st store.Store, log zerolog.Logger) *KeyResolver {
	return &KeyResolver{store: st, log: log}
}

// ResolveKeys returns one key per stored row of albumID whose PhotoId is in photoIDs,
// in store order. Zero matches, an incomplete row, or a failed query yield a
// *model.LookupError; an empty photoIDs is rejected before querying.
func (r *KeyResolver) ResolveKeys(ctx context.Context, albumID string, photoIDs []string) ([]model.PhotoKey, error) {
	if len(photoIDs) == 0 {
		return nil, model.NewValidationError("photoIds", "must not be empty")
	}

	rows, err := r.store.QueryKeys(ctx, albumID, photoIDs)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		r.log.Error().Stack().Err(err).
			Str("album_id", albumID).
			Str("aws_code", awsconfig.ErrorCode(err)).
			Msg("photo key query failed")
		return nil, &model.LookupError{Kind: model.LookupStoreUnavailable, Err: err}
	}
	if len(rows) == 0 {
		return nil, &model.LookupError{Kind: model.LookupEmptyResult}
	}

	keys := make([]model.PhotoKey, 0, len(rows))
	for i, row := range rows {
		if attr := missingAttribute(row); attr != "" {
			lerr := &model.LookupError{Kind: model.LookupMalformedRow, Row: i + 1, Attribute: attr}
			r.log.Error().Err(lerr).Str("album_id", albumID).Msg("photo key row incomplete")
			return nil, lerr
		}
		keys = append(keys, model.PhotoKey{
			AlbumID:       *row.AlbumID,
			ItemCreatedAt: *row.ItemCreatedAt,
			PhotoID:       *row.PhotoID,
		})
	}

	r.log.Debug().Interface("keys", keys).Msg("resolved photo keys")
	return keys, nil
}

func missingAttribute(row model.KeyRow) string {
	switch {
	case row.AlbumID == nil || *row.AlbumID == "":
		return "AlbumId"
	case row.ItemCreatedAt == nil:
		return "ItemCreatedAt"
	case row.PhotoID == nil || *row.PhotoID == "":
		return "PhotoId"
	}
	return ""
}
