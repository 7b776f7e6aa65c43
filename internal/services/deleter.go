package services

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yongikim/photolio-lambda-functions/internal/awsconfig"
	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/objectstore"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
)

// ItemDeleter removes the metadata row and the image object of each key.
type ItemDeleter struct {
	store   store.Store
	objects objectstore.Store
	limit   int
	log     zerolog.Logger
}

// NewItemDeleter returns a deleter running at most limit keys at once; limit <= 0 means unbounded.
func NewItemDeleter(st store.Store, objects objectstore.Store, limit int, log zerolog.Logger) *ItemDeleter {
	return &ItemDeleter{store: st, objects: objects, limit: limit, log: log}
}

// DeleteItems deletes every key concurrently and waits for all of them.
// outcomes[i] always reports keys[i]; one key failing never stops the others.
func (d *ItemDeleter) DeleteItems(ctx context.Context, keys []model.PhotoKey) []model.DeleteOutcome {
	outcomes := make([]model.DeleteOutcome, len(keys))

	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			outcomes[i] = model.DeleteOutcome{Success: d.deleteOne(ctx, key)}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// deleteOne deletes the row, then the object, each at most once. The object
// delete is only attempted after the row is gone: a failed row delete skips
// it and leaves the object in place so the surviving row still points at
// something. Either failure reports false.
func (d *ItemDeleter) deleteOne(ctx context.Context, key model.PhotoKey) bool {
	log := d.log.With().
		Str("album_id", key.AlbumID).
		Int64("item_created_at", key.ItemCreatedAt).
		Str("photo_id", key.PhotoID).
		Logger()

	if err := d.store.Delete(ctx, key.AlbumID, key.ItemCreatedAt); err != nil {
		log.Error().Stack().Err(err).Str("aws_code", awsconfig.ErrorCode(err)).Msg("delete photo row failed")
		return false
	}
	if err := d.objects.Delete(ctx, objectstore.ObjectKey(key.PhotoID)); err != nil {
		log.Error().Stack().Err(err).Str("aws_code", awsconfig.ErrorCode(err)).Msg("delete photo object failed; row already removed")
		return false
	}
	log.Debug().Msg("photo deleted")
	return true
}
