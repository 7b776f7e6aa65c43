package factory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/awsconfig"
	"github.com/yongikim/photolio-lambda-functions/internal/config"
	"github.com/yongikim/photolio-lambda-functions/internal/health"
	"github.com/yongikim/photolio-lambda-functions/internal/objectstore"
	objmem "github.com/yongikim/photolio-lambda-functions/internal/objectstore/memstore"
	"github.com/yongikim/photolio-lambda-functions/internal/objectstore/s3store"
	"github.com/yongikim/photolio-lambda-functions/internal/store"
	"github.com/yongikim/photolio-lambda-functions/internal/store/dynamo"
	"github.com/yongikim/photolio-lambda-functions/internal/store/memstore"
)

// Stores bundles the metadata store and the object store with their health probes.
type Stores struct {
	Metadata       store.Store
	Objects        objectstore.Store
	MetadataPinger health.HealthPinger
	ObjectsPinger  health.HealthPinger
}

// NewStores builds the stores selected by cfg.StoreDriver. Clients are created
// once here and shared by every request.
func NewStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory stores; data is lost on restart")
		rows := memstore.New()
		objects := objmem.New(cfg.PhotoBaseURL)
		return &Stores{Metadata: rows, Objects: objects, MetadataPinger: rows, ObjectsPinger: objects}, nil

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.Load(ctx, cfg)
		if err != nil {
			return nil, err
		}
		pathStyle := cfg.AWSEndpointURL != ""
		rows := dynamo.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.PhotoIDIndex)
		objects := s3store.New(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyle
		}), cfg.BucketName, cfg.PhotoBaseURL)

		log.Info().
			Str("table", cfg.TableName).
			Str("index", cfg.PhotoIDIndex).
			Str("bucket", cfg.BucketName).
			Bool("path_style", pathStyle).
			Msg("AWS stores configured")
		return &Stores{Metadata: rows, Objects: objects, MetadataPinger: rows, ObjectsPinger: objects}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER: %s", cfg.StoreDriver)
	}
}
