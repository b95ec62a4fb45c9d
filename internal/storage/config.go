package storage

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/config"
)

// FromConfig opens the asset store selected by STORAGE_BACKEND.
func FromConfig(ctx context.Context, cfg config.Storage) (AssetStore, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		log.WithField("path", cfg.Path).Info("Using local asset storage")
		store, err := NewLocalStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageMinio:
		log.WithFields(log.Fields{"endpoint": cfg.MinioEndpoint, "bucket": cfg.MinioBucket}).Info("Using MinIO asset storage")
		store, err := NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
